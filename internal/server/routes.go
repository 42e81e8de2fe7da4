package server

import (
	"net/http"

	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, authH *handler.AuthHandler, guard echo.MiddlewareFunc) {
	//死活確認
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "API is running...")
	})

	a := e.Group("/auth")
	a.POST("/register", authH.Register)
	a.POST("/login", authH.Login)
	a.POST("/refresh", authH.Refresh)
	a.POST("/logout", authH.Logout)

	//ガード必須
	a.GET("/me", authH.Me, guard)
}
