package server

import (
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Newはechoインスタンスを組み立てて返す（起動はしない）
// guardは認証必須ルートに掛けるミドルウェア
func New(authH *handler.AuthHandler, guard echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	RegisterRoutes(e, authH, guard)

	return e
}

// Startはサーバーを起動する
func Start(addr string, authH *handler.AuthHandler, guard echo.MiddlewareFunc) error {
	e := New(authH, guard)
	return e.Start(addr)
}
