package handler

import (
	"errors"
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// cookie名（クライアントが見る名前なので変えない）
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// ClientTypeHeaderで配信方法を切り替える（mobile/web）
const ClientTypeHeader = "X-Client-Type"

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	accessTTL    time.Duration // access cookieの有効期限
	refreshTTL   time.Duration // refresh cookieの有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		accessTTL:    cfg.AccessTokenTTL,
		refreshTTL:   cfg.RefreshTokenTTL,
		cookieSecure: cfg.IsProduction(),
	}
}

// /auth/registerのリクエストボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// /auth/loginのリクエストボディ。
type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	ClientType string `json:"clientType"`
}

// /auth/refreshのリクエストボディ（webはcookieで送るので空でよい）
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	ClientType   string `json:"clientType"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// mobile向け：トークンをボディで返す
type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message"`
}

type registerResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

type meResponse struct {
	User model.PublicUser `json:"user"`
}

// RegisterはPOST /auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Validation error"})
	}

	user, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Email already in use"})
		case errors.Is(err, usecase.ErrValidation):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Validation error"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		}
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Message: "User created",
		User:    user,
	})
}

// LoginはPOST /auth/loginのハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid credentials"})
	}

	clientType := model.ResolveClientType(c.Request().Header.Get(ClientTypeHeader), req.ClientType)

	pair, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			//メール不明とパスワード不一致はここで同じレスポンスになる
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid credentials"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		}
	}

	return h.deliver(c, clientType, pair, "Logged in")
}

// RefreshはPOST /auth/refreshのハンドラ（ローテーション）
func (h *AuthHandler) Refresh(c echo.Context) error {
	//webはボディ無しで来るのでBind失敗は無視する
	var req refreshRequest
	_ = c.Bind(&req)

	clientType := model.ResolveClientType(c.Request().Header.Get(ClientTypeHeader), req.ClientType)

	//mobileはボディ、webはcookieから取り出す
	raw := req.RefreshToken
	if clientType == model.ClientWeb {
		raw = cookieValue(c, RefreshTokenCookie)
	}
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "No refresh token"})
	}

	pair, err := h.uc.Refresh(c.Request().Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidRefreshToken):
			return c.JSON(http.StatusForbidden, errorResponse{Error: "Invalid refresh token"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		}
	}

	return h.deliver(c, clientType, pair, "Token refreshed")
}

// LogoutはPOST /auth/logoutのハンドラ
// 提示されたrefreshを失効させてcookieを消す。冪等
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	_ = c.Bind(&req)

	raw := req.RefreshToken
	if raw == "" {
		raw = cookieValue(c, RefreshTokenCookie)
	}

	if err := h.uc.Logout(c.Request().Context(), raw); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}

	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// MeはGET /auth/meのハンドラ（ガード必須）
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
	}

	user, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		}
	}

	return c.JSON(http.StatusOK, meResponse{User: user})
}

// deliverはClientTypeに応じてトークンを返す
// mobile: JSONボディ / web: httpOnly cookie（ボディにトークンは入れない）
func (h *AuthHandler) deliver(c echo.Context, clientType model.ClientType, pair usecase.TokenPair, message string) error {
	if clientType == model.ClientMobile {
		return c.JSON(http.StatusOK, tokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			Message:      message,
		})
	}

	h.setAuthCookie(c, AccessTokenCookie, pair.AccessToken, h.accessTTL)
	h.setAuthCookie(c, RefreshTokenCookie, pair.RefreshToken, h.refreshTTL)

	return c.JSON(http.StatusOK, messageResponse{Message: message})
}

// 認証cookieをセット。MaxAgeはトークン自身のTTLに揃える
func (h *AuthHandler) setAuthCookie(c echo.Context, name string, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// 認証cookieを両方消す
func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil || ck == nil {
		return ""
	}
	return ck.Value
}
