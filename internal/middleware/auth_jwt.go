package middleware

import (
	"net/http"
	"strings"

	"app/internal/token"

	"github.com/labstack/echo/v4"
)

// ガードが読むcookie名（handler側のセット名と同じ）
const accessTokenCookie = "access_token"

// contextに入れる識別子のキー
const ctxUserIDKey = "auth_user_id"

type errorResponse struct {
	Error string `json:"error"`
}

// アクセストークンの検証だけを約束する（refresh storeには触らない）
type AccessTokenVerifier interface {
	VerifyAccess(raw string) (token.Claims, error)
}

// AuthJWTはアクセストークン検証ミドルウェア
// cookie優先、無ければAuthorization: Bearerを見る
func AuthJWT(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractAccessToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
			}

			//検証失敗の理由（期限切れ・署名不正・壊れた形式）は区別しない
			claims, err := verifier.VerifyAccess(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid or expired token"})
			}

			//解決した識別子をcontextへ保存
			c.Set(ctxUserIDKey, claims.UserID)

			return next(c)
		}
	}
}

// UserIDFromはガードが保存したユーザーIDを取り出す
func UserIDFrom(c echo.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// cookie → Bearerの順で探す
func extractAccessToken(c echo.Context) string {
	if ck, err := c.Cookie(accessTokenCookie); err == nil && ck != nil && ck.Value != "" {
		return ck.Value
	}

	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return ""
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
