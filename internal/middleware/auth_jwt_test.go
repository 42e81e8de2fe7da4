package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/token"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type mwErrorResponse struct {
	Error string `json:"error"`
}

func newGuardedEcho(codec *token.Codec) *echo.Echo {
	e := echo.New()

	//ガードを通ったらcontextのユーザーIDをそのまま返す
	e.GET("/protected", func(c echo.Context) error {
		userID, ok := middleware.UserIDFrom(c)
		if !ok {
			return c.String(http.StatusInternalServerError, "no identity in context")
		}
		return c.String(http.StatusOK, userID)
	}, middleware.AuthJWT(codec))

	return e
}

func testCodec() *token.Codec {
	return token.NewCodec(config.Config{
		JWTAccessSecret:  "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  14 * 24 * time.Hour,
	})
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func TestAuthJWT_MissingToken(t *testing.T) {
	e := newGuardedEcho(testCodec())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decodeMWError(t, rec).Error)
}

func TestAuthJWT_CookieToken(t *testing.T) {
	codec := testCodec()
	e := newGuardedEcho(codec)

	access, err := codec.SignAccess("u-1")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String())
}

func TestAuthJWT_BearerToken(t *testing.T) {
	codec := testCodec()
	e := newGuardedEcho(codec)

	access, err := codec.SignAccess("u-2")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-2", rec.Body.String())
}

func TestAuthJWT_InvalidToken(t *testing.T) {
	codec := testCodec()
	e := newGuardedEcho(codec)

	//壊れたトークン・refresh鍵のトークン・Bearer形式違反はすべて同じ401
	refresh, err := codec.SignRefresh("u-1")
	assert.NoError(t, err)

	cases := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{name: "garbage cookie", setup: func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "access_token", Value: "not-a-jwt"})
		}},
		{name: "refresh token as access", setup: func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "access_token", Value: refresh})
		}},
		{name: "tampered bearer", setup: func(req *http.Request) {
			access, _ := codec.SignAccess("u-1")
			req.Header.Set("Authorization", "Bearer "+access+"x")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Invalid or expired token", decodeMWError(t, rec).Error)
		})
	}
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	cfg := config.Config{
		JWTAccessSecret:  "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		AccessTokenTTL:   -time.Minute,
		RefreshTokenTTL:  14 * 24 * time.Hour,
	}
	expiredCodec := token.NewCodec(cfg)
	e := newGuardedEcho(expiredCodec)

	access, err := expiredCodec.SignAccess("u-1")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeMWError(t, rec).Error)
}

func TestAuthJWT_MalformedBearerScheme(t *testing.T) {
	codec := testCodec()
	e := newGuardedEcho(codec)

	access, err := codec.SignAccess("u-1")
	assert.NoError(t, err)

	//Bearer以外のスキームはトークン無し扱い
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic "+access)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decodeMWError(t, rec).Error)
}
