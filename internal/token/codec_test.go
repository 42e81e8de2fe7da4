package token_test

import (
	"testing"
	"time"

	"app/internal/config"
	"app/internal/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func testConfig() config.Config {
	return config.Config{
		JWTAccessSecret:  "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  14 * 24 * time.Hour,
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := token.NewCodec(testConfig())

	access, err := c.SignAccess("user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, access)

	refresh, err := c.SignRefresh("user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, refresh)

	//署名した鍵で検証できる
	claims, err := c.VerifyAccess(access)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	claims, err = c.VerifyRefresh(refresh)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestCodec_SecretIsolation(t *testing.T) {
	c := token.NewCodec(testConfig())

	access, err := c.SignAccess("user-1")
	assert.NoError(t, err)

	refresh, err := c.SignRefresh("user-1")
	assert.NoError(t, err)

	//access鍵のトークンはrefresh側では通らない（逆も同じ）
	_, err = c.VerifyRefresh(access)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = c.VerifyAccess(refresh)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestCodec_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -1 * time.Minute
	cfg.RefreshTokenTTL = -1 * time.Minute

	c := token.NewCodec(cfg)

	access, err := c.SignAccess("user-1")
	assert.NoError(t, err)

	refresh, err := c.SignRefresh("user-1")
	assert.NoError(t, err)

	_, err = c.VerifyAccess(access)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = c.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestCodec_Garbage(t *testing.T) {
	c := token.NewCodec(testConfig())

	for _, raw := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		_, err := c.VerifyAccess(raw)
		assert.ErrorIs(t, err, token.ErrInvalidToken)

		_, err = c.VerifyRefresh(raw)
		assert.ErrorIs(t, err, token.ErrInvalidToken)
	}
}

func TestCodec_RejectsNoneAlgorithm(t *testing.T) {
	c := token.NewCodec(testConfig())

	//alg=noneの細工トークンは署名無しでも拒否される
	claims := jwt.MapClaims{
		"userId": "user-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = c.VerifyAccess(raw)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestCodec_RejectsMissingUserID(t *testing.T) {
	cfg := testConfig()
	c := token.NewCodec(cfg)

	//正しい鍵で署名されていてもuserIdが無ければ無効
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := signed.SignedString([]byte(cfg.JWTAccessSecret))
	assert.NoError(t, err)

	_, err = c.VerifyAccess(raw)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}
