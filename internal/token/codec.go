package token

import (
	"errors"
	"time"

	"app/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 署名不正・期限切れ・形式不正はすべてこの1つに畳む
// 呼び出し側が内部事情をレスポンスへ漏らさないため
var ErrInvalidToken = errors.New("invalid or expired token")

// Claimsはアクセス/リフレッシュ共通のペイロード
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Codecは2種類のBearerトークンを署名・検証する（状態は持たない）
// accessとrefreshは別シークレット。accessの鍵が漏れてもrefreshは偽造できない
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(cfg config.Config) *Codec {
	return &Codec{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

// SignAccessはアクセストークンを発行する（exp = now + accessTTL）
func (c *Codec) SignAccess(userID string) (string, error) {
	return sign(userID, c.accessSecret, c.accessTTL)
}

// SignRefreshはリフレッシュトークンを発行する（exp = now + refreshTTL）
func (c *Codec) SignRefresh(userID string) (string, error) {
	return sign(userID, c.refreshSecret, c.refreshTTL)
}

// VerifyAccessはアクセストークンを検証してペイロードを返す
// 失敗理由は区別せずErrInvalidToken
func (c *Codec) VerifyAccess(raw string) (Claims, error) {
	return verify(raw, c.accessSecret)
}

// VerifyRefreshはリフレッシュトークンを検証してペイロードを返す
func (c *Codec) VerifyRefresh(raw string) (Claims, error) {
	return verify(raw, c.refreshSecret)
}

func sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			//同じ秒に同じユーザーへ発行しても別の文字列になるようjtiを入れる
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func verify(raw string, secret []byte) (Claims, error) {
	var claims Claims

	t, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		//HS256以外は受け付けない
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || t == nil || !t.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
