package repository

import (
	"app/internal/domain/model"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・検索・消費
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	// (userID, tokenHash)で1件検索。期限のフィルタはしない（呼び出し側で判定）
	FindLive(ctx context.Context, userID string, tokenHash string) (*model.RefreshToken, error)
	// 条件付き削除。既に消えていた場合はfalse（エラーにはしない）
	// 同じトークンで同時にローテーションが来ても、成功するのは1回だけ
	Consume(ctx context.Context, tokenID string) (bool, error)
}

// HashTokenは平文リフレッシュトークンの一方向ダイジェスト
// DBにはこの値だけを保存する（逆変換はしない）
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
