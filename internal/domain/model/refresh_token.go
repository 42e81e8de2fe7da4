package model

import "time"

// RefreshTokenは発行済みリフレッシュトークン1件
// 平文は保存しない。token_hashだけをDBに持つ
type RefreshToken struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash string    `json:"-" gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expiredは期限切れかどうか（期限切れでもDBに残っている場合がある）
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
