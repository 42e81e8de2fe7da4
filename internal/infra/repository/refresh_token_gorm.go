package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// リフレッシュトークンを保存。
func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return err
	}
	return nil
}

// (user_id, token_hash)で1件検索します。
// expires_atでは絞らない。期限判定は呼び出し側の責任
func (r *refreshTokenGormRepository) FindLive(ctx context.Context, userID string, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", userID, tokenHash).
		First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, err
	}

	return &token, nil
}

// 条件付き削除。削除件数で「自分が消せたか」を返す
// 同じトークンの同時ローテーションでは片方だけが1件削除に成功する
func (r *refreshTokenGormRepository) Consume(ctx context.Context, tokenID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", tokenID).
		Delete(&model.RefreshToken{})

	if result.Error != nil {
		return false, result.Error
	}

	// 0件削除は「既にローテーション済み/存在しない」。エラーではない
	return result.RowsAffected > 0, nil
}
