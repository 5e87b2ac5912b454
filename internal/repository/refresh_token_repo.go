package repository

import (
	"context"
	"errors"
	"time"

	"fieldops/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	tx := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id int64, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("id = ?", id).
		Updates(map[string]any{"revoked_at": now}).Error
}

func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Updates(map[string]any{"revoked_at": now}).Error
}

// Rotate marks the current token used and creates its successor inside a
// transaction, locking the current row so a reused token is detected
// rather than silently honored twice.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, currentHash string, next *domain.RefreshToken, now time.Time) (*domain.RefreshToken, error) {
	var current domain.RefreshToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_hash = ?", currentHash).
			First(&current).Error; err != nil {
			return err
		}

		if !current.ExpiresAt.After(now) {
			return gorm.ErrRecordNotFound
		}

		if current.UsedAt != nil || current.RevokedAt != nil {
			if err := tx.Model(&domain.RefreshToken{}).
				Where("family_id = ? AND revoked_at IS NULL", current.FamilyID).
				Updates(map[string]any{"revoked_at": now}).Error; err != nil {
				return err
			}
			return ErrTokenReused
		}

		if err := tx.Model(&domain.RefreshToken{}).
			Where("id = ?", current.ID).
			Updates(map[string]any{"used_at": now, "revoked_at": now}).Error; err != nil {
			return err
		}

		next.UserID = current.UserID
		next.FamilyID = current.FamilyID
		next.RotatedFrom = &current.ID
		return tx.Create(next).Error
	})
	if err != nil {
		return nil, err
	}
	return &current, nil
}

var ErrTokenReused = errors.New("refresh token reuse detected")
