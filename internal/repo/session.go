package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openclaw/pokerhall/internal/models"
)

// StoreRefreshSession overwrites the user's session state with a new hash and
// expiry. Any previously issued refresh token becomes dead at this point.
func (r *GormRepo) StoreRefreshSession(ctx context.Context, userID uint, hash string, expiresAt time.Time) error {
	result := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"refresh_token_hash":       hash,
			"refresh_token_expires_at": expiresAt,
		})
	if result.Error != nil {
		return fmt.Errorf("store refresh session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRefreshSession nulls both session columns together. Clearing an
// already-clear session is a no-op, which keeps logout idempotent.
func (r *GormRepo) ClearRefreshSession(ctx context.Context, userID uint) error {
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"refresh_token_hash":       nil,
			"refresh_token_expires_at": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("clear refresh session: %w", err)
	}
	return nil
}

// RotateRefreshSession swaps oldHash for newHash inside a transaction,
// compare-and-swap style: if another rotation got there first the stored hash
// no longer matches and the caller gets ErrStaleSession instead of silently
// clobbering the concurrent winner's session.
func (r *GormRepo) RotateRefreshSession(ctx context.Context, userID uint, oldHash, newHash string, expiresAt time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ? AND refresh_token_hash = ?", userID, oldHash).
			Updates(map[string]any{
				"refresh_token_hash":       newHash,
				"refresh_token_expires_at": expiresAt,
			})
		if result.Error != nil {
			return fmt.Errorf("rotate refresh session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStaleSession
		}
		return nil
	})
}
