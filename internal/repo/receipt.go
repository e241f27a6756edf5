// Package repo – submission receipts.
//
// A delivered lead stores its delivery flags under (scope, key) so a retried
// POST /api/lead carrying the same Idempotency-Key is answered from the
// receipt instead of being delivered twice.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitx-studio/landing-backend/internal/domain"
)

// glebarez/sqlite reports UNIQUE violations as plain text.
var uniqueViolationText = []string{
	"unique constraint failed",
	"constraint failed: unique",
}

// GetReceipt returns the live receipt for (scope, key) or ErrNotFound.
func GetReceipt(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.LeadReceipt, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	rec := new(domain.LeadReceipt)
	if err := liveReceipts(db.WithContext(ctx), now).
		Where("scope = ? AND key = ?", scope, key).
		Take(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateReceipt records a delivered submission valid for ttl. A second
// receipt for the same (scope, key) yields ErrDuplicate.
func CreateReceipt(ctx context.Context, db *gorm.DB, scope, key string, status int, d domain.Delivered, ttl time.Duration) (*domain.LeadReceipt, error) {
	created := time.Now().UTC()
	rec := &domain.LeadReceipt{
		ID:        uuid.NewString(),
		Scope:     scope,
		Key:       key,
		Status:    status,
		Telegram:  d.Telegram,
		Email:     d.Email,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}
	err := db.WithContext(ctx).Create(rec).Error
	switch {
	case err == nil:
		return rec, nil
	case isUniqueViolation(err):
		return nil, ErrDuplicate
	default:
		return nil, err
	}
}

// PurgeExpiredReceipts removes receipts whose expiry is at or before now.
func PurgeExpiredReceipts(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.LeadReceipt{})
	return res.RowsAffected, res.Error
}

func liveReceipts(tx *gorm.DB, now time.Time) *gorm.DB {
	return tx.Where("expires_at > ?", now)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range uniqueViolationText {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
