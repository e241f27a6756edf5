package domain

import "time"

// LeadReceipt records the outcome of a delivered submission under a client
// supplied Idempotency-Key, keyed by (scope, key). A retried request carrying
// the same key replays the stored outcome instead of delivering the lead a
// second time.
//
// Only delivery flags are kept. Lead content is never written to storage.
type LeadReceipt struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_receipt_scope_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_receipt_scope_key,priority:2"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	Telegram  bool      `gorm:"not null;default:false"`
	Email     bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (LeadReceipt) TableName() string { return "lead_receipts" }

// Delivered returns the stored delivery flags.
func (r LeadReceipt) Delivered() Delivered {
	return Delivered{Telegram: r.Telegram, Email: r.Email}
}
