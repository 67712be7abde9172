package model

import (
	"time"
)

// Conversion is a payment event produced by webhook ingestion. LinkID is
// null until attribution succeeds; the StripeInvoiceID unique constraint is
// the natural idempotency key for duplicate webhook deliveries.
type Conversion struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ClientID        uint      `json:"client_id" gorm:"index;not null"`
	LinkID          *uint     `json:"link_id,omitempty" gorm:"index"`
	AmountPaid      float64   `json:"amount_paid"`
	Currency        string    `json:"currency" gorm:"size:8"`
	PaidAt          time.Time `json:"paid_at" gorm:"index;not null"`
	StripeInvoiceID string    `json:"stripe_invoice_id" gorm:"uniqueIndex;not null"`
	AffiliateCode   string    `json:"affiliate_code"`
	CreatedAt       time.Time `json:"created_at"`
}

// Linked reports whether the conversion already has an attributed link.
func (c *Conversion) Linked() bool {
	return c.LinkID != nil
}
