package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
	SubscriptionTrialing = "trialing"
	SubscriptionUnpaid   = "unpaid"
)

// Subscription mirrors a tenant's billing state with the external payment
// processor. Status transitions are pushed by the processor's webhook; nothing
// in this codebase computes them locally. Rows are never deleted; they are
// the historical billing record.
type Subscription struct {
	ID                     uuid.UUID  `db:"id"                       json:"id"`
	TenantID               uuid.UUID  `db:"tenant_id"                json:"tenant_id"`
	ExternalSubscriptionID string     `db:"external_subscription_id" json:"external_subscription_id"`
	ExternalPriceID        *string    `db:"external_price_id"        json:"external_price_id,omitempty"`
	Status                 string     `db:"status"                   json:"status"`
	CurrentPeriodStart     *time.Time `db:"current_period_start"     json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `db:"current_period_end"       json:"current_period_end,omitempty"`
	CanceledAt             *time.Time `db:"canceled_at"              json:"canceled_at,omitempty"`
	CreatedAt              time.Time  `db:"created_at"               json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"               json:"updated_at"`
}

// ValidSubscriptionStatus reports whether s is one of the processor statuses
// this schema accepts.
func ValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled,
		SubscriptionTrialing, SubscriptionUnpaid:
		return true
	}
	return false
}
