package models

import (
	"time"

	"github.com/google/uuid"
)

// LeadNotification records one inbound lead captured for a tenant. Upstream
// delivery is at-least-once; duplicates are stored as-is, never merged.
// NotifiedAt distinguishes "captured" from "tenant has been notified".
type LeadNotification struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	TenantID   uuid.UUID  `db:"tenant_id"   json:"tenant_id"`
	LeadName   *string    `db:"lead_name"   json:"lead_name,omitempty"`
	LeadEmail  *string    `db:"lead_email"  json:"lead_email,omitempty"`
	LeadPhone  *string    `db:"lead_phone"  json:"lead_phone,omitempty"`
	Source     string     `db:"source"      json:"source"`
	NotifiedAt *time.Time `db:"notified_at" json:"notified_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
}
