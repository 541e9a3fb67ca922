package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// PageViewEvent is one raw browsing event. Events are append-only and
// immutable; the rollup engine reads them to build DailyStat rows.
type PageViewEvent struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	TenantID   uuid.UUID `db:"tenant_id"   json:"tenant_id"`
	PageURL    string    `db:"page_url"    json:"page_url"`
	Referrer   *string   `db:"referrer"    json:"referrer,omitempty"`
	UserAgent  *string   `db:"user_agent"  json:"user_agent,omitempty"`
	Country    *string   `db:"country"     json:"country,omitempty"`
	DeviceType *string   `db:"device_type" json:"device_type,omitempty"`
	SessionID  string    `db:"session_id"  json:"session_id"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}
