package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	SnapshotSourceVercel      = "vercel"
	SnapshotSourceGoHighLevel = "gohighlevel"
)

// AnalyticsSnapshot caches one third-party analytics/CRM query response
// verbatim. Data is opaque to this service; consumers must parse defensively.
type AnalyticsSnapshot struct {
	ID          uuid.UUID       `db:"id"           json:"id"`
	TenantID    uuid.UUID       `db:"tenant_id"    json:"tenant_id"`
	Source      string          `db:"source"       json:"source"`
	PeriodStart time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time       `db:"period_end"   json:"period_end"`
	Data        json.RawMessage `db:"data"         json:"data"`
	CreatedAt   time.Time       `db:"created_at"   json:"created_at"`
}
