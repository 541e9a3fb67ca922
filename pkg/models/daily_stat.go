package models

import (
	"time"

	"github.com/google/uuid"
)

// PageCount is one entry of a DailyStat top-pages list.
type PageCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// ReferrerCount is one entry of a DailyStat top-referrers list. Events with a
// missing or empty referrer are folded into the canonical "(direct)" label.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
}

// DirectReferrer is the canonical label for page views with no referrer.
const DirectReferrer = "(direct)"

// DailyStat is one tenant's traffic summary for one calendar day (UTC).
// Exactly one row exists per (tenant, date); reruns of the rollup replace the
// aggregate fields rather than accumulating into them.
type DailyStat struct {
	ID                  uuid.UUID       `db:"id"                    json:"id"`
	TenantID            uuid.UUID       `db:"tenant_id"             json:"tenant_id"`
	StatDate            time.Time       `db:"stat_date"             json:"stat_date"`
	PageViewsCount      int             `db:"page_views_count"      json:"page_views_count"`
	UniqueVisitorsCount int             `db:"unique_visitors_count" json:"unique_visitors_count"`
	TopPages            []PageCount     `db:"top_pages"             json:"top_pages"`
	TopReferrers        []ReferrerCount `db:"top_referrers"         json:"top_referrers"`
	CreatedAt           time.Time       `db:"created_at"            json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"            json:"updated_at"`
}
