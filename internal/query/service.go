// Package query is the read layer for dashboard rendering. Every operation
// checks the caller's tenant identity before touching any rows: a non-admin
// caller may only read its own tenant's data.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/cache"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// ErrUnauthorized is returned when a non-admin caller targets another tenant.
var ErrUnauthorized = errors.New("cross-tenant access denied")

// Identity is the authenticated caller, resolved by the auth middleware.
type Identity struct {
	TenantID uuid.UUID
	Role     string
}

// Admin reports whether the identity may read any tenant's data.
func (id Identity) Admin() bool {
	return id.Role == models.RoleAdmin
}

const statsCacheTTL = 60 * time.Second

// Service provides read-only access over daily stats, raw events, and leads.
type Service struct {
	store store.Store
	cache cache.Cache
}

// New creates a query Service. cache may be nil, in which case stats responses
// are not cached.
func New(s store.Store, c cache.Cache) *Service {
	return &Service{store: s, cache: c}
}

func (s *Service) authorize(caller Identity, tenantID uuid.UUID) error {
	if caller.TenantID != tenantID && !caller.Admin() {
		return ErrUnauthorized
	}
	return nil
}

// DailyStats returns the tenant's daily aggregates within [from, to],
// ascending by date. An empty range yields an empty slice, not an error.
// Results are cached briefly; authorization is checked before the cache is
// consulted.
func (s *Service) DailyStats(ctx context.Context, caller Identity, tenantID uuid.UUID, from, to time.Time) ([]*models.DailyStat, error) {
	if err := s.authorize(caller, tenantID); err != nil {
		return nil, err
	}

	key := cache.DailyStatsKey(tenantID, from, to)
	if s.cache != nil {
		if raw, found, err := s.cache.Get(ctx, key); err == nil && found {
			var stats []*models.DailyStat
			if json.Unmarshal(raw, &stats) == nil {
				return stats, nil
			}
		}
	}

	stats, err := s.store.ListDailyStats(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			// Best effort; a cache write failure never fails the read.
			_ = s.cache.Set(ctx, key, raw, statsCacheTTL)
		}
	}
	return stats, nil
}

const (
	ActivityPageView = "page_view"
	ActivityLead     = "lead"
)

// ActivityItem is one entry of the merged recent-activity feed.
type ActivityItem struct {
	Type       string                   `json:"type"`
	OccurredAt time.Time                `json:"occurred_at"`
	PageView   *models.PageViewEvent    `json:"page_view,omitempty"`
	Lead       *models.LeadNotification `json:"lead,omitempty"`
}

// RecentActivity merges the tenant's newest page views and leads into one
// reverse-chronological feed truncated to limit. This is the only
// cross-entity read in the system.
func (s *Service) RecentActivity(ctx context.Context, caller Identity, tenantID uuid.UUID, limit int) ([]ActivityItem, error) {
	if err := s.authorize(caller, tenantID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	since := time.Now().UTC().AddDate(0, 0, -30)
	events, err := s.store.ListPageViewsSince(ctx, tenantID, since, limit)
	if err != nil {
		return nil, err
	}
	leads, err := s.store.ListLeads(ctx, store.LeadFilter{TenantID: tenantID, From: since, Limit: limit})
	if err != nil {
		return nil, err
	}

	items := make([]ActivityItem, 0, len(events)+len(leads))
	for _, e := range events {
		items = append(items, ActivityItem{Type: ActivityPageView, OccurredAt: e.CreatedAt, PageView: e})
	}
	for _, l := range leads {
		items = append(items, ActivityItem{Type: ActivityLead, OccurredAt: l.CreatedAt, Lead: l})
	}

	sortActivity(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Leads returns the tenant's lead notifications within [from, to], newest
// first, optionally filtered by source tag.
func (s *Service) Leads(ctx context.Context, caller Identity, tenantID uuid.UUID, from, to time.Time, source string) ([]*models.LeadNotification, error) {
	if err := s.authorize(caller, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListLeads(ctx, store.LeadFilter{
		TenantID: tenantID,
		From:     from,
		To:       to,
		Source:   source,
	})
}

// LatestSnapshot returns the tenant's most recent cached third-party
// analytics payload for the given source.
func (s *Service) LatestSnapshot(ctx context.Context, caller Identity, tenantID uuid.UUID, source string) (*models.AnalyticsSnapshot, error) {
	if err := s.authorize(caller, tenantID); err != nil {
		return nil, err
	}
	return s.store.LatestSnapshot(ctx, tenantID, source)
}

// BrandFiles returns the tenant's uploaded asset metadata, newest first.
func (s *Service) BrandFiles(ctx context.Context, caller Identity, tenantID uuid.UUID) ([]*models.BrandFile, error) {
	if err := s.authorize(caller, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListBrandFiles(ctx, tenantID)
}
