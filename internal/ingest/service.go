// Package ingest handles fire-and-forget writes of raw page-view events and
// inbound lead notifications.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/metrics"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// Service appends events and leads to the tenant-scoped stores.
type Service struct {
	store store.Store
}

// New creates an ingest Service.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// PageViewParams carry one browsing event. SessionID groups events from one
// visit but is not a managed entity.
type PageViewParams struct {
	TenantID   uuid.UUID
	PageURL    string
	Referrer   *string
	UserAgent  *string
	Country    *string
	DeviceType *string
	SessionID  string
	OccurredAt time.Time
}

// RecordPageView appends one event. An event for an unknown tenant is logged
// and dropped, since retrying a malformed event is not productive, and
// store.ErrUnknownTenant is returned so the transport can report it once.
func (s *Service) RecordPageView(ctx context.Context, params PageViewParams) error {
	occurredAt := params.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	err := s.store.InsertPageView(ctx, &models.PageViewEvent{
		ID:         uuid.New(),
		TenantID:   params.TenantID,
		PageURL:    params.PageURL,
		Referrer:   params.Referrer,
		UserAgent:  params.UserAgent,
		Country:    params.Country,
		DeviceType: params.DeviceType,
		SessionID:  params.SessionID,
		CreatedAt:  occurredAt,
	})
	if errors.Is(err, store.ErrUnknownTenant) {
		metrics.PageViewsDropped.Inc()
		slog.Warn("dropping page view for unknown tenant",
			"tenant_id", params.TenantID, "page_url", params.PageURL)
		return err
	}
	if err != nil {
		return err
	}

	metrics.PageViewsIngested.Inc()
	return nil
}

// LeadParams carry one captured lead. All contact fields are optional;
// upstream webhook payloads are caller-defined and frequently sparse.
type LeadParams struct {
	TenantID uuid.UUID
	Name     *string
	Email    *string
	Phone    *string
	Source   string
}

// RecordLead stores one lead notification. Duplicates are kept as-is
// (at-least-once delivery upstream).
func (s *Service) RecordLead(ctx context.Context, params LeadParams) (*models.LeadNotification, error) {
	source := params.Source
	if source == "" {
		source = "website_form"
	}

	lead := &models.LeadNotification{
		ID:        uuid.New(),
		TenantID:  params.TenantID,
		LeadName:  params.Name,
		LeadEmail: params.Email,
		LeadPhone: params.Phone,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertLead(ctx, lead); err != nil {
		return nil, err
	}

	metrics.LeadsCaptured.Inc()
	return lead, nil
}

// RecentEvents returns the tenant's newest events since the given time,
// newest-first, bounded by limit.
func (s *Service) RecentEvents(ctx context.Context, tenantID uuid.UUID, since time.Time, limit int) ([]*models.PageViewEvent, error) {
	return s.store.ListPageViewsSince(ctx, tenantID, since, limit)
}
