// Package collector periodically polls external analytics/CRM systems and
// caches their responses verbatim as AnalyticsSnapshot rows. Payloads are
// never validated or reshaped here; readers parse them defensively.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/config"
	"github.com/mwhitfield/clientpulse/internal/metrics"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// Collector polls the Vercel-class and GoHighLevel-class APIs for every
// tenant that has the corresponding external reference configured.
type Collector struct {
	store    store.Store
	vercel   *resty.Client
	ghl      *resty.Client
	interval time.Duration
}

// New creates a Collector from config. A source with an empty token is
// skipped entirely.
func New(s store.Store, cfg config.CollectorConfig) *Collector {
	c := &Collector{store: s, interval: cfg.Interval}

	if cfg.VercelToken != "" {
		c.vercel = resty.New().
			SetBaseURL(cfg.VercelBaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(3).
			SetRetryWaitTime(1 * time.Second).
			SetRetryMaxWaitTime(5 * time.Second).
			SetAuthToken(cfg.VercelToken).
			SetHeader("Accept", "application/json")
	}
	if cfg.GHLToken != "" {
		c.ghl = resty.New().
			SetBaseURL(cfg.GHLBaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(3).
			SetRetryWaitTime(1 * time.Second).
			SetRetryMaxWaitTime(5 * time.Second).
			SetAuthToken(cfg.GHLToken).
			SetHeader("Accept", "application/json")
	}

	return c
}

// Start runs a poll immediately and then every interval. Blocks until ctx is
// done. Poll failures are logged per tenant/source and never stop the loop.
func (c *Collector) Start(ctx context.Context) {
	c.pollAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollAll(ctx)
		}
	}
}

func (c *Collector) pollAll(ctx context.Context) {
	tenants, err := c.store.ListTenants(ctx)
	if err != nil {
		slog.Error("collector: list tenants", "error", err)
		return
	}

	periodEnd := time.Now().UTC()
	periodStart := periodEnd.Add(-c.interval)

	for _, tenant := range tenants {
		if c.vercel != nil && tenant.VercelProjectID != nil {
			if err := c.pollVercel(ctx, tenant, periodStart, periodEnd); err != nil {
				slog.Error("collector: vercel poll failed", "tenant_id", tenant.ID, "error", err)
			}
		}
		if c.ghl != nil && tenant.GHLContactID != nil {
			if err := c.pollGHL(ctx, tenant, periodStart, periodEnd); err != nil {
				slog.Error("collector: gohighlevel poll failed", "tenant_id", tenant.ID, "error", err)
			}
		}
	}
}

func (c *Collector) pollVercel(ctx context.Context, tenant *models.Tenant, from, to time.Time) error {
	resp, err := c.vercel.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"projectId": *tenant.VercelProjectID,
			"from":      from.Format(time.RFC3339),
			"to":        to.Format(time.RFC3339),
		}).
		Get("/v1/analytics")
	if err != nil {
		return fmt.Errorf("fetch vercel analytics: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("vercel analytics: status %d", resp.StatusCode())
	}
	return c.save(ctx, tenant.ID, models.SnapshotSourceVercel, from, to, resp.Body())
}

func (c *Collector) pollGHL(ctx context.Context, tenant *models.Tenant, from, to time.Time) error {
	resp, err := c.ghl.R().
		SetContext(ctx).
		SetQueryParam("contactId", *tenant.GHLContactID).
		Get("/contacts/search")
	if err != nil {
		return fmt.Errorf("fetch gohighlevel contacts: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gohighlevel contacts: status %d", resp.StatusCode())
	}
	return c.save(ctx, tenant.ID, models.SnapshotSourceGoHighLevel, from, to, resp.Body())
}

func (c *Collector) save(ctx context.Context, tenantID uuid.UUID, source string, from, to time.Time, body []byte) error {
	if !json.Valid(body) {
		return fmt.Errorf("%s returned non-JSON payload", source)
	}

	err := c.store.InsertSnapshot(ctx, &models.AnalyticsSnapshot{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Source:      source,
		PeriodStart: from,
		PeriodEnd:   to,
		Data:        json.RawMessage(body),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	metrics.SnapshotsCollected.WithLabelValues(source).Inc()
	return nil
}
