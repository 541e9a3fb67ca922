package rollup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/metrics"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// Engine runs the daily aggregation. Each (tenant, day) pair is one unit of
// work; a failing unit never aborts the others and is simply retried on the
// next scheduled run; the database upsert makes reruns idempotent.
type Engine struct {
	store store.Store
	topN  int
}

// NewEngine creates a rollup Engine. topN bounds the top-pages and
// top-referrers lists.
func NewEngine(s store.Store, topN int) *Engine {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Engine{store: s, topN: topN}
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// RunTenantDay aggregates one tenant's events for one UTC day and upserts the
// DailyStat row for (tenant, day).
func (e *Engine) RunTenantDay(ctx context.Context, tenantID uuid.UUID, day time.Time) error {
	day = Day(day)

	events, err := e.store.ListPageViewsForDay(ctx, tenantID, day)
	if err != nil {
		return fmt.Errorf("load events for %s/%s: %w", tenantID, day.Format("2006-01-02"), err)
	}

	agg := Aggregate(events, e.topN)

	now := time.Now().UTC()
	_, err = e.store.UpsertDailyStat(ctx, &models.DailyStat{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		StatDate:            day,
		PageViewsCount:      agg.PageViews,
		UniqueVisitorsCount: agg.UniqueVisitors,
		TopPages:            agg.TopPages,
		TopReferrers:        agg.TopReferrers,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		return fmt.Errorf("upsert daily stat for %s/%s: %w", tenantID, day.Format("2006-01-02"), err)
	}
	return nil
}

// RunDay rolls up the given day for every tenant. Failures are isolated per
// tenant: each is logged and counted, and the joined error is returned after
// all tenants have been attempted.
func (e *Engine) RunDay(ctx context.Context, day time.Time) error {
	tenants, err := e.store.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	var errs []error
	for _, tenant := range tenants {
		metrics.RollupRuns.Inc()
		if err := e.RunTenantDay(ctx, tenant.ID, day); err != nil {
			metrics.RollupFailures.Inc()
			slog.Error("rollup unit failed", "tenant_id", tenant.ID,
				"day", Day(day).Format("2006-01-02"), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start launches the rollup scheduler: an immediate run for today and
// yesterday, then a refresh every interval. The overlap between runs is safe
// because every unit is an idempotent upsert. Blocks until ctx is done.
func (e *Engine) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	run := func() {
		now := time.Now().UTC()
		// Yesterday first so the completed day is finalized before the
		// in-progress one is refreshed.
		if err := e.RunDay(ctx, now.AddDate(0, 0, -1)); err != nil {
			slog.Error("rollup run incomplete", "error", err)
		}
		if err := e.RunDay(ctx, now); err != nil {
			slog.Error("rollup run incomplete", "error", err)
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
