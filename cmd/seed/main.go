// Package main seeds a demo tenant with 30 days of synthetic traffic, leads,
// and rolled-up daily stats. Idempotent: reruns purge the demo tenant's
// analytics data before inserting. Run it with no concurrent traffic against
// the demo tenant.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/config"
	"github.com/mwhitfield/clientpulse/internal/registry"
	"github.com/mwhitfield/clientpulse/internal/rollup"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoEmail    = "demo@clientpulse.dev"
	demoPassword = "demo-password-change-me"
	demoAPIKey   = "cp_demo00000000000000000000000000000000000000000000"
	seedDays     = 30
)

var (
	seedPages = []string{"/", "/services", "/about", "/pricing", "/tax-planning", "/contact", "/blog/tax-season-checklist"}

	seedReferrers = []*string{
		nil, nil, nil, // direct traffic dominates
		ptr("https://www.google.com/"),
		ptr("https://www.linkedin.com/"),
		ptr("https://www.facebook.com/"),
	}

	seedDevices = []string{models.DeviceDesktop, models.DeviceDesktop, models.DeviceMobile, models.DeviceTablet}

	seedLeadSources = []string{"website_form", "ghl_workflow", "referral"}
)

func ptr(s string) *string { return &s }

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pgStore := store.NewPostgresStore(pool)

	tenant, err := ensureDemoTenant(ctx, pgStore)
	if err != nil {
		return err
	}
	slog.Info("demo tenant ready", "tenant_id", tenant.ID, "email", tenant.Email)

	if err := ensureDemoAPIKey(ctx, pgStore, tenant.ID); err != nil {
		return err
	}

	if err := pgStore.PurgeTenantData(ctx, tenant.ID); err != nil {
		return fmt.Errorf("purge demo tenant data: %w", err)
	}

	// Deterministic data so reruns produce the same shape
	rng := rand.New(rand.NewSource(42))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	engine := rollup.NewEngine(pgStore, rollup.DefaultTopN)

	for i := seedDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		if err := seedDay(ctx, pgStore, rng, tenant.ID, day); err != nil {
			return fmt.Errorf("seed %s: %w", day.Format("2006-01-02"), err)
		}
		if err := engine.RunTenantDay(ctx, tenant.ID, day); err != nil {
			return fmt.Errorf("rollup %s: %w", day.Format("2006-01-02"), err)
		}
	}

	slog.Info("seed complete", "days", seedDays, "tenant_id", tenant.ID)
	return nil
}

func ensureDemoTenant(ctx context.Context, s store.Store) (*models.Tenant, error) {
	tenant, err := s.GetTenantByEmail(ctx, demoEmail)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("look up demo tenant: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), registry.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	return registry.New(s).CreateTenant(ctx, registry.CreateTenantParams{
		Email:          demoEmail,
		Name:           "Demo Advisor",
		HashedPassword: string(hash),
		Role:           models.RoleClient,
		CompanyName:    "Hillcrest Tax & Advisory",
		WebsiteURL:     ptr("https://demo.clientpulse.dev"),
	})
}

// ensureDemoAPIKey registers the well-known demo key so local clients can
// authenticate without an admin round trip. The raw value is fixed and
// documented; never seed it into a real environment.
func ensureDemoAPIKey(ctx context.Context, s store.Store, tenantID uuid.UUID) error {
	existing, err := s.GetAPIKeyByPrefix(ctx, demoAPIKey[:8])
	if err != nil {
		return fmt.Errorf("look up demo api key: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoAPIKey), registry.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash demo api key: %w", err)
	}

	now := time.Now().UTC()
	err = s.CreateAPIKey(ctx, &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "demo key",
		KeyHash:   string(hash),
		KeyPrefix: demoAPIKey[:8],
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("create demo api key: %w", err)
	}

	slog.Info("demo api key created", "key", demoAPIKey)
	return nil
}

func seedDay(ctx context.Context, s store.Store, rng *rand.Rand, tenantID uuid.UUID, day time.Time) error {
	views := 20 + rng.Intn(60)
	sessions := 5 + rng.Intn(20)

	for v := 0; v < views; v++ {
		device := seedDevices[rng.Intn(len(seedDevices))]
		event := &models.PageViewEvent{
			ID:         uuid.New(),
			TenantID:   tenantID,
			PageURL:    seedPages[rng.Intn(len(seedPages))],
			Referrer:   seedReferrers[rng.Intn(len(seedReferrers))],
			UserAgent:  ptr("Mozilla/5.0 (seed)"),
			Country:    ptr("US"),
			DeviceType: &device,
			SessionID:  fmt.Sprintf("seed-%s-%d", day.Format("20060102"), rng.Intn(sessions)),
			CreatedAt:  day.Add(time.Duration(rng.Intn(24*60)) * time.Minute),
		}
		if err := s.InsertPageView(ctx, event); err != nil {
			return err
		}
	}

	for l := 0; l < rng.Intn(3); l++ {
		lead := &models.LeadNotification{
			ID:        uuid.New(),
			TenantID:  tenantID,
			LeadName:  ptr(fmt.Sprintf("Prospect %s-%d", day.Format("0102"), l)),
			LeadEmail: ptr(fmt.Sprintf("prospect-%s-%d@example.com", day.Format("20060102"), l)),
			Source:    seedLeadSources[rng.Intn(len(seedLeadSources))],
			CreatedAt: day.Add(time.Duration(rng.Intn(24*60)) * time.Minute),
		}
		if err := s.InsertLead(ctx, lead); err != nil {
			return err
		}
	}

	return nil
}
