package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateKey   = errors.New("duplicate key violation")
	ErrUnknownTenant  = errors.New("unknown tenant")
)

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	RecordLogin(ctx context.Context, id uuid.UUID) error
	DeleteTenant(ctx context.Context, id uuid.UUID) error

	UpsertSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	GetSubscriptionByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)

	InsertPageView(ctx context.Context, event *models.PageViewEvent) error
	ListPageViewsSince(ctx context.Context, tenantID uuid.UUID, since time.Time, limit int) ([]*models.PageViewEvent, error)
	ListPageViewsForDay(ctx context.Context, tenantID uuid.UUID, day time.Time) ([]*models.PageViewEvent, error)
	PurgeTenantData(ctx context.Context, tenantID uuid.UUID) error

	UpsertDailyStat(ctx context.Context, stat *models.DailyStat) (*models.DailyStat, error)
	ListDailyStats(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DailyStat, error)

	InsertLead(ctx context.Context, lead *models.LeadNotification) error
	ListLeads(ctx context.Context, filter LeadFilter) ([]*models.LeadNotification, error)

	InsertSnapshot(ctx context.Context, snap *models.AnalyticsSnapshot) error
	LatestSnapshot(ctx context.Context, tenantID uuid.UUID, source string) (*models.AnalyticsSnapshot, error)

	CreateBrandFile(ctx context.Context, file *models.BrandFile) error
	ListBrandFiles(ctx context.Context, tenantID uuid.UUID) ([]*models.BrandFile, error)

	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
}

// LeadFilter narrows a lead listing. Zero-value fields are ignored except
// TenantID, which is always required.
type LeadFilter struct {
	TenantID uuid.UUID
	From     time.Time
	To       time.Time
	Source   string
	Limit    int
}
