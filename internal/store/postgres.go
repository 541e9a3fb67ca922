package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const tenantColumns = `id, email, name, password_hash, role, company_name,
	stripe_customer_id, ghl_contact_id, vercel_project_id, website_url,
	last_login_at, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Email, &t.Name, &t.PasswordHash, &t.Role, &t.CompanyName,
		&t.StripeCustomerID, &t.GHLContactID, &t.VercelProjectID, &t.WebsiteURL,
		&t.LastLoginAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Tenants ---

func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, email, name, password_hash, role, company_name,
		   stripe_customer_id, ghl_contact_id, vercel_project_id, website_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tenant.ID, tenant.Email, tenant.Name, tenant.PasswordHash, tenant.Role, tenant.CompanyName,
		tenant.StripeCustomerID, tenant.GHLContactID, tenant.VercelProjectID, tenant.WebsiteURL,
		tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, err
}

func (s *PostgresStore) GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE email = $1`, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get tenant by email: %w", err)
	}
	return t, err
}

func (s *PostgresStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *PostgresStore) RecordLogin(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Subscriptions ---

const subscriptionColumns = `id, tenant_id, external_subscription_id, external_price_id,
	status, current_period_start, current_period_end, canceled_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.TenantID, &sub.ExternalSubscriptionID, &sub.ExternalPriceID,
		&sub.Status, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CanceledAt,
		&sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpsertSubscription inserts or updates the row keyed by the processor's
// subscription id. Status and period fields always reflect the latest webhook.
func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (id, tenant_id, external_subscription_id, external_price_id,
		   status, current_period_start, current_period_end, canceled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (external_subscription_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   external_price_id = EXCLUDED.external_price_id,
		   current_period_start = EXCLUDED.current_period_start,
		   current_period_end = EXCLUDED.current_period_end,
		   canceled_at = EXCLUDED.canceled_at,
		   updated_at = NOW()
		 RETURNING `+subscriptionColumns,
		sub.ID, sub.TenantID, sub.ExternalSubscriptionID, sub.ExternalPriceID,
		sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CanceledAt,
		sub.CreatedAt, sub.UpdatedAt)
	result, err := scanSubscription(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownTenant
		}
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) GetSubscriptionByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT 1`, tenantID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get subscription by tenant: %w", err)
	}
	return sub, err
}

// --- Page views ---

const pageViewColumns = `id, tenant_id, page_url, referrer, user_agent, country,
	device_type, session_id, created_at`

func scanPageView(row pgx.Row) (*models.PageViewEvent, error) {
	var e models.PageViewEvent
	err := row.Scan(&e.ID, &e.TenantID, &e.PageURL, &e.Referrer, &e.UserAgent,
		&e.Country, &e.DeviceType, &e.SessionID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) InsertPageView(ctx context.Context, event *models.PageViewEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO page_views (id, tenant_id, page_url, referrer, user_agent, country,
		   device_type, session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.TenantID, event.PageURL, event.Referrer, event.UserAgent,
		event.Country, event.DeviceType, event.SessionID, event.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownTenant
		}
		return fmt.Errorf("insert page view: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPageViewsSince(ctx context.Context, tenantID uuid.UUID, since time.Time, limit int) ([]*models.PageViewEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pageViewColumns+` FROM page_views
		 WHERE tenant_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC LIMIT $3`, tenantID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list page views: %w", err)
	}
	defer rows.Close()

	var events []*models.PageViewEvent
	for rows.Next() {
		e, err := scanPageView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page view: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListPageViewsForDay returns the tenant's events with created_at in
// [day 00:00, day+1 00:00) UTC, ordered by (created_at, id) so the rollup's
// tie-break is stable across reruns.
func (s *PostgresStore) ListPageViewsForDay(ctx context.Context, tenantID uuid.UUID, day time.Time) ([]*models.PageViewEvent, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	rows, err := s.pool.Query(ctx,
		`SELECT `+pageViewColumns+` FROM page_views
		 WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at, id`, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list page views for day: %w", err)
	}
	defer rows.Close()

	var events []*models.PageViewEvent
	for rows.Next() {
		e, err := scanPageView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page view: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PurgeTenantData deletes all per-tenant analytics rows but keeps the tenant,
// its keys, and its billing history. Maintenance operation for seed/reset
// tooling only; assumes no concurrent traffic for the tenant.
func (s *PostgresStore) PurgeTenantData(ctx context.Context, tenantID uuid.UUID) error {
	for _, table := range []string{"page_views", "daily_stats", "lead_notifications", "analytics_snapshots"} {
		if _, err := s.pool.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE tenant_id = $1`, table), tenantID); err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}
	return nil
}

// --- Daily stats ---

const dailyStatColumns = `id, tenant_id, stat_date, page_views_count,
	unique_visitors_count, top_pages, top_referrers, created_at, updated_at`

func scanDailyStat(row pgx.Row) (*models.DailyStat, error) {
	var d models.DailyStat
	err := row.Scan(&d.ID, &d.TenantID, &d.StatDate, &d.PageViewsCount,
		&d.UniqueVisitorsCount, &d.TopPages, &d.TopReferrers, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDailyStat atomically replaces the aggregate fields for the stat's
// (tenant_id, stat_date) pair. The unique constraint plus ON CONFLICT is what
// keeps concurrent rollup runs from creating duplicate rows; never change
// this to a read-then-write pair.
func (s *PostgresStore) UpsertDailyStat(ctx context.Context, stat *models.DailyStat) (*models.DailyStat, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO daily_stats (id, tenant_id, stat_date, page_views_count,
		   unique_visitors_count, top_pages, top_referrers, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (tenant_id, stat_date) DO UPDATE SET
		   page_views_count = EXCLUDED.page_views_count,
		   unique_visitors_count = EXCLUDED.unique_visitors_count,
		   top_pages = EXCLUDED.top_pages,
		   top_referrers = EXCLUDED.top_referrers,
		   updated_at = NOW()
		 RETURNING `+dailyStatColumns,
		stat.ID, stat.TenantID, stat.StatDate, stat.PageViewsCount,
		stat.UniqueVisitorsCount, stat.TopPages, stat.TopReferrers,
		stat.CreatedAt, stat.UpdatedAt)
	result, err := scanDailyStat(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownTenant
		}
		return nil, fmt.Errorf("upsert daily stat: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) ListDailyStats(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DailyStat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+dailyStatColumns+` FROM daily_stats
		 WHERE tenant_id = $1 AND stat_date >= $2 AND stat_date <= $3
		 ORDER BY stat_date`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer rows.Close()

	stats := []*models.DailyStat{}
	for rows.Next() {
		d, err := scanDailyStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		stats = append(stats, d)
	}
	return stats, rows.Err()
}

// --- Leads ---

const leadColumns = `id, tenant_id, lead_name, lead_email, lead_phone, source,
	notified_at, created_at`

func scanLead(row pgx.Row) (*models.LeadNotification, error) {
	var l models.LeadNotification
	err := row.Scan(&l.ID, &l.TenantID, &l.LeadName, &l.LeadEmail, &l.LeadPhone,
		&l.Source, &l.NotifiedAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PostgresStore) InsertLead(ctx context.Context, lead *models.LeadNotification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lead_notifications (id, tenant_id, lead_name, lead_email, lead_phone,
		   source, notified_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lead.ID, lead.TenantID, lead.LeadName, lead.LeadEmail, lead.LeadPhone,
		lead.Source, lead.NotifiedAt, lead.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownTenant
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]*models.LeadNotification, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{filter.TenantID}
	argIdx := 2

	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.From)
		argIdx++
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, filter.To)
		argIdx++
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, filter.Source)
		argIdx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(
		`SELECT `+leadColumns+` FROM lead_notifications WHERE %s
		 ORDER BY created_at DESC LIMIT $%d`,
		strings.Join(conditions, " AND "), argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := []*models.LeadNotification{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// --- Analytics snapshots ---

func (s *PostgresStore) InsertSnapshot(ctx context.Context, snap *models.AnalyticsSnapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analytics_snapshots (id, tenant_id, source, period_start, period_end, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.ID, snap.TenantID, snap.Source, snap.PeriodStart, snap.PeriodEnd,
		snap.Data, snap.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownTenant
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, tenantID uuid.UUID, source string) (*models.AnalyticsSnapshot, error) {
	var snap models.AnalyticsSnapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, source, period_start, period_end, data, created_at
		 FROM analytics_snapshots WHERE tenant_id = $1 AND source = $2
		 ORDER BY created_at DESC LIMIT 1`, tenantID, source,
	).Scan(&snap.ID, &snap.TenantID, &snap.Source, &snap.PeriodStart, &snap.PeriodEnd,
		&snap.Data, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return &snap, nil
}

// --- Brand files ---

func (s *PostgresStore) CreateBrandFile(ctx context.Context, file *models.BrandFile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO brand_files (id, tenant_id, uploaded_by, file_name, file_size,
		   mime_type, category, storage_path, public_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		file.ID, file.TenantID, file.UploadedBy, file.FileName, file.FileSize,
		file.MimeType, file.Category, file.StoragePath, file.PublicURL, file.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownTenant
		}
		return fmt.Errorf("create brand file: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBrandFiles(ctx context.Context, tenantID uuid.UUID) ([]*models.BrandFile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, uploaded_by, file_name, file_size, mime_type, category,
		   storage_path, public_url, created_at
		 FROM brand_files WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list brand files: %w", err)
	}
	defer rows.Close()

	files := []*models.BrandFile{}
	for rows.Next() {
		var f models.BrandFile
		if err := rows.Scan(&f.ID, &f.TenantID, &f.UploadedBy, &f.FileName, &f.FileSize,
			&f.MimeType, &f.Category, &f.StoragePath, &f.PublicURL, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan brand file: %w", err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// --- API Keys ---

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, tenant_id, name, key_hash, key_prefix, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.TenantID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownTenant
		}
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, key_hash, key_prefix, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.TenantID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

// isUniqueViolation checks if a pgx error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isForeignKeyViolation checks if a pgx error is a foreign key violation,
// which on tenant-scoped tables means the tenant does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" // foreign_key_violation
	}
	return false
}
