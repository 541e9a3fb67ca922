// Package registry is the authoritative mapping from login credential to
// tenant identity, role, and billing state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the hashing cost used for tenant passwords and API keys.
const BcryptCost = 12

var ErrInvalidCredentials = errors.New("invalid email or password")

// Registry manages tenants and their billing state.
type Registry struct {
	store store.Store
}

// New creates a Registry backed by the given store.
func New(s store.Store) *Registry {
	return &Registry{store: s}
}

// CreateTenantParams are the inputs to CreateTenant. HashedPassword must
// already be a bcrypt hash; the registry never sees plaintext passwords on
// this path.
type CreateTenantParams struct {
	Email          string
	Name           string
	HashedPassword string
	Role           string
	CompanyName    string
	WebsiteURL     *string
}

// CreateTenant registers a new tenant. Returns store.ErrDuplicateEmail if the
// email is already taken.
func (r *Registry) CreateTenant(ctx context.Context, params CreateTenantParams) (*models.Tenant, error) {
	if params.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	role := params.Role
	if role == "" {
		role = models.RoleClient
	}
	if role != models.RoleAdmin && role != models.RoleClient {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	now := time.Now().UTC()
	tenant := &models.Tenant{
		ID:           uuid.New(),
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: params.HashedPassword,
		Role:         role,
		CompanyName:  params.CompanyName,
		WebsiteURL:   params.WebsiteURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.store.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// RecordLogin stamps the tenant's last login time.
func (r *Registry) RecordLogin(ctx context.Context, tenantID uuid.UUID) error {
	return r.store.RecordLogin(ctx, tenantID)
}

// VerifyCredentials checks an email/password pair against the stored bcrypt
// hash and records the login on success. Returns ErrInvalidCredentials for
// both unknown email and wrong password so callers cannot probe for accounts.
func (r *Registry) VerifyCredentials(ctx context.Context, email, password string) (*models.Tenant, error) {
	tenant, err := r.store.GetTenantByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if err := r.store.RecordLogin(ctx, tenant.ID); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return tenant, nil
}

// UpsertSubscriptionParams mirror one billing-processor webhook event.
type UpsertSubscriptionParams struct {
	TenantID               uuid.UUID
	ExternalSubscriptionID string
	ExternalPriceID        *string
	Status                 string
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	CanceledAt             *time.Time
}

// UpsertSubscription creates or updates the subscription row keyed by the
// external subscription id. Returns store.ErrUnknownTenant if the tenant does
// not exist.
func (r *Registry) UpsertSubscription(ctx context.Context, params UpsertSubscriptionParams) (*models.Subscription, error) {
	if params.ExternalSubscriptionID == "" {
		return nil, fmt.Errorf("external subscription id is required")
	}
	if !models.ValidSubscriptionStatus(params.Status) {
		return nil, fmt.Errorf("invalid subscription status %q", params.Status)
	}

	now := time.Now().UTC()
	return r.store.UpsertSubscription(ctx, &models.Subscription{
		ID:                     uuid.New(),
		TenantID:               params.TenantID,
		ExternalSubscriptionID: params.ExternalSubscriptionID,
		ExternalPriceID:        params.ExternalPriceID,
		Status:                 params.Status,
		CurrentPeriodStart:     params.CurrentPeriodStart,
		CurrentPeriodEnd:       params.CurrentPeriodEnd,
		CanceledAt:             params.CanceledAt,
		CreatedAt:              now,
		UpdatedAt:              now,
	})
}

// DeleteTenant removes the tenant and, via cascading foreign keys, every row
// that references it.
func (r *Registry) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	return r.store.DeleteTenant(ctx, tenantID)
}
