package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/registry"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// TenantAdmin defines the registry surface the admin handlers depend on.
type TenantAdmin interface {
	CreateTenant(ctx context.Context, params registry.CreateTenantParams) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID uuid.UUID) error
}

// NewCreateTenantHandler returns an http.HandlerFunc for
// POST /api/v1/admin/tenants.
func NewCreateTenantHandler(svc TenantAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email       string  `json:"email"`
			Name        string  `json:"name"`
			Password    string  `json:"password"`
			Role        string  `json:"role"`
			CompanyName string  `json:"company_name"`
			WebsiteURL  *string `json:"website_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Email == "" || req.Password == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"email and password are required", nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), registry.BcryptCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to hash password", nil)
			return
		}

		tenant, err := svc.CreateTenant(r.Context(), registry.CreateTenantParams{
			Email:          req.Email,
			Name:           req.Name,
			HashedPassword: string(hash),
			Role:           req.Role,
			CompanyName:    req.CompanyName,
			WebsiteURL:     req.WebsiteURL,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				response.Error(w, http.StatusConflict, "DUPLICATE_EMAIL",
					"Email is already registered", nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		response.Created(w, tenant)
	}
}

// NewDeleteTenantHandler returns an http.HandlerFunc for
// DELETE /api/v1/admin/tenants/{tenantID}. Cascading foreign keys remove all
// of the tenant's dependent rows.
func NewDeleteTenantHandler(svc TenantAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "tenantID must be a UUID", nil)
			return
		}

		if err := svc.DeleteTenant(r.Context(), tenantID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Tenant does not exist", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to delete tenant", nil)
			return
		}

		response.JSON(w, map[string]any{"deleted": tenantID})
	}
}

// RollupRunner defines the interface the backfill handler depends on.
type RollupRunner interface {
	RunTenantDay(ctx context.Context, tenantID uuid.UUID, day time.Time) error
	RunDay(ctx context.Context, day time.Time) error
}

// NewRunRollupHandler returns an http.HandlerFunc for
// POST /api/v1/admin/rollup/run, a manual backfill for one day, optionally
// scoped to one tenant. Safe to rerun: the rollup upsert is idempotent.
func NewRunRollupHandler(engine RollupRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Date     string `json:"date"`
			TenantID string `json:"tenant_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		day, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "date must be YYYY-MM-DD", nil)
			return
		}

		if req.TenantID != "" {
			tenantID, err := uuid.Parse(req.TenantID)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "tenant_id must be a UUID", nil)
				return
			}
			err = engine.RunTenantDay(r.Context(), tenantID, day)
			if err != nil {
				response.Error(w, http.StatusInternalServerError, "ROLLUP_FAILED", err.Error(), nil)
				return
			}
		} else if err := engine.RunDay(r.Context(), day); err != nil {
			response.Error(w, http.StatusInternalServerError, "ROLLUP_FAILED", err.Error(), nil)
			return
		}

		response.JSON(w, map[string]any{"status": "completed", "date": req.Date})
	}
}

// APIKeyCreator defines the store surface the key handler depends on.
type APIKeyCreator interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
}

const rawKeyBytes = 24

// NewCreateKeyHandler returns an http.HandlerFunc for
// POST /api/v1/admin/keys. The raw key appears once in the response; only
// its bcrypt hash is stored.
func NewCreateKeyHandler(s APIKeyCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TenantID string `json:"tenant_id"`
			Name     string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		tenantID, err := uuid.Parse(req.TenantID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "tenant_id must be a UUID", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}

		rawKey, err := generateRawKey()
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to generate key", nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), registry.BcryptCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to hash key", nil)
			return
		}

		now := time.Now().UTC()
		key := &models.APIKey{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      req.Name,
			KeyHash:   string(hash),
			KeyPrefix: rawKey[:8],
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.CreateAPIKey(r.Context(), key); err != nil {
			if errors.Is(err, store.ErrUnknownTenant) {
				response.Error(w, http.StatusNotFound, "UNKNOWN_TENANT", "Tenant does not exist", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create key", nil)
			return
		}

		response.Created(w, map[string]any{
			"key":     rawKey,
			"api_key": key,
		})
	}
}

func generateRawKey() (string, error) {
	buf := make([]byte, rawKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("cp_%s", hex.EncodeToString(buf)), nil
}
