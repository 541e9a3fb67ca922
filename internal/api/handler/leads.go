package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/ingest"
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// LeadRecorder defines the interface the webhook handler depends on.
type LeadRecorder interface {
	RecordLead(ctx context.Context, params ingest.LeadParams) (*models.LeadNotification, error)
}

// NewLeadWebhookHandler returns an http.HandlerFunc for
// POST /api/v1/webhooks/leads. The payload shape is caller-defined; every
// contact field is optional and unknown fields are ignored.
func NewLeadWebhookHandler(svc LeadRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing identity", nil)
			return
		}

		var req struct {
			Name   *string `json:"name"`
			Email  *string `json:"email"`
			Phone  *string `json:"phone"`
			Source string  `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		lead, err := svc.RecordLead(r.Context(), ingest.LeadParams{
			TenantID: identity.TenantID,
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Source:   req.Source,
		})
		if err != nil {
			if errors.Is(err, store.ErrUnknownTenant) {
				response.Error(w, http.StatusNotFound, "UNKNOWN_TENANT", "Tenant does not exist", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to record lead", nil)
			return
		}

		response.Created(w, lead)
	}
}

// LeadLister defines the interface the list handler depends on.
type LeadLister interface {
	Leads(ctx context.Context, caller query.Identity, tenantID uuid.UUID, from, to time.Time, source string) ([]*models.LeadNotification, error)
}

// NewListLeadsHandler returns an http.HandlerFunc for GET /api/v1/leads.
func NewListLeadsHandler(svc LeadLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing identity", nil)
			return
		}

		tenantID, err := targetTenant(r, identity)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		from, to, err := dateRange(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		leads, err := svc.Leads(r.Context(), identity, tenantID,
			from, to.Add(24*time.Hour-time.Nanosecond), r.URL.Query().Get("source"))
		if err != nil {
			if errors.Is(err, query.ErrUnauthorized) {
				response.Error(w, http.StatusForbidden, "FORBIDDEN",
					"Cannot read another tenant's data", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list leads", nil)
			return
		}

		response.JSON(w, leads)
	}
}
