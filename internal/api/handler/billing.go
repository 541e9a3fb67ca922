package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/registry"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// SubscriptionUpserter defines the interface the webhook handler depends on.
type SubscriptionUpserter interface {
	UpsertSubscription(ctx context.Context, params registry.UpsertSubscriptionParams) (*models.Subscription, error)
}

// NewBillingWebhookHandler returns an http.HandlerFunc for
// POST /api/v1/webhooks/billing. Billing errors are always surfaced to the
// processor so it retries, never swallowed.
func NewBillingWebhookHandler(svc SubscriptionUpserter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TenantID           string  `json:"tenant_id"`
			SubscriptionID     string  `json:"subscription_id"`
			PriceID            *string `json:"price_id"`
			Status             string  `json:"status"`
			CurrentPeriodStart *int64  `json:"current_period_start"`
			CurrentPeriodEnd   *int64  `json:"current_period_end"`
			CanceledAt         *int64  `json:"canceled_at"`
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
		if req.SubscriptionID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "subscription_id is required", nil)
			return
		}
		if !models.ValidSubscriptionStatus(req.Status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of active, past_due, canceled, trialing, unpaid", nil)
			return
		}

		sub, err := svc.UpsertSubscription(r.Context(), registry.UpsertSubscriptionParams{
			TenantID:               tenantID,
			ExternalSubscriptionID: req.SubscriptionID,
			ExternalPriceID:        req.PriceID,
			Status:                 req.Status,
			CurrentPeriodStart:     unixTime(req.CurrentPeriodStart),
			CurrentPeriodEnd:       unixTime(req.CurrentPeriodEnd),
			CanceledAt:             unixTime(req.CanceledAt),
		})
		if err != nil {
			if errors.Is(err, store.ErrUnknownTenant) {
				response.Error(w, http.StatusNotFound, "UNKNOWN_TENANT", "Tenant does not exist", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to update subscription", nil)
			return
		}

		response.JSON(w, sub)
	}
}

func unixTime(secs *int64) *time.Time {
	if secs == nil {
		return nil
	}
	t := time.Unix(*secs, 0).UTC()
	return &t
}
