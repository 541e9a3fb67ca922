package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/ingest"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// EventRecorder defines the interface the handler depends on.
type EventRecorder interface {
	RecordPageView(ctx context.Context, params ingest.PageViewParams) error
}

// NewRecordEventHandler returns an http.HandlerFunc for POST /api/v1/events.
// The event is attributed to the authenticated tenant.
func NewRecordEventHandler(svc EventRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing identity", nil)
			return
		}

		var req struct {
			PageURL    string  `json:"page_url"`
			Referrer   *string `json:"referrer"`
			UserAgent  *string `json:"user_agent"`
			Country    *string `json:"country"`
			DeviceType *string `json:"device_type"`
			SessionID  string  `json:"session_id"`
			OccurredAt string  `json:"occurred_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.PageURL == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page_url is required", nil)
			return
		}
		if req.SessionID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "session_id is required", nil)
			return
		}
		if req.DeviceType != nil {
			switch *req.DeviceType {
			case models.DeviceDesktop, models.DeviceMobile, models.DeviceTablet:
			default:
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"device_type must be desktop, mobile, or tablet", nil)
				return
			}
		}

		var occurredAt time.Time
		if req.OccurredAt != "" {
			parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"occurred_at must be a valid RFC3339 timestamp", nil)
				return
			}
			occurredAt = parsed
		}

		err := svc.RecordPageView(r.Context(), ingest.PageViewParams{
			TenantID:   identity.TenantID,
			PageURL:    req.PageURL,
			Referrer:   req.Referrer,
			UserAgent:  req.UserAgent,
			Country:    req.Country,
			DeviceType: req.DeviceType,
			SessionID:  req.SessionID,
			OccurredAt: occurredAt,
		})
		if err != nil {
			if errors.Is(err, store.ErrUnknownTenant) {
				response.Error(w, http.StatusNotFound, "UNKNOWN_TENANT", "Tenant does not exist", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to record event", nil)
			return
		}

		response.Accepted(w, map[string]any{"status": "accepted"})
	}
}
