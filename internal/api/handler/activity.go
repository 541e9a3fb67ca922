package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/query"
)

// ActivityReader defines the interface the handler depends on.
type ActivityReader interface {
	RecentActivity(ctx context.Context, caller query.Identity, tenantID uuid.UUID, limit int) ([]query.ActivityItem, error)
}

// NewActivityHandler returns an http.HandlerFunc for GET /api/v1/activity.
func NewActivityHandler(svc ActivityReader) http.HandlerFunc {
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

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be a positive integer", nil)
				return
			}
			limit = parsed
		}
		if limit > 100 {
			limit = 100
		}

		items, err := svc.RecentActivity(r.Context(), identity, tenantID, limit)
		if err != nil {
			if errors.Is(err, query.ErrUnauthorized) {
				response.Error(w, http.StatusForbidden, "FORBIDDEN",
					"Cannot read another tenant's data", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load activity", nil)
			return
		}

		response.JSON(w, items)
	}
}
