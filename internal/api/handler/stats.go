package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// StatsReader defines the interface the stats handlers depend on.
type StatsReader interface {
	DailyStats(ctx context.Context, caller query.Identity, tenantID uuid.UUID, from, to time.Time) ([]*models.DailyStat, error)
}

// NewStatsHandler returns an http.HandlerFunc for GET /api/v1/stats.
// A tenant with no data in the range gets an empty list, not an error.
func NewStatsHandler(svc StatsReader) http.HandlerFunc {
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

		stats, err := svc.DailyStats(r.Context(), identity, tenantID, from, to)
		if err != nil {
			if errors.Is(err, query.ErrUnauthorized) {
				response.Error(w, http.StatusForbidden, "FORBIDDEN",
					"Cannot read another tenant's data", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load stats", nil)
			return
		}

		response.JSON(w, stats)
	}
}
