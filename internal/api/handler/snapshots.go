package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// SnapshotReader defines the interface the handler depends on.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, caller query.Identity, tenantID uuid.UUID, source string) (*models.AnalyticsSnapshot, error)
}

// NewSnapshotHandler returns an http.HandlerFunc for
// GET /api/v1/snapshots/{source}.
func NewSnapshotHandler(svc SnapshotReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing identity", nil)
			return
		}

		source := chi.URLParam(r, "source")
		if source != models.SnapshotSourceVercel && source != models.SnapshotSourceGoHighLevel {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"source must be vercel or gohighlevel", nil)
			return
		}

		tenantID, err := targetTenant(r, identity)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		snap, err := svc.LatestSnapshot(r.Context(), identity, tenantID, source)
		if err != nil {
			switch {
			case errors.Is(err, query.ErrUnauthorized):
				response.Error(w, http.StatusForbidden, "FORBIDDEN",
					"Cannot read another tenant's data", nil)
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"No snapshot for this source yet", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"Failed to load snapshot", nil)
			}
			return
		}

		response.JSON(w, snap)
	}
}
