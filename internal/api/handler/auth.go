package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/registry"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// CredentialVerifier defines the interface the login handler depends on.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*models.Tenant, error)
}

// NewLoginHandler returns an http.HandlerFunc for POST /api/v1/auth/login.
// Session issuance belongs to the external auth collaborator; this endpoint
// verifies the credential and stamps the login.
func NewLoginHandler(svc CredentialVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
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

		tenant, err := svc.VerifyCredentials(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, registry.ErrInvalidCredentials) {
				response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS",
					"Invalid email or password", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to verify credentials", nil)
			return
		}

		response.JSON(w, tenant)
	}
}
