package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/registry"
	"github.com/mwhitfield/clientpulse/pkg/models"
	"github.com/stretchr/testify/assert"
)

type mockCredentialVerifier struct {
	verifyFn func(ctx context.Context, email, password string) (*models.Tenant, error)
}

func (m *mockCredentialVerifier) VerifyCredentials(ctx context.Context, email, password string) (*models.Tenant, error) {
	return m.verifyFn(ctx, email, password)
}

func TestLogin_OK(t *testing.T) {
	tenant := &models.Tenant{ID: uuid.New(), Email: "owner@hillcrest.example", Role: models.RoleClient}
	verifier := &mockCredentialVerifier{
		verifyFn: func(_ context.Context, email, password string) (*models.Tenant, error) {
			assert.Equal(t, "owner@hillcrest.example", email)
			assert.Equal(t, "s3cret", password)
			return tenant, nil
		},
	}
	handler := NewLoginHandler(verifier)

	body := map[string]any{"email": "owner@hillcrest.example", "password": "s3cret"}
	req := jsonReq(t, "POST", "/api/v1/auth/login", body)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner@hillcrest.example", dataObj(t, w)["email"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	verifier := &mockCredentialVerifier{
		verifyFn: func(_ context.Context, _, _ string) (*models.Tenant, error) {
			return nil, registry.ErrInvalidCredentials
		},
	}
	handler := NewLoginHandler(verifier)

	body := map[string]any{"email": "owner@hillcrest.example", "password": "wrong"}
	req := jsonReq(t, "POST", "/api/v1/auth/login", body)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errCode(t, w))
}

func TestLogin_MissingFields(t *testing.T) {
	handler := NewLoginHandler(&mockCredentialVerifier{})

	req := jsonReq(t, "POST", "/api/v1/auth/login", map[string]any{"email": "owner@hillcrest.example"})
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_InvalidJSON(t *testing.T) {
	handler := NewLoginHandler(&mockCredentialVerifier{})

	req := jsonReq(t, "POST", "/api/v1/auth/login", "email=owner")
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_VerifierError(t *testing.T) {
	verifier := &mockCredentialVerifier{
		verifyFn: func(_ context.Context, _, _ string) (*models.Tenant, error) {
			return nil, errors.New("connection refused")
		},
	}
	handler := NewLoginHandler(verifier)

	body := map[string]any{"email": "owner@hillcrest.example", "password": "s3cret"}
	req := jsonReq(t, "POST", "/api/v1/auth/login", body)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errCode(t, w))
}
