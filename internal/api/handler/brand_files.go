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
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
)

// BrandFileStore defines the interface the handlers depend on.
type BrandFileStore interface {
	CreateBrandFile(ctx context.Context, file *models.BrandFile) error
}

// BrandFileReader lists a tenant's files through the authorization gate.
type BrandFileReader interface {
	BrandFiles(ctx context.Context, caller query.Identity, tenantID uuid.UUID) ([]*models.BrandFile, error)
}

// NewCreateBrandFileHandler returns an http.HandlerFunc for
// POST /api/v1/brand-files. The binary upload goes to object storage out of
// band; this endpoint records the metadata row.
func NewCreateBrandFileHandler(s BrandFileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing identity", nil)
			return
		}

		var req struct {
			FileName    string `json:"file_name"`
			FileSize    int64  `json:"file_size"`
			MimeType    string `json:"mime_type"`
			Category    string `json:"category"`
			StoragePath string `json:"storage_path"`
			PublicURL   string `json:"public_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.FileName == "" || req.StoragePath == "" || req.PublicURL == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"file_name, storage_path, and public_url are required", nil)
			return
		}
		if !models.ValidBrandFileCategory(req.Category) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"category must be one of logo, guideline, photo, design, other", nil)
			return
		}

		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		file := &models.BrandFile{
			ID:          uuid.New(),
			TenantID:    identity.TenantID,
			UploadedBy:  identity.TenantID,
			FileName:    req.FileName,
			FileSize:    req.FileSize,
			MimeType:    mimeType,
			Category:    req.Category,
			StoragePath: req.StoragePath,
			PublicURL:   req.PublicURL,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.CreateBrandFile(r.Context(), file); err != nil {
			if errors.Is(err, store.ErrUnknownTenant) {
				response.Error(w, http.StatusNotFound, "UNKNOWN_TENANT", "Tenant does not exist", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to record brand file", nil)
			return
		}

		response.Created(w, file)
	}
}

// NewListBrandFilesHandler returns an http.HandlerFunc for
// GET /api/v1/brand-files.
func NewListBrandFilesHandler(svc BrandFileReader) http.HandlerFunc {
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

		files, err := svc.BrandFiles(r.Context(), identity, tenantID)
		if err != nil {
			if errors.Is(err, query.ErrUnauthorized) {
				response.Error(w, http.StatusForbidden, "FORBIDDEN",
					"Cannot read another tenant's data", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list brand files", nil)
			return
		}

		response.JSON(w, files)
	}
}
