package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BrandFileLogo      = "logo"
	BrandFileGuideline = "guideline"
	BrandFilePhoto     = "photo"
	BrandFileDesign    = "design"
	BrandFileOther     = "other"
)

// BrandFile is the metadata row for an uploaded tenant asset. Files are not
// versioned; re-uploading creates a new row.
type BrandFile struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	TenantID    uuid.UUID `db:"tenant_id"    json:"tenant_id"`
	UploadedBy  uuid.UUID `db:"uploaded_by"  json:"uploaded_by"`
	FileName    string    `db:"file_name"    json:"file_name"`
	FileSize    int64     `db:"file_size"    json:"file_size"`
	MimeType    string    `db:"mime_type"    json:"mime_type"`
	Category    string    `db:"category"     json:"category"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	PublicURL   string    `db:"public_url"   json:"public_url"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// ValidBrandFileCategory reports whether c is in the closed category set.
func ValidBrandFileCategory(c string) bool {
	switch c {
	case BrandFileLogo, BrandFileGuideline, BrandFilePhoto, BrandFileDesign, BrandFileOther:
		return true
	}
	return false
}
