// Package models contains shared data models used across the ClientPulse codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Tenant represents a client firm (or an admin operator). Every other entity
// belongs to exactly one tenant; deleting a tenant cascades to all of its rows.
type Tenant struct {
	ID               uuid.UUID  `db:"id"                 json:"id"`
	Email            string     `db:"email"              json:"email"`
	Name             string     `db:"name"               json:"name"`
	PasswordHash     string     `db:"password_hash"      json:"-"`
	Role             string     `db:"role"               json:"role"`
	CompanyName      string     `db:"company_name"       json:"company_name"`
	StripeCustomerID *string    `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	GHLContactID     *string    `db:"ghl_contact_id"     json:"ghl_contact_id,omitempty"`
	VercelProjectID  *string    `db:"vercel_project_id"  json:"vercel_project_id,omitempty"`
	WebsiteURL       *string    `db:"website_url"        json:"website_url,omitempty"`
	LastLoginAt      *time.Time `db:"last_login_at"      json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at"         json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"         json:"updated_at"`
}

// IsAdmin reports whether the tenant may access other tenants' data.
func (t *Tenant) IsAdmin() bool {
	return t.Role == RoleAdmin
}
