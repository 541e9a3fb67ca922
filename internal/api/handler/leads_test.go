package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mwhitfield/clientpulse/internal/ingest"
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLeadRecorder struct {
	recordFn func(ctx context.Context, params ingest.LeadParams) (*models.LeadNotification, error)
	got      []ingest.LeadParams
}

func (m *mockLeadRecorder) RecordLead(ctx context.Context, params ingest.LeadParams) (*models.LeadNotification, error) {
	m.got = append(m.got, params)
	if m.recordFn != nil {
		return m.recordFn(ctx, params)
	}
	return &models.LeadNotification{
		ID:        uuid.New(),
		TenantID:  params.TenantID,
		LeadName:  params.Name,
		LeadEmail: params.Email,
		Source:    params.Source,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type mockLeadLister struct {
	leadsFn func(ctx context.Context, caller query.Identity, tenantID uuid.UUID, from, to time.Time, source string) ([]*models.LeadNotification, error)

	gotTenantID uuid.UUID
	gotFrom     time.Time
	gotTo       time.Time
	gotSource   string
}

func (m *mockLeadLister) Leads(ctx context.Context, caller query.Identity, tenantID uuid.UUID, from, to time.Time, source string) ([]*models.LeadNotification, error) {
	m.gotTenantID = tenantID
	m.gotFrom, m.gotTo, m.gotSource = from, to, source
	if m.leadsFn != nil {
		return m.leadsFn(ctx, caller, tenantID, from, to, source)
	}
	return []*models.LeadNotification{}, nil
}

// --- webhook tests ---

func TestLeadWebhook_Created(t *testing.T) {
	rec := &mockLeadRecorder{}
	handler := NewLeadWebhookHandler(rec)
	tenantID := uuid.New()

	body := map[string]any{
		"name":   "Dana Whitfield",
		"email":  "dana@example.com",
		"source": "gohighlevel",
	}
	req := asTenant(jsonReq(t, "POST", "/api/v1/webhooks/leads", body), tenantID, models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataObj(t, w)
	assert.Equal(t, "Dana Whitfield", data["lead_name"])
	assert.Equal(t, "gohighlevel", data["source"])

	require.Len(t, rec.got, 1)
	assert.Equal(t, tenantID, rec.got[0].TenantID)
}

func TestLeadWebhook_SparsePayloadAccepted(t *testing.T) {
	rec := &mockLeadRecorder{}
	handler := NewLeadWebhookHandler(rec)

	req := asTenant(jsonReq(t, "POST", "/api/v1/webhooks/leads", "{}"), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, rec.got, 1)
	assert.Nil(t, rec.got[0].Name)
	assert.Nil(t, rec.got[0].Email)
}

func TestLeadWebhook_MissingIdentity(t *testing.T) {
	handler := NewLeadWebhookHandler(&mockLeadRecorder{})

	req := jsonReq(t, "POST", "/api/v1/webhooks/leads", "{}")
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errCode(t, w))
}

func TestLeadWebhook_UnknownTenant(t *testing.T) {
	rec := &mockLeadRecorder{
		recordFn: func(_ context.Context, _ ingest.LeadParams) (*models.LeadNotification, error) {
			return nil, store.ErrUnknownTenant
		},
	}
	handler := NewLeadWebhookHandler(rec)

	req := asTenant(jsonReq(t, "POST", "/api/v1/webhooks/leads", "{}"), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_TENANT", errCode(t, w))
}

// --- list tests ---

func TestListLeads_DefaultRange(t *testing.T) {
	lister := &mockLeadLister{}
	handler := NewListLeadsHandler(lister)
	tenantID := uuid.New()

	req := asTenant(jsonReq(t, "GET", "/api/v1/leads", nil), tenantID, models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, lister.gotTenantID)
	assert.Equal(t, "", lister.gotSource)

	// Default is the last 30 days, upper bound pushed to end of day.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	assert.Equal(t, today.AddDate(0, 0, -30), lister.gotFrom)
	assert.Equal(t, today.Add(24*time.Hour-time.Nanosecond), lister.gotTo)
}

func TestListLeads_ExplicitRangeAndSource(t *testing.T) {
	lister := &mockLeadLister{}
	handler := NewListLeadsHandler(lister)

	req := asTenant(jsonReq(t, "GET", "/api/v1/leads?from=2026-08-01&to=2026-08-15&source=gohighlevel", nil),
		uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), lister.gotFrom)
	assert.Equal(t, time.Date(2026, 8, 15, 23, 59, 59, 999999999, time.UTC), lister.gotTo)
	assert.Equal(t, "gohighlevel", lister.gotSource)
}

func TestListLeads_TenantOverride(t *testing.T) {
	lister := &mockLeadLister{}
	handler := NewListLeadsHandler(lister)
	other := uuid.New()

	req := asTenant(jsonReq(t, "GET", "/api/v1/leads?tenant_id="+other.String(), nil),
		uuid.New(), models.RoleAdmin)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, other, lister.gotTenantID)
}

func TestListLeads_InvalidTenantID(t *testing.T) {
	handler := NewListLeadsHandler(&mockLeadLister{})

	req := asTenant(jsonReq(t, "GET", "/api/v1/leads?tenant_id=not-a-uuid", nil),
		uuid.New(), models.RoleAdmin)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errCode(t, w))
}

func TestListLeads_ToBeforeFrom(t *testing.T) {
	handler := NewListLeadsHandler(&mockLeadLister{})

	req := asTenant(jsonReq(t, "GET", "/api/v1/leads?from=2026-08-15&to=2026-08-01", nil),
		uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListLeads_Forbidden(t *testing.T) {
	lister := &mockLeadLister{
		leadsFn: func(_ context.Context, _ query.Identity, _ uuid.UUID, _, _ time.Time, _ string) ([]*models.LeadNotification, error) {
			return nil, query.ErrUnauthorized
		},
	}
	handler := NewListLeadsHandler(lister)

	req := asTenant(jsonReq(t, "GET", "/api/v1/leads?tenant_id="+uuid.NewString(), nil),
		uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errCode(t, w))
}
