package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/ingest"
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/internal/store"
	"github.com/mwhitfield/clientpulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- shared test helpers ---

// jsonReq builds a request with a JSON-encoded body. A string payload is sent
// verbatim so tests can exercise malformed JSON.
func jsonReq(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case string:
		body = strings.NewReader(p)
	default:
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return httptest.NewRequest(method, target, body)
}

// asTenant attaches an authenticated identity to the request, the way the
// auth middleware does.
func asTenant(r *http.Request, tenantID uuid.UUID, role string) *http.Request {
	return r.WithContext(mw.SetIdentity(r.Context(), query.Identity{TenantID: tenantID, Role: role}))
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	return errObj["code"].(string)
}

func dataObj(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	list, ok := body["data"].([]any)
	require.True(t, ok, "response data is not a list: %s", w.Body.String())
	return list
}

// --- mock recorder ---

type mockEventRecorder struct {
	recordFn func(ctx context.Context, params ingest.PageViewParams) error
	got      []ingest.PageViewParams
}

func (m *mockEventRecorder) RecordPageView(ctx context.Context, params ingest.PageViewParams) error {
	m.got = append(m.got, params)
	if m.recordFn != nil {
		return m.recordFn(ctx, params)
	}
	return nil
}

func validEventBody() map[string]any {
	return map[string]any{
		"page_url":    "/pricing",
		"session_id":  "sess-1",
		"referrer":    "https://google.com",
		"device_type": "desktop",
		"occurred_at": "2026-08-30T14:00:00Z",
	}
}

// --- tests ---

func TestRecordEvent_Accepted(t *testing.T) {
	rec := &mockEventRecorder{}
	handler := NewRecordEventHandler(rec)
	tenantID := uuid.New()

	req := asTenant(jsonReq(t, "POST", "/api/v1/events", validEventBody()), tenantID, models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "accepted", dataObj(t, w)["status"])

	require.Len(t, rec.got, 1)
	got := rec.got[0]
	assert.Equal(t, tenantID, got.TenantID)
	assert.Equal(t, "/pricing", got.PageURL)
	assert.Equal(t, "sess-1", got.SessionID)
	require.NotNil(t, got.Referrer)
	assert.Equal(t, "https://google.com", *got.Referrer)
	assert.Equal(t, "2026-08-30T14:00:00Z", got.OccurredAt.Format("2006-01-02T15:04:05Z07:00"))
}

func TestRecordEvent_MissingIdentity(t *testing.T) {
	handler := NewRecordEventHandler(&mockEventRecorder{})

	req := jsonReq(t, "POST", "/api/v1/events", validEventBody())
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errCode(t, w))
}

func TestRecordEvent_InvalidJSON(t *testing.T) {
	handler := NewRecordEventHandler(&mockEventRecorder{})

	req := asTenant(jsonReq(t, "POST", "/api/v1/events", "{not json"), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errCode(t, w))
}

func TestRecordEvent_MissingPageURL(t *testing.T) {
	rec := &mockEventRecorder{}
	handler := NewRecordEventHandler(rec)

	body := validEventBody()
	delete(body, "page_url")
	req := asTenant(jsonReq(t, "POST", "/api/v1/events", body), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.got)
}

func TestRecordEvent_MissingSessionID(t *testing.T) {
	handler := NewRecordEventHandler(&mockEventRecorder{})

	body := validEventBody()
	delete(body, "session_id")
	req := asTenant(jsonReq(t, "POST", "/api/v1/events", body), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordEvent_InvalidDeviceType(t *testing.T) {
	handler := NewRecordEventHandler(&mockEventRecorder{})

	body := validEventBody()
	body["device_type"] = "smartwatch"
	req := asTenant(jsonReq(t, "POST", "/api/v1/events", body), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordEvent_InvalidOccurredAt(t *testing.T) {
	handler := NewRecordEventHandler(&mockEventRecorder{})

	body := validEventBody()
	body["occurred_at"] = "yesterday"
	req := asTenant(jsonReq(t, "POST", "/api/v1/events", body), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordEvent_OmittedOccurredAtAccepted(t *testing.T) {
	rec := &mockEventRecorder{}
	handler := NewRecordEventHandler(rec)

	body := validEventBody()
	delete(body, "occurred_at")
	req := asTenant(jsonReq(t, "POST", "/api/v1/events", body), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, rec.got, 1)
	assert.True(t, rec.got[0].OccurredAt.IsZero())
}

func TestRecordEvent_UnknownTenant(t *testing.T) {
	rec := &mockEventRecorder{
		recordFn: func(_ context.Context, _ ingest.PageViewParams) error {
			return store.ErrUnknownTenant
		},
	}
	handler := NewRecordEventHandler(rec)

	req := asTenant(jsonReq(t, "POST", "/api/v1/events", validEventBody()), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_TENANT", errCode(t, w))
}

func TestRecordEvent_StoreError(t *testing.T) {
	rec := &mockEventRecorder{
		recordFn: func(_ context.Context, _ ingest.PageViewParams) error {
			return errors.New("connection refused")
		},
	}
	handler := NewRecordEventHandler(rec)

	req := asTenant(jsonReq(t, "POST", "/api/v1/events", validEventBody()), uuid.New(), models.RoleClient)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errCode(t, w))
}
