package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/exposure-core/internal/exposure"
	"github.com/nerrad567/exposure-core/internal/infrastructure/config"
	"github.com/nerrad567/exposure-core/internal/infrastructure/logging"
	"github.com/nerrad567/exposure-core/internal/registry"
	syncpkg "github.com/nerrad567/exposure-core/internal/sync"
)

const testToken = "test-token-0123456789abcdef"

type fakeRepo struct {
	doc     *exposure.Document
	records []*exposure.SyncRecord
}

func (r *fakeRepo) LoadDocument(_ context.Context) (*exposure.Document, error) {
	if r.doc == nil {
		return nil, exposure.ErrDocumentNotFound
	}
	return r.doc, nil
}

func (r *fakeRepo) SaveDocument(_ context.Context, doc *exposure.Document) error {
	r.doc = doc
	return nil
}

func (r *fakeRepo) RecordSync(_ context.Context, rec *exposure.SyncRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) ListSyncs(_ context.Context, limit int) ([]*exposure.SyncRecord, error) {
	if limit > len(r.records) {
		limit = len(r.records)
	}
	return r.records[:limit], nil
}

type fakeProvider struct {
	snap *registry.Snapshot
	err  error
}

func (p *fakeProvider) Snapshot(_ context.Context) (*registry.Snapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.snap, nil
}

type fakeSyncer struct {
	rec      *exposure.SyncRecord
	err      error
	notified int
}

func (s *fakeSyncer) Sync(_ context.Context, trigger string) (*exposure.SyncRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.rec == nil {
		s.rec = &exposure.SyncRecord{ID: "run-1", Status: exposure.SyncStatusCompleted, Trigger: trigger}
	}
	return s.rec, nil
}

func (s *fakeSyncer) NotifyDocumentUpdated() {
	s.notified++
}

func testSnapshot() *registry.Snapshot {
	return registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.kitchen", AreaID: "kitchen"},
			{ID: "light.hallway"},
			{ID: "sensor.outside_temp"},
		},
		nil,
		[]registry.Area{{ID: "kitchen", Name: "Kitchen"}},
	)
}

func newTestRouter(t *testing.T, repo *fakeRepo, provider *fakeProvider, syncer *fakeSyncer) http.Handler {
	t.Helper()

	cfg := config.APIConfig{AuthToken: testToken}
	s, err := New(Deps{
		Config:     cfg,
		Logger:     logging.Default(),
		Repository: repo,
		Provider:   provider,
		Syncer:     syncer,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.buildRouter()
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rdr)
	if auth {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestAuth_Required(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/document", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/document", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", w.Code)
	}
}

func TestGetDocument_DefaultsWhenEmpty(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/document", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc exposure.Document
	decodeBody(t, rec, &doc)
	if len(doc.BulkRules.ExposeDomains) == 0 {
		t.Error("default document should have expose domains")
	}
	if !doc.Settings.AutoSync {
		t.Error("default settings should have auto_sync enabled")
	}
}

func TestPutDocument_PreservesOmittedSettings(t *testing.T) {
	repo := &fakeRepo{}
	syncer := &fakeSyncer{}
	router := newTestRouter(t, repo, &fakeProvider{snap: testSnapshot()}, syncer)

	body := `{"bulk_rules":{"expose_domains":["light"]}}`
	rec := doRequest(t, router, http.MethodPut, "/api/v1/document", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp putDocumentResponse
	decodeBody(t, rec, &resp)
	if !resp.Document.Settings.Backups {
		t.Error("omitted settings should keep their defaults")
	}
	if got := resp.Document.BulkRules.ExposeDomains; len(got) != 1 || got[0] != "light" {
		t.Errorf("ExposeDomains = %v, want [light]", got)
	}

	if repo.doc == nil {
		t.Error("document should be saved")
	}
	if syncer.notified != 1 {
		t.Errorf("notified = %d, want 1", syncer.notified)
	}
}

func TestPutDocument_ReturnsWarnings(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	body := `{"bulk_rules":{"expose_domains":["light"],"exclude_areas":["attic"]}}`
	rec := doRequest(t, router, http.MethodPut, "/api/v1/document", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp putDocumentResponse
	decodeBody(t, rec, &resp)
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "Area not found") {
		t.Errorf("Warnings = %v, want one area-not-found warning", resp.Warnings)
	}
}

func TestPutDocument_InvalidJSON(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodPut, "/api/v1/document", "{not json", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	body := `{"bulk_rules":{"expose_domains":["light"]}}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/rules/preview", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var summary exposure.Summary
	decodeBody(t, rec, &summary)
	if summary.TotalExposed != 2 {
		t.Errorf("TotalExposed = %d, want 2", summary.TotalExposed)
	}
}

func TestPreview_RegistryDown(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{err: context.DeadlineExceeded}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/rules/preview", "{}", true)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestValidate(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	body := `{"bulk_rules":{"expose_domains":["light"],"exclude_patterns":["sensor.[bad"]}}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/rules/validate", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp validateResponse
	decodeBody(t, rec, &resp)
	if resp.Valid {
		t.Error("document with malformed pattern should not be valid")
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "Invalid pattern") {
		t.Errorf("Errors = %v, want one invalid-pattern finding", resp.Errors)
	}
}

func TestEntityReason(t *testing.T) {
	doc := exposure.DefaultDocument()
	doc.BulkRules.ExposeDomains = []string{"light"}
	router := newTestRouter(t, &fakeRepo{doc: doc}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/entities/light.kitchen/reason", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp reasonResponse
	decodeBody(t, rec, &resp)
	if resp.EntityID != "light.kitchen" {
		t.Errorf("EntityID = %q", resp.EntityID)
	}
	if !strings.Contains(resp.Reason, "domain 'light'") {
		t.Errorf("Reason = %q, want domain bulk rule explanation", resp.Reason)
	}
}

func TestEntityReason_Unknown(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/entities/light.ghost/reason", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp reasonResponse
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp.Reason, "not in the registry") {
		t.Errorf("Reason = %q, want not-in-registry explanation", resp.Reason)
	}
}

func TestSync(t *testing.T) {
	syncer := &fakeSyncer{}
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, syncer)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/sync", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var run exposure.SyncRecord
	decodeBody(t, rec, &run)
	if run.Trigger != syncpkg.TriggerAPI {
		t.Errorf("Trigger = %q, want api", run.Trigger)
	}
}

func TestSync_Conflict(t *testing.T) {
	syncer := &fakeSyncer{err: syncpkg.ErrSyncInProgress}
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, syncer)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/sync", "", true)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestSyncHistory(t *testing.T) {
	repo := &fakeRepo{records: []*exposure.SyncRecord{
		{ID: "run-2", Status: exposure.SyncStatusCompleted},
		{ID: "run-1", Status: exposure.SyncStatusFailed},
	}}
	router := newTestRouter(t, repo, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/sync/history?limit=1", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Syncs []*exposure.SyncRecord `json:"syncs"`
		Count int                    `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 1 || len(body.Syncs) != 1 {
		t.Errorf("count = %d, syncs = %d, want 1 each", body.Count, len(body.Syncs))
	}
}

func TestSyncHistory_BadLimit(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{}, &fakeProvider{snap: testSnapshot()}, &fakeSyncer{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/sync/history?limit=abc", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(Deps{Logger: logging.Default()})
	if err == nil {
		t.Error("New() without repository should fail")
	}
}
