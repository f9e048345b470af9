package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/remote"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type testEnv struct {
	store  *store.Store
	remote *remote.Memory
	mux    *http.ServeMux
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(kv.NewMemory(), testLogger, store.WithClock(testClock()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	rm := remote.NewMemory()
	c := backup.NewCipher("")
	mgr := backup.NewManager(backup.Config{Timeout: time.Second}, s, c, testLogger,
		backup.WithDialer(func(model.RemoteConfig) (remote.FileStore, error) { return rm, nil }))

	members := NewMemberHandler(s, testLogger)
	records := NewRecordHandler(s, testLogger)
	settings := NewSettingsHandler(s, testLogger)
	data := NewDataHandler(s, c, testLogger)
	data.now = func() time.Time { return time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC) }
	syncH := NewSyncHandler(mgr, testLogger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/members", members.List)
	mux.HandleFunc("POST /api/members", members.Create)
	mux.HandleFunc("GET /api/members/{id}", members.Get)
	mux.HandleFunc("PUT /api/members/{id}", members.Update)
	mux.HandleFunc("DELETE /api/members/{id}", members.Delete)
	mux.HandleFunc("GET /api/members/{id}/records", members.Records)
	mux.HandleFunc("GET /api/members/{id}/latest", members.Latest)
	mux.HandleFunc("GET /api/members/{id}/chart", members.Chart)
	mux.HandleFunc("GET /api/members/{id}/stats", members.Stats)
	mux.HandleFunc("GET /api/members/{id}/trends", members.Trends)
	mux.HandleFunc("GET /api/current-member", members.GetCurrent)
	mux.HandleFunc("PUT /api/current-member", members.SetCurrent)
	mux.HandleFunc("GET /api/records", records.List)
	mux.HandleFunc("POST /api/records", records.Create)
	mux.HandleFunc("GET /api/records/{id}", records.Get)
	mux.HandleFunc("PUT /api/records/{id}", records.Update)
	mux.HandleFunc("DELETE /api/records/{id}", records.Delete)
	mux.HandleFunc("GET /api/settings", settings.Get)
	mux.HandleFunc("PUT /api/settings", settings.Update)
	mux.HandleFunc("PUT /api/settings/remote", settings.UpdateRemote)
	mux.HandleFunc("PUT /api/settings/passphrase", settings.SetPassphrase)
	mux.HandleFunc("POST /api/export", data.Export)
	mux.HandleFunc("POST /api/import", data.Import)
	mux.HandleFunc("POST /api/sync/test", syncH.Test)
	mux.HandleFunc("GET /api/sync/status", syncH.Status)
	mux.HandleFunc("POST /api/sync/{direction}", syncH.Run)

	return &testEnv{store: s, remote: rm, mux: mux}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func (e *testEnv) createMember(t *testing.T, name string) model.Member {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/members", map[string]string{
		"name": name, "gender": "female", "birthDate": "2023-01-15",
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[model.Member](t, rec)
}

func (e *testEnv) createRecord(t *testing.T, memberID, date string, height, weight float64) model.Record {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/records", model.RecordInput{
		MemberID: memberID, Date: date, Height: height, Weight: weight,
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[model.Record](t, rec)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", model.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("x: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrInvalidMeasurement, http.StatusUnprocessableEntity},
		{model.ErrDecryption, http.StatusUnprocessableEntity},
		{&model.ImportValidationError{Problems: []string{"p"}}, http.StatusUnprocessableEntity},
		{model.ErrSyncInProgress, http.StatusConflict},
		{model.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{model.ErrSync, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMemberCRUD(t *testing.T) {
	e := setup(t)

	m := e.createMember(t, "Mia")
	if m.ID == "" || m.Name != "Mia" {
		t.Fatalf("created member = %+v", m)
	}

	rec := e.do(t, http.MethodPost, "/api/members", map[string]string{"gender": "female", "birthDate": "2023-01-15"})
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[errorResponse](t, rec); !strings.Contains(body.Error, "name is required") {
		t.Errorf("error = %q", body.Error)
	}

	expectStatus(t, e.do(t, http.MethodPost, "/api/members", "{not json"), http.StatusBadRequest)
	expectStatus(t, e.do(t, http.MethodGet, "/api/members/nope", nil), http.StatusNotFound)

	rec = e.do(t, http.MethodPut, "/api/members/"+m.ID, map[string]string{"name": "Mia Rose"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.Member](t, rec); got.Name != "Mia Rose" || got.BirthDate != "2023-01-15" {
		t.Errorf("updated member = %+v", got)
	}

	e.createRecord(t, m.ID, "2024-01-15", 75, 9.5)
	rec = e.do(t, http.MethodDelete, "/api/members/"+m.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]int](t, rec); got["deletedRecords"] != 1 {
		t.Errorf("delete response = %v", got)
	}

	rec = e.do(t, http.MethodGet, "/api/members", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]model.Member](t, rec); len(got) != 0 {
		t.Errorf("members after delete = %v", got)
	}
}

func TestRecordsAndViews(t *testing.T) {
	e := setup(t)
	m := e.createMember(t, "Leo")

	expectStatus(t, e.do(t, http.MethodGet, "/api/members/"+m.ID+"/latest", nil), http.StatusNoContent)

	rec := e.do(t, http.MethodPost, "/api/records", model.RecordInput{MemberID: m.ID, Date: "2024-01-15", Height: 0, Weight: 9})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	rec = e.do(t, http.MethodPost, "/api/records", model.RecordInput{MemberID: "ghost", Date: "2024-01-15", Height: 70, Weight: 9})
	expectStatus(t, rec, http.StatusNotFound)

	first := e.createRecord(t, m.ID, "2024-01-15", 70, 8)
	second := e.createRecord(t, m.ID, "2024-03-15", 75, 9)
	if second.HeightChange == nil || *second.HeightChange != 5 {
		t.Errorf("height change = %v, want 5", second.HeightChange)
	}
	if second.AgeMonths != 14 {
		t.Errorf("age months = %d, want 14", second.AgeMonths)
	}

	rec = e.do(t, http.MethodGet, "/api/members/"+m.ID+"/latest", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.Record](t, rec); got.ID != second.ID {
		t.Errorf("latest = %s, want %s", got.ID, second.ID)
	}

	rec = e.do(t, http.MethodGet, "/api/members/"+m.ID+"/chart", nil)
	expectStatus(t, rec, http.StatusOK)
	points := decode[[]model.ChartPoint](t, rec)
	if len(points) != 2 || points[0].Date != "2024-01-15" {
		t.Errorf("chart = %+v", points)
	}

	rec = e.do(t, http.MethodGet, "/api/members/"+m.ID+"/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.MemberStats](t, rec); got.RecordCount != 2 {
		t.Errorf("stats = %+v", got)
	}

	rec = e.do(t, http.MethodGet, "/api/members/"+m.ID+"/trends", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.RecordStats](t, rec); got.HeightTrend != model.TrendIncreasing {
		t.Errorf("trends = %+v", got)
	}

	rec = e.do(t, http.MethodPut, "/api/records/"+first.ID, map[string]float64{"height": 72})
	expectStatus(t, rec, http.StatusOK)
	rec = e.do(t, http.MethodGet, "/api/records/"+second.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.Record](t, rec); got.HeightChange == nil || *got.HeightChange != 3 {
		t.Errorf("recomputed height change = %v, want 3", got.HeightChange)
	}

	rec = e.do(t, http.MethodGet, "/api/records?member="+m.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]model.Record](t, rec); len(got) != 2 || got[0].ID != second.ID {
		t.Errorf("member records = %+v", got)
	}

	expectStatus(t, e.do(t, http.MethodDelete, "/api/records/"+first.ID, nil), http.StatusNoContent)
	expectStatus(t, e.do(t, http.MethodDelete, "/api/records/"+first.ID, nil), http.StatusNotFound)
}

func TestCurrentMember(t *testing.T) {
	e := setup(t)
	m := e.createMember(t, "Ava")

	expectStatus(t, e.do(t, http.MethodGet, "/api/current-member", nil), http.StatusNoContent)
	expectStatus(t, e.do(t, http.MethodPut, "/api/current-member", map[string]string{"id": "ghost"}), http.StatusNotFound)

	rec := e.do(t, http.MethodPut, "/api/current-member", map[string]string{"id": m.ID})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.Member](t, rec); got.ID != m.ID {
		t.Errorf("current = %+v", got)
	}

	expectStatus(t, e.do(t, http.MethodPut, "/api/current-member", map[string]string{"id": ""}), http.StatusNoContent)
}

func TestSettingsHideSecrets(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPut, "/api/settings", map[string]string{"theme": "neon"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = e.do(t, http.MethodPut, "/api/settings/remote", model.RemoteConfig{
		Driver: model.RemoteWebDAV, URL: "https://dav.example.com/growth", Username: "u", Password: "hunter2",
	})
	expectStatus(t, rec, http.StatusOK)
	expectStatus(t, e.do(t, http.MethodPut, "/api/settings/passphrase", map[string]string{"passphrase": "family-secret"}), http.StatusNoContent)

	rec = e.do(t, http.MethodGet, "/api/settings", nil)
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if strings.Contains(body, "hunter2") || strings.Contains(body, "family-secret") {
		t.Fatalf("settings response leaks a secret: %s", body)
	}
	got := decode[settingsResponse](t, rec)
	if !got.CanSync || !got.HasPassphrase || got.Remote.Password != "***" {
		t.Errorf("settings = %+v", got)
	}

	// Sending the masked value back keeps the stored password.
	got.Remote.URL = "https://dav.example.com/other"
	expectStatus(t, e.do(t, http.MethodPut, "/api/settings/remote", got.Remote), http.StatusOK)
	if pw := e.store.Settings().Remote.Password; pw != "hunter2" {
		t.Errorf("stored password = %q, want hunter2", pw)
	}
}

func TestExportImport(t *testing.T) {
	src := setup(t)
	m := src.createMember(t, "Noa")
	src.createRecord(t, m.ID, "2024-01-15", 75, 9.5)

	rec := src.do(t, http.MethodPost, "/api/export", nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != backup.ContentTypeJSON {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "growth-data-2024-06-02.json") {
		t.Errorf("content disposition = %q", cd)
	}
	plain := rec.Body.Bytes()

	dst := setup(t)
	rec = dst.do(t, http.MethodPost, "/api/import", plain)
	expectStatus(t, rec, http.StatusOK)
	got := decode[importResponse](t, rec)
	if !got.Report.Valid || got.Merge.MembersAdded != 1 || got.Merge.RecordsAdded != 1 {
		t.Errorf("import = %+v", got)
	}

	rec = src.do(t, http.MethodPost, "/api/export", map[string]string{"passphrase": "pw"})
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != backup.ContentTypeEncrypted {
		t.Errorf("encrypted content type = %q", ct)
	}
	encrypted := rec.Body.Bytes()

	expectStatus(t, dst.do(t, http.MethodPost, "/api/import", encrypted, PassphraseHeader, "wrong"), http.StatusUnprocessableEntity)
	expectStatus(t, dst.do(t, http.MethodPost, "/api/import", encrypted), http.StatusUnprocessableEntity)
	expectStatus(t, dst.do(t, http.MethodPost, "/api/import", encrypted, PassphraseHeader, "pw"), http.StatusOK)
}

func TestImportReportsProblems(t *testing.T) {
	e := setup(t)

	expectStatus(t, e.do(t, http.MethodPost, "/api/import", nil), http.StatusBadRequest)

	rec := e.do(t, http.MethodPost, "/api/import", `{"members":[{"id":"m1"}],"records":[]}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	body := decode[errorResponse](t, rec)
	if body.Error != model.ErrImportValidation.Error() || len(body.Problems) != 2 {
		t.Errorf("body = %+v, want missing version and member field problems", body)
	}
}

func TestSyncEndpoints(t *testing.T) {
	e := setup(t)

	expectStatus(t, e.do(t, http.MethodPost, "/api/sync/sideways", nil), http.StatusBadRequest)
	expectStatus(t, e.do(t, http.MethodPost, "/api/sync/upload", nil), http.StatusBadRequest)

	if err := e.store.UpdateRemote(model.RemoteConfig{Driver: model.RemoteWebDAV, URL: "https://dav.example.com", Username: "u", Password: "p"}); err != nil {
		t.Fatalf("update remote: %v", err)
	}
	if err := e.store.SetPassphrase("pw"); err != nil {
		t.Fatalf("set passphrase: %v", err)
	}
	expectStatus(t, e.do(t, http.MethodPost, "/api/sync/test", nil), http.StatusOK)

	e.createMember(t, "Kai")
	rec := e.do(t, http.MethodPost, "/api/sync/upload", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[backup.Result](t, rec); got.Direction != backup.Upload || got.Bytes == 0 {
		t.Errorf("upload result = %+v", got)
	}
	if e.store.PendingChanges() != 0 {
		t.Errorf("pending = %d after upload", e.store.PendingChanges())
	}

	rec = e.do(t, http.MethodPost, "/api/sync/download", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[backup.Result](t, rec); got.Merge == nil || got.Merge.Changed() {
		t.Errorf("download result = %+v, want an unchanged merge", got)
	}

	rec = e.do(t, http.MethodGet, "/api/sync/status", nil)
	expectStatus(t, rec, http.StatusOK)
	statuses := decode[[]backup.Status](t, rec)
	if len(statuses) != 2 || statuses[0].State != backup.StateIdle || statuses[0].LastSync == nil {
		t.Errorf("statuses = %+v", statuses)
	}
}
