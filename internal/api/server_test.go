package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"fuelcell_parser/internal/dcl"
	"fuelcell_parser/internal/storage"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "particles.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var values [dcl.NumFields]int64
	values[13] = 4 // fuel_cell_state
	p := dcl.NewParticle(dcl.TypeRecovered, 3634986125.5, "2015/03/10 14:22:05.500", values)
	if _, err := db.InsertParticle(p, "a.log"); err != nil {
		t.Fatalf("insert particle: %v", err)
	}
	if err := db.InsertWarnings([]dcl.Warning{{Line: 3, Reason: dcl.ReasonBadChecksum}}, "a.log"); err != nil {
		t.Fatalf("insert warnings: %v", err)
	}

	return NewServer(db, cfg)
}

func get(t *testing.T, srv *Server, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Config{})
	rec := get(t, srv, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListParticles(t *testing.T) {
	srv := newTestServer(t, Config{})
	rec := get(t, srv, "/particles?type=fuelcell_eng_dcl_recovered", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count     int `json:"count"`
		Particles []struct {
			ID           int64           `json:"id"`
			ParticleType string          `json:"particle_type"`
			NTPTimestamp float64         `json:"ntp_timestamp"`
			Particle     json.RawMessage `json:"particle"`
		} `json:"particles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || len(body.Particles) != 1 {
		t.Fatalf("count = %d", body.Count)
	}
	if body.Particles[0].NTPTimestamp != 3634986125.5 {
		t.Errorf("ntp_timestamp = %v", body.Particles[0].NTPTimestamp)
	}

	var fields map[string]any
	if err := json.Unmarshal(body.Particles[0].Particle, &fields); err != nil {
		t.Fatalf("decode nested particle: %v", err)
	}
	if fields["fuel_cell_state"] != float64(4) {
		t.Errorf("fuel_cell_state = %v", fields["fuel_cell_state"])
	}
}

func TestGetParticle(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := get(t, srv, "/particles/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = get(t, srv, "/particles/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing particle status = %d", rec.Code)
	}

	rec = get(t, srv, "/particles/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

func TestListWarnings(t *testing.T) {
	srv := newTestServer(t, Config{})
	rec := get(t, srv, "/warnings?source=a.log", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d", body.Count)
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, Config{})
	rec := get(t, srv, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats storage.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Particles != 1 || stats.Warnings != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, Config{AuthEnabled: true, APIKeys: []string{"sekrit"}})

	if rec := get(t, srv, "/health", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d", rec.Code)
	}
	if rec := get(t, srv, "/health", map[string]string{"X-API-Key": "wrong"}); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d", rec.Code)
	}
	if rec := get(t, srv, "/health", map[string]string{"X-API-Key": "sekrit"}); rec.Code != http.StatusOK {
		t.Errorf("good key status = %d", rec.Code)
	}
	if rec := get(t, srv, "/health", map[string]string{"Authorization": "Bearer sekrit"}); rec.Code != http.StatusOK {
		t.Errorf("bearer status = %d", rec.Code)
	}
}
