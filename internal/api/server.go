// Package api provides REST API endpoints over the particle archive.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fuelcell_parser/internal/storage"
)

// Server provides REST API access to archived particles and warnings.
type Server struct {
	db          *storage.DB
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string // List of valid API keys.
}

// NewServer creates a new API server over an open particle archive.
func NewServer(db *storage.DB, cfg Config) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &Server{
		db:          db,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Mount("/api/v1", s.Router())

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Particle API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	return http.ListenAndServe(addr, r)
}

// Router returns the configured chi router for embedding in other servers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/particles", s.handleListParticles)
	r.Get("/particles/{id}", s.handleGetParticle)
	r.Get("/warnings", s.handleListWarnings)
	r.Get("/stats", s.handleStats)

	return r
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}
		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListParticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := storage.QueryParams{
		ParticleType: q.Get("type"),
		SourceFile:   q.Get("source"),
		Limit:        intParam(q.Get("limit"), 100),
		Offset:       intParam(q.Get("offset"), 0),
		OrderDesc:    q.Get("order") == "desc",
	}
	if v := q.Get("since"); v != "" {
		params.SinceNTP, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("until"); v != "" {
		params.UntilNTP, _ = strconv.ParseFloat(v, 64)
	}

	particles, err := s.db.Query(params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(particles),
		"particles": toParticleViews(particles),
	})
}

func (s *Server) handleGetParticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid particle id")
		return
	}

	particles, err := s.db.Query(storage.QueryParams{ID: id, Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(particles) == 0 {
		writeError(w, http.StatusNotFound, "particle not found")
		return
	}

	writeJSON(w, http.StatusOK, toParticleViews(particles)[0])
}

func (s *Server) handleListWarnings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	warnings, err := s.db.QueryWarnings(q.Get("source"), intParam(q.Get("limit"), 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(warnings),
		"warnings": warnings,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// particleView flattens a stored particle for JSON responses; the full
// decoded record rides along under "particle".
type particleView struct {
	ID           int64           `json:"id"`
	ParticleType string          `json:"particle_type"`
	NTPTimestamp float64         `json:"ntp_timestamp"`
	DCLTimestamp string          `json:"dcl_timestamp"`
	SourceFile   string          `json:"source_file,omitempty"`
	Particle     json.RawMessage `json:"particle"`
}

func toParticleViews(particles []storage.StoredParticle) []particleView {
	views := make([]particleView, 0, len(particles))
	for _, sp := range particles {
		views = append(views, particleView{
			ID:           sp.ID,
			ParticleType: sp.ParticleType,
			NTPTimestamp: sp.NTPTimestamp,
			DCLTimestamp: sp.DCLTimestamp,
			SourceFile:   sp.SourceFile,
			Particle:     json.RawMessage(sp.ParticleJSON),
		})
	}
	return views
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
