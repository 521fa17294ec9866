// Package api exposes the velocity calculator and batch runs over HTTP and WebSocket.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log/v2"

	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/observability"
	"neo-velocity-lab/internal/pipeline"
	"neo-velocity-lab/internal/storage/stores"
)

var log = logging.Logger("api")

// defaultMaxCatalogBytes caps the size of an uploaded catalog.
const defaultMaxCatalogBytes = 64 << 20

// Server serves the HTTP API.
type Server struct {
	adapter   *normalization.Adapter
	newRunner func() *pipeline.Runner
	stores    *stores.Stores
	upgrader  websocket.Upgrader
	router    chi.Router
	started   time.Time

	maxCatalogBytes int64
}

// NewServer creates a Server. newRunner must return a fresh Runner wired to
// the same stores on every call.
func NewServer(adapter *normalization.Adapter, newRunner func() *pipeline.Runner, st *stores.Stores) *Server {
	s := &Server{
		adapter:   adapter,
		newRunner: newRunner,
		stores:    st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		started:         time.Now().UTC(),
		maxCatalogBytes: defaultMaxCatalogBytes,
	}
	s.setupRoutes()
	return s
}

// WithMaxCatalogBytes sets the largest accepted catalog upload.
func (s *Server) WithMaxCatalogBytes(n int64) *Server {
	if n > 0 {
		s.maxCatalogBytes = n
	}
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/velocity", s.handleVelocity)
		r.Post("/catalog", s.handleCatalog)

		r.Get("/runs", s.handleListRuns)
		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Get("/", s.handleGetRun)
			r.Get("/results", s.handleRunResults)
		})
	})

	r.Get("/ws/velocity", s.handleVelocityWS)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"backend": s.stores.Backend,
		"sinks":   len(s.stores.Sinks),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debugw("write response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// statusClass returns "2xx", "4xx", ... for metrics labels.
func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
