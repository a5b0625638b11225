// Package server exposes the audit engine over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/sitelens/sitelens/internal/app"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
)

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a Server around an existing orchestrator.
func NewServer(cfg Config, orch *app.Orchestrator, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/audit", s.handleSubmitAudit)
	r.Get("/api/results/{scanId}", s.handleGetResults)
	r.Get("/ws/scans/{scanId}", s.handleScanWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps the router in an http.Server bound to the configured
// address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.router,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitResponse struct {
	ScanID  string           `json:"scanId"`
	Initial model.ScanRecord `json:"initial"`
}

func (s *Server) handleSubmitAudit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rec, err := s.orchestrator.Submit(r.Context(), body.URL)
	if err != nil {
		if model.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("submitting audit", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("audit submitted",
		logging.Field{Key: "scan_id", Value: rec.ScanID},
		logging.Field{Key: "url", Value: rec.URL})
	writeJSON(w, http.StatusOK, submitResponse{ScanID: rec.ScanID, Initial: rec})
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanId")

	rec, err := s.orchestrator.Fetch(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, model.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "Scan not found")
			return
		}
		s.logger.Warn("fetching results",
			logging.Field{Key: "scan_id", Value: scanID},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleScanWS streams scan events until the scan reaches a terminal state.
// For already-terminal scans it sends the record once and closes.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanId")

	rec, err := s.orchestrator.Fetch(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, model.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "Scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(rec)

	events, ok := s.orchestrator.Events(scanID)
	if !ok {
		// Already terminal; the record above is the final word.
		return
	}
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			// Client went away; the background job keeps running.
			return
		}
	}
}
