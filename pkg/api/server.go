package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/subgate/subgate/pkg/gate"
	"github.com/subgate/subgate/pkg/metrics"
	"github.com/subgate/subgate/pkg/types"
)

// Server exposes the inbound access-request surface over HTTP, plus health
// and metrics endpoints. Command parsing, keyboards and message delivery live
// in the external front-end; it calls this API on the user's behalf.
type Server struct {
	httpServer *http.Server
	gate       *gate.Gate
	logger     zerolog.Logger
}

// NewServer creates the HTTP API server.
func NewServer(addr string, g *gate.Gate, logger zerolog.Logger) *Server {
	s := &Server{
		gate:   g,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Post("/v1/access", s.handleAccess)
	r.Get("/healthz", metrics.HealthHandler)
	r.Handle("/metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 5 * time.Second,
		// Provisioning may burn the full retry budget before answering.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start starts the listener. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("API listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type accessRequest struct {
	UserID int64 `json:"user_id"`
}

type credentialBody struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Flow      string `json:"flow,omitempty"`
	AccessURL string `json:"access_url"`
}

type accessResponse struct {
	Outcome    string          `json:"outcome"`
	Reason     string          `json:"reason,omitempty"`
	Credential *credentialBody `json:"credential,omitempty"`
}

// handleAccess runs one access request through the gate.
func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		http.Error(w, `{"error":"user_id is required"}`, http.StatusBadRequest)
		return
	}

	outcome := s.gate.RequestAccess(r.Context(), types.UserID(req.UserID))

	resp := accessResponse{
		Outcome: string(outcome.Kind),
		Reason:  outcome.Reason,
	}
	status := http.StatusOK
	switch outcome.Kind {
	case types.OutcomeGranted:
		resp.Credential = &credentialBody{
			ID:        outcome.Credential.ID,
			Email:     outcome.Credential.Email,
			Flow:      outcome.Credential.Flow,
			AccessURL: outcome.Credential.AccessURL,
		}
	case types.OutcomeDenied:
		status = http.StatusForbidden
	case types.OutcomeError:
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request with method, path, status and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
