// Package server exposes the query pipeline over HTTP: an authenticated chat
// endpoint plus health and metrics. Transport concerns only; all business
// behavior lives behind the graph runner.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/graph"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

const maxQueryLen = 4096

// Config holds the HTTP listener settings.
type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ChatRequest is the inbound chat payload. Identity comes from the token,
// never from the body.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
	Origin    string `json:"origin,omitempty"`
}

// ChatResponse mirrors the pipeline output plus the turn latency.
type ChatResponse struct {
	Success          bool           `json:"success"`
	ResponseText     string         `json:"response_text"`
	ResponseData     map[string]any `json:"response_data,omitempty"`
	Intent           string         `json:"intent,omitempty"`
	ErrorKind        string         `json:"error_kind,omitempty"`
	SessionID        string         `json:"session_id,omitempty"`
	ThreadID         string         `json:"thread_id,omitempty"`
	ProcessingTimeMS float64        `json:"processing_time_ms"`
}

// QueryRunner is the pipeline entry point the transport depends on.
// *graph.Runner satisfies it.
type QueryRunner interface {
	Run(ctx context.Context, input model.QueryInput) *model.QueryOutput
}

var _ QueryRunner = (*graph.Runner)(nil)

// Server wires the runner behind the chi router.
type Server struct {
	runner QueryRunner
}

func New(runner QueryRunner) *Server {
	return &Server{runner: runner}
}

// Router builds the full middleware chain and route table.
func (s *Server) Router(authCfg AuthConfig, rlCfg RateLimitConfig, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authCfg.JWTSecret))
		r.Use(newUserLimiter(rlCfg).middleware)
		r.Post("/api/v1/chat", s.handleChat)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "query too long")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = user.SessionID
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	out := s.runner.Run(r.Context(), model.QueryInput{
		QueryText: query,
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
		ThreadID:  strings.TrimSpace(req.ThreadID),
		Origin:    parseOrigin(req.Origin),
	})
	elapsed := time.Since(start)

	observeRun(out.Intent, out.ErrorKind, elapsed.Seconds(), out.NodePath)
	logx.Info().
		Int("user_id", user.ID).
		Str("role", user.Role).
		Str("thread_id", out.ThreadID).
		Str("intent", out.Intent).
		Str("error_kind", out.ErrorKind).
		Float64("elapsed_ms", float64(elapsed.Microseconds())/1000.0).
		Msg("Chat turn completed")

	writeJSON(w, http.StatusOK, ChatResponse{
		Success:          out.Success,
		ResponseText:     out.ResponseText,
		ResponseData:     out.ResponseData,
		Intent:           out.Intent,
		ErrorKind:        out.ErrorKind,
		SessionID:        out.SessionID,
		ThreadID:         out.ThreadID,
		ProcessingTimeMS: float64(elapsed.Microseconds()) / 1000.0,
	})
}

func parseOrigin(v string) model.Origin {
	switch model.Origin(strings.TrimSpace(strings.ToLower(v))) {
	case model.OriginWhatsappPatient:
		return model.OriginWhatsappPatient
	case model.OriginWhatsappUser:
		return model.OriginWhatsappUser
	default:
		return model.OriginWebapp
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logx.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
