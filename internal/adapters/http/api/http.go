// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/internal/ingest"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest runs one file through the pipeline and returns its report.
	Ingest(ctx context.Context, t ingest.Trigger) (*ingest.Report, error)

	// Read operations expose derived documents.
	Overall(ctx context.Context, d model.Dataset) (model.Document, bool, error)
	RunLog(ctx context.Context, runID string) (model.Document, bool, error)

	IssuePasscode(ctx context.Context, email string) error
	VerifyPasscode(ctx context.Context, email, code string) (string, error)
}

const (
	defaultMaxUploadBytes = 64 << 20
	defaultRunTimeout     = 10 * time.Minute
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxUploadBytes caps the size of an uploaded workbook.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.ingestHandler.maxBytes = n
		}
	}
}

// WithRunTimeout bounds how long an uploaded workbook may take to ingest.
// The run does not end when the client goes away, only when this budget runs out.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.ingestHandler.runTimeout = d
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	ingestHandler   *IngestHandler
	overallHandler  *OverallHandler
	passcodeHandler *PasscodeHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		ingestHandler:   NewIngestHandler(deps, defaultMaxUploadBytes, defaultRunTimeout),
		overallHandler:  NewOverallHandler(deps),
		passcodeHandler: NewPasscodeHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /ingest/{dataset}", MetricsMiddleware(s.ingestHandler.HandleIngest, "ingest"))
	mux.HandleFunc("GET /overall/{dataset}", MetricsMiddleware(s.overallHandler.HandleGetOverall, "overall"))
	mux.HandleFunc("GET /runs/{runID}", MetricsMiddleware(s.overallHandler.HandleGetRun, "runs"))
	mux.HandleFunc("POST /passcode", MetricsMiddleware(s.passcodeHandler.HandleIssue, "passcode"))
	mux.HandleFunc("POST /passcode/verify", MetricsMiddleware(s.passcodeHandler.HandleVerify, "passcode_verify"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
