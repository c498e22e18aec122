// Package api provides the HTTP surface of the Workstake daemon.
// It is a trusted local surface: the caller identity is taken from the
// X-Workstake-Identity header, like a local daemon socket would trust
// its peer. All mutating routes map 1:1 onto market engine operations.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/workstake-network/workstake/internal/app/market"
	"github.com/workstake-network/workstake/internal/domain"
)

// identityHeader carries the caller identity on the trusted local surface.
const identityHeader = "X-Workstake-Identity"

// Server is the Workstake HTTP API server.
type Server struct {
	engine         *market.Engine
	hub            *EventHub
	version        string
	metricsEnabled bool
}

// NewServer creates an API server around the market engine.
func NewServer(engine *market.Engine, version string) *Server {
	return &Server{engine: engine, hub: NewEventHub(), version: version}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Hub returns the live event hub (wired as the engine's event sink).
func (s *Server) Hub() *EventHub { return s.hub }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Workstake is running"})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/unregister", s.handleUnregister)
		r.Get("/users/{id}", s.handleGetUser)

		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Delete("/tasks/{id}", s.handleDeleteTask)

		r.Post("/tasks/{id}/activate", s.handleActivate)
		r.Post("/tasks/{id}/registration/open", s.handleOpenRegistration)
		r.Post("/tasks/{id}/registration/close", s.handleCloseRegistration)
		r.Post("/tasks/{id}/join", s.handleRequestJoin)
		r.Post("/tasks/{id}/join/withdraw", s.handleWithdrawJoin)
		r.Post("/tasks/{id}/join/{applicant}/approve", s.handleApproveJoin)
		r.Post("/tasks/{id}/join/{applicant}/reject", s.handleRejectJoin)
		r.Post("/tasks/{id}/cancel", s.handleCancel)
		r.Post("/tasks/{id}/submit", s.handleSubmit)
		r.Post("/tasks/{id}/resubmit", s.handleResubmit)
		r.Post("/tasks/{id}/revision", s.handleRevision)
		r.Post("/tasks/{id}/approve", s.handleApprove)
		r.Post("/tasks/{id}/deadline", s.handleDeadline)

		r.Get("/tasks/{id}/requests", s.handleRequests)
		r.Get("/tasks/{id}/submission", s.handleGetSubmission)

		r.Get("/balances/{id}", s.handleBalance)
		r.Post("/withdraw", s.handleWithdraw)
		r.Post("/fees/sweep", s.handleSweepFees)

		r.Get("/stats", s.handleStats)
		r.Get("/ledger", s.handleLedger)
		r.Get("/events", s.handleEvents)
		r.Get("/events/live", s.hub.HandleLiveEvents)

		r.Get("/params", s.handleGetParams)
		r.Post("/params", s.handleSetParams)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// caller extracts the identity header.
func caller(r *http.Request) domain.Identity {
	return domain.Identity(r.Header.Get(identityHeader))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with a status derived from the
// domain error taxonomy.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]interface{}{
		"error": map[string]interface{}{
			"message": err.Error(),
			"type":    "error",
		},
	})
}

// errStatus maps domain sentinels to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotRegistered):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrZeroIdentity),
		errors.Is(err, domain.ErrStakeTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrAlreadyPending),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrDeadlineNotReached),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrReentrantCall):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+identityHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
