// Package server exposes archived benchmark runs over a small read-only
// HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/bench"
	"github.com/allibot/rtsbench/internal/models"
	"github.com/allibot/rtsbench/internal/store"
)

// RunReader is the slice of the archive the API reads from.
type RunReader interface {
	ListRuns() ([]models.Run, error)
	GetRun(runID string) (*models.Run, error)
	GetMatches(runID string) ([]models.MatchRecord, error)
}

type Config struct {
	Store          RunReader
	AllowedOrigins []string
	Logger         *zap.Logger
}

type Handler struct {
	store          RunReader
	allowedOrigins []string
	logger         *zap.SugaredLogger
}

func New(cfg Config) *Handler {
	return &Handler{
		store:          cfg.Store,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         cfg.Logger.Sugar(),
	}
}

// Routes builds the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{runID}", h.GetRun)
		r.Get("/runs/{runID}/matches", h.GetMatches)
		r.Get("/runs/{runID}/summary", h.GetSummary)
	})

	return r
}

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	_, err := h.store.ListRuns()
	checks := map[string]bool{
		"store": err == nil,
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":  err == nil,
		"checks": checks,
	})
}

// ListRuns returns all archived runs, most recent first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns()
	if err != nil {
		h.logger.Errorw("Failed to list runs", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []models.Run{}
	}
	h.jsonResponse(w, http.StatusOK, runs)
}

// GetRun returns one run document.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := h.store.GetRun(runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.errorResponse(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.Errorw("Failed to get run", "run_id", runID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to get run")
		return
	}
	h.jsonResponse(w, http.StatusOK, run)
}

// GetMatches returns a run's match records in play order.
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if _, err := h.store.GetRun(runID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.errorResponse(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.Errorw("Failed to get run", "run_id", runID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	records, err := h.store.GetMatches(runID)
	if err != nil {
		h.logger.Errorw("Failed to get matches", "run_id", runID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to get matches")
		return
	}
	if records == nil {
		records = []models.MatchRecord{}
	}
	h.jsonResponse(w, http.StatusOK, records)
}

// GetSummary returns a run's per-opponent summary. Finished runs serve
// the stored summary; running runs get one computed from the matches so
// far.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := h.store.GetRun(runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.errorResponse(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.Errorw("Failed to get run", "run_id", runID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	summary := run.Summary
	if summary == nil {
		records, err := h.store.GetMatches(runID)
		if err != nil {
			h.logger.Errorw("Failed to get matches", "run_id", runID, "error", err)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to get matches")
			return
		}
		summary = bench.Summarize(records)
	}
	h.jsonResponse(w, http.StatusOK, summary)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
