package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/quantpilot/advisor/internal/cycle"
	"github.com/quantpilot/advisor/internal/database"
	"github.com/quantpilot/advisor/internal/models"
	"github.com/quantpilot/advisor/internal/snapshot"
)

// CycleRunner triggers cycles and reports on the most recent one.
type CycleRunner interface {
	RunTactical(ctx context.Context) (*cycle.Run, error)
	RunStrategic(ctx context.Context) (*cycle.Run, error)
	LastRun() *cycle.Run
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db     *database.DB
	reader *snapshot.Reader
	runner CycleRunner
	log    zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, reader *snapshot.Reader, runner CycleRunner, log zerolog.Logger) *Handler {
	return &Handler{
		db:     db,
		reader: reader,
		runner: runner,
		log:    log.With().Str("component", "api").Logger(),
	}
}

// GetSnapshot handles GET /portfolio/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reader.Read(models.CycleTactical)
	if err != nil {
		var emptyErr *snapshot.EmptyDataError
		if !errors.As(err, &emptyErr) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// A partially empty store still yields a usable snapshot.
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetPositions handles GET /portfolio/positions
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.db.GetCurrentPositions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, positions)
}

// GetOrders handles GET /portfolio/orders
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.db.GetOrdersOnLatestDate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GetPositionHistory handles GET /portfolio/positions/{ticker}
func (h *Handler) GetPositionHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker := vars["ticker"]

	history, err := h.db.GetPositionHistory(ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(history) == 0 {
		http.Error(w, "no positions for ticker", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// GetCash handles GET /portfolio/cash. An optional before=YYYY-MM-DD
// query returns the balance the book held strictly before that date.
func (h *Handler) GetCash(w http.ResponseWriter, r *http.Request) {
	var (
		cash *models.CashSnapshot
		err  error
	)
	if before := r.URL.Query().Get("before"); before != "" {
		date, parseErr := time.Parse(models.DateFormat, before)
		if parseErr != nil {
			http.Error(w, "before must be formatted YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		cash, err = h.db.GetLatestCashBefore(date)
	} else {
		cash, err = h.db.GetLatestCash()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cash == nil {
		http.Error(w, "no cash snapshots", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, cash)
}

// GetCandles handles GET /portfolio/candles/{ticker}
func (h *Handler) GetCandles(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker := vars["ticker"]

	limit := 30
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	candles, err := h.db.GetCandleHistory(ticker, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(candles) == 0 {
		http.Error(w, "no candles for ticker", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, candles)
}

// GetResearch handles GET /research/latest
func (h *Handler) GetResearch(w http.ResponseWriter, r *http.Request) {
	note, err := h.db.GetLatestResearchNote()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if note == nil {
		http.Error(w, "no research recorded yet", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, note)
}

// GetCycleStatus handles GET /cycles/status
func (h *Handler) GetCycleStatus(w http.ResponseWriter, r *http.Request) {
	run := h.runner.LastRun()
	if run == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "idle"})
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// TriggerTactical handles POST /cycles/tactical
func (h *Handler) TriggerTactical(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.runner.RunTactical)
}

// TriggerStrategic handles POST /cycles/strategic
func (h *Handler) TriggerStrategic(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.runner.RunStrategic)
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request, fn func(context.Context) (*cycle.Run, error)) {
	run, err := fn(r.Context())
	if errors.Is(err, cycle.ErrCycleInFlight) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Manual cycle trigger failed")
		if run != nil {
			respondJSON(w, http.StatusInternalServerError, run)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
