package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/psantana5/intcheck/internal/report"
	"github.com/psantana5/intcheck/pkg/logging"
	"github.com/psantana5/intcheck/pkg/middleware"
	"github.com/psantana5/intcheck/pkg/ratelimit"
)

// RestartNote explains why restart requests are acknowledged but not acted on
const RestartNote = "Task restart requires system reset in this demo."

// StatusSource is the monitor as seen by the API
type StatusSource interface {
	Count() uint64
	Last() (report.Check, bool)
}

// Worker is a read-only view of a calculation task
type Worker interface {
	ID() int
	Iterations() uint64
	Latched() bool
}

// Raiser requests a status check
type Raiser interface {
	Raise()
}

// Options wires the handler to the running demo
type Options struct {
	RunID   string
	Monitor StatusSource
	Workers []Worker
	History *report.History
	Check   Raiser

	// OnRestart is called for every restart request; it must not restart anything.
	OnRestart func()

	// Metrics serves /metrics when set
	Metrics http.Handler

	// Limiter throttles the trigger endpoints when set
	Limiter *ratelimit.Limiter

	Logger *logging.Logger
}

// Handler serves the operator endpoints
type Handler struct {
	opts    Options
	started time.Time
	logger  *logging.Logger
}

// NewHandler creates a handler
func NewHandler(opts Options) (*Handler, error) {
	if opts.Monitor == nil || opts.History == nil || opts.Check == nil {
		return nil, errors.New("api: monitor, history and check raiser are required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.OnRestart == nil {
		opts.OnRestart = func() {}
	}
	return &Handler{
		opts:    opts,
		started: time.Now(),
		logger:  opts.Logger.Component("api"),
	}, nil
}

// RegisterRoutes registers every endpoint on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/status", h.Status).Methods("GET")
	r.HandleFunc("/history", h.History).Methods("GET")

	var check, restart http.Handler = http.HandlerFunc(h.RequestCheck), http.HandlerFunc(h.RequestRestart)
	if h.opts.Limiter != nil {
		limit := h.opts.Limiter.Middleware(ratelimit.IPKeyFunc)
		check, restart = limit(check), limit(restart)
	}
	r.Handle("/check", check).Methods("POST")
	r.Handle("/restart", restart).Methods("POST")

	if h.opts.Metrics != nil {
		r.Handle("/metrics", h.opts.Metrics).Methods("GET")
	}
}

// Router returns a new router with every endpoint registered, request IDs
// assigned and requests logged
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog(h.logger))
	h.RegisterRoutes(r)
	return r
}

// Health reports that the process is serving
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"run_id":         h.opts.RunID,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// WorkerStatus is one worker in a status response
type WorkerStatus struct {
	ID         int    `json:"id"`
	Iterations uint64 `json:"iterations"`
	Latched    bool   `json:"latched"`
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	RunID     string         `json:"run_id"`
	Checks    uint64         `json:"checks"`
	LastCheck *report.Check  `json:"last_check,omitempty"`
	Summary   report.Summary `json:"summary"`
	Workers   []WorkerStatus `json:"workers"`
}

// Status reports the latest check and each worker's state. It never
// triggers a check.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		RunID:   h.opts.RunID,
		Checks:  h.opts.Monitor.Count(),
		Summary: h.opts.History.Summary(),
		Workers: make([]WorkerStatus, 0, len(h.opts.Workers)),
	}
	if last, ok := h.opts.Monitor.Last(); ok {
		resp.LastCheck = &last
	}
	for _, wk := range h.opts.Workers {
		resp.Workers = append(resp.Workers, WorkerStatus{
			ID:         wk.ID(),
			Iterations: wk.Iterations(),
			Latched:    wk.Latched(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// History returns recent checks, newest first. ?limit=N caps the count.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, report.Export{
		RunID:   h.opts.RunID,
		Summary: h.opts.History.Summary(),
		Checks:  h.opts.History.Recent(limit),
	})
}

// RequestCheck raises a check request. The check itself happens on the
// monitor's next poll, so this returns 202.
func (h *Handler) RequestCheck(w http.ResponseWriter, r *http.Request) {
	h.opts.Check.Raise()
	h.logger.Info("manual status check requested", logging.Fields{"remote": r.RemoteAddr})
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Manual status check requested",
	})
}

// RequestRestart acknowledges a restart request without acting on it
func (h *Handler) RequestRestart(w http.ResponseWriter, r *http.Request) {
	h.opts.OnRestart()
	h.logger.Warn("restart requested but not supported at runtime", logging.Fields{"remote": r.RemoteAddr})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"restarted": false,
		"message":   "Restarting integer math tasks...",
		"note":      RestartNote,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
