// Package server exposes the editor operations over HTTP. The background
// removal routes follow the relay wire contract, so one photocore instance
// can act as the relay of another.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/photocore/internal/editor"
	"github.com/MeKo-Tech/photocore/internal/pipeline"
)

// Config tunes the API server.
type Config struct {
	CacheControl string
	// MaxConcurrent bounds the number of image jobs running at once.
	MaxConcurrent  int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// API serves the editor operations.
type API struct {
	svc    *editor.Service
	logger *slog.Logger
	sem    chan struct{}
	cfg    Config

	activeJobs     atomic.Int32
	queuedJobs     atomic.Int32
	totalProcessed atomic.Int64
	totalFailed    atomic.Int64
	currentJobs    sync.Map // job id -> jobInfo
}

type jobInfo struct {
	start time.Time
	route string
}

// Status is a snapshot of the job counters.
type Status struct {
	Jobs JobStatus `json:"jobs"`
}

// JobStatus contains current job status.
type JobStatus struct {
	CurrentJobs    []string `json:"current_jobs"`
	ActiveJobs     int      `json:"active_jobs"`
	QueuedJobs     int      `json:"queued_jobs"`
	MaxConcurrent  int      `json:"max_concurrent"`
	TotalProcessed int64    `json:"total_processed"`
	TotalFailed    int64    `json:"total_failed"`
}

// errBadRequest marks client errors that are not decode failures.
var errBadRequest = errors.New("bad request")

// NewAPI creates the API server.
func NewAPI(svc *editor.Service, cfg Config, logger *slog.Logger) *API {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 50 << 20
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &API{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
	}
}

func (a *API) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Status returns the current job counters.
func (a *API) Status() Status {
	var current []string
	a.currentJobs.Range(func(key, value any) bool {
		info := value.(jobInfo)
		current = append(current, fmt.Sprintf("%s %s (%s)", info.route, key.(string), time.Since(info.start).Round(time.Millisecond)))
		return true
	})
	sort.Strings(current)

	return Status{
		Jobs: JobStatus{
			ActiveJobs:     int(a.activeJobs.Load()),
			QueuedJobs:     int(a.queuedJobs.Load()),
			TotalProcessed: a.totalProcessed.Load(),
			TotalFailed:    a.totalFailed.Load(),
			CurrentJobs:    current,
			MaxConcurrent:  a.cfg.MaxConcurrent,
		},
	}
}

// Handler returns the routed API with CORS applied.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/status", a.handleStatus)
	mux.HandleFunc("GET /api/filters", a.handleFilters)
	mux.HandleFunc("GET /api/stats", a.handleStats)

	mux.HandleFunc("POST /api/bg/preview", a.handleRemove(true))
	mux.HandleFunc("POST /api/bg/remove", a.handleRemove(false))
	mux.HandleFunc("POST /api/color/preview", a.handleColor(true))
	mux.HandleFunc("POST /api/color/correct", a.handleColor(false))
	mux.HandleFunc("POST /api/sharpen/preview", a.handleSharpen(true))
	mux.HandleFunc("POST /api/sharpen/enhance", a.handleSharpen(false))
	mux.HandleFunc("POST /api/render", a.handleRender)

	return withCORS(mux)
}

// process runs one image job under the concurrency limit and writes its
// JSON answer.
func (a *API) process(w http.ResponseWriter, r *http.Request, route string, job func(ctx context.Context) (any, error)) {
	id := uuid.NewString()

	a.queuedJobs.Add(1)
	select {
	case a.sem <- struct{}{}:
		a.queuedJobs.Add(-1)
		defer func() { <-a.sem }()
	case <-r.Context().Done():
		a.queuedJobs.Add(-1)
		writeError(w, http.StatusRequestTimeout, "request cancelled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.RequestTimeout)
	defer cancel()

	a.activeJobs.Add(1)
	a.currentJobs.Store(id, jobInfo{route: route, start: time.Now()})
	start := time.Now()

	out, err := job(ctx)

	a.activeJobs.Add(-1)
	a.currentJobs.Delete(id)

	if err != nil {
		a.totalFailed.Add(1)
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			a.log().Error("job failed", "route", route, "id", id, "error", err)
		} else {
			a.log().Warn("job rejected", "route", route, "id", id, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	a.totalProcessed.Add(1)
	a.log().Info("job done", "route", route, "id", id, "ms", time.Since(start).Milliseconds())

	w.Header().Set("Cache-Control", a.cfg.CacheControl)
	a.writeJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, editor.ErrDecode),
		errors.Is(err, pipeline.ErrInvalidScene):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log().Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Success: false, Error: msg})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
