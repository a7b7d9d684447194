package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/agenda/internal/metrics"
)

const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "fail"

	checkTimeout = 2 * time.Second
)

// HealthProbe is satisfied by *postgres.DB.
type HealthProbe interface {
	Ping(ctx context.Context) error
	MigrationState(ctx context.Context) (version int64, dirty bool, err error)
	PoolStats() map[string]any
}

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms"`
	Details   map[string]any `json:"details,omitempty"`
}

type HealthChecker struct {
	probe     HealthProbe
	version   string
	gitCommit string
}

func NewHealthChecker(probe HealthProbe, version, gitCommit string) *HealthChecker {
	return &HealthChecker{probe: probe, version: version, gitCommit: gitCommit}
}

// Health runs every check and reports 503 when any of them fails.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "shutting_down"})
			return
		}

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(r.Context()),
			"migrations": h.checkMigrations(r.Context()),
		}

		overall, statusCode := summarize(checks)
		recordHealth(overall, checks)

		writeJSON(w, statusCode, HealthCheck{
			Status:    overall,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Readyz reports ready once the database answers.
func (h *HealthChecker) Readyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check := h.checkDatabase(r.Context()); check.Status == statusFail {
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.probe == nil {
		return CheckResult{Status: statusFail, Message: "Database pool not initialized"}
	}

	dbCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := h.probe.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Database query failed"
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(dbCtx.Err(), context.DeadlineExceeded):
			message = fmt.Sprintf("Database query timed out after %s", checkTimeout)
		case strings.Contains(err.Error(), "connection refused"):
			message = "Database connection refused"
		case strings.Contains(err.Error(), "authentication failed"):
			message = "Database authentication failed"
		}
		return CheckResult{
			Status:    statusFail,
			Message:   message,
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	return CheckResult{
		Status:    statusPass,
		Message:   "PostgreSQL connection successful",
		LatencyMs: latency,
		Details:   h.probe.PoolStats(),
	}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.probe == nil {
		return CheckResult{Status: statusFail, Message: "Database pool not initialized"}
	}

	migCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	version, dirty, err := h.probe.MigrationState(migCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Failed to query migration version"
		if strings.Contains(err.Error(), "does not exist") {
			message = "Migrations table not found; run `agenda migrate up`"
		}
		return CheckResult{
			Status:    statusFail,
			Message:   message,
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	if dirty {
		return CheckResult{
			Status:    statusFail,
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details:   map[string]any{"version": version, "dirty": true},
		}
	}

	return CheckResult{
		Status:    statusPass,
		Message:   fmt.Sprintf("Migrations applied successfully (version %d)", version),
		LatencyMs: latency,
		Details:   map[string]any{"version": version, "dirty": false},
	}
}

func summarize(checks map[string]CheckResult) (string, int) {
	overall := "healthy"
	for _, check := range checks {
		switch check.Status {
		case statusFail:
			return "unhealthy", http.StatusServiceUnavailable
		case statusWarn:
			overall = "degraded"
		}
	}
	return overall, http.StatusOK
}

func recordHealth(overall string, checks map[string]CheckResult) {
	switch overall {
	case "healthy":
		metrics.HealthStatus.Set(2)
	case "degraded":
		metrics.HealthStatus.Set(1)
	default:
		metrics.HealthStatus.Set(0)
	}
	for name, check := range checks {
		value := 0.0
		switch check.Status {
		case statusPass:
			value = 2
		case statusWarn:
			value = 1
		}
		metrics.HealthCheckStatus.WithLabelValues(name).Set(value)
		metrics.HealthCheckLatency.WithLabelValues(name).Set(float64(check.LatencyMs))
	}
}

// Healthz is the liveness probe; it never touches the database.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	writeJSON(w, status, healthResponse{Status: value})
}
