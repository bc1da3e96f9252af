package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zoubaax/on-time/internal/api/response"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct {
	now func() time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

type livenessResponse struct {
	Timestamp time.Time `json:"timestamp"`
}

// Liveness reports that the API process is up.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Envelope{data=livenessResponse}
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return response.OK(c, http.StatusOK, "API is running", livenessResponse{Timestamp: h.now().UTC()})
}

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthDependenciesHandler handles GET /health/ready, the readiness probe.
// Checks every registered dependency before declaring the service ready.
// Ping errors are logged; they appear in the body only when exposeErrors is set.
type HealthDependenciesHandler struct {
	checks       map[string]Pinger
	log          zerolog.Logger
	exposeErrors bool
}

func NewHealthDependenciesHandler(checks map[string]Pinger, log zerolog.Logger, exposeErrors bool) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{checks: checks, log: log, exposeErrors: exposeErrors}
}

type dependencyStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string             `json:"status"`
	Dependencies []dependencyStatus `json:"dependencies"`
}

// Readiness pings each dependency.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Envelope{data=readinessResponse}
// @Failure      503  {object}  response.Envelope{data=readinessResponse}
// @Router       /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make([]dependencyStatus, 0, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			st := dependencyStatus{Name: name, Status: "unhealthy"}
			if h.exposeErrors {
				st.Error = err.Error()
			}
			deps = append(deps, st)
			healthy = false
			continue
		}
		deps = append(deps, dependencyStatus{Name: name, Status: "ok"})
	}

	body := readinessResponse{Status: "ok", Dependencies: deps}
	if !healthy {
		body.Status = "degraded"
		return c.JSON(http.StatusServiceUnavailable, response.Envelope{Success: false, Message: "Dependencies unavailable", Data: body})
	}
	return response.OK(c, http.StatusOK, "Ready", body)
}
