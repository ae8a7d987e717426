// Package health provides HTTP liveness and readiness handlers.
//
//   - /healthz: liveness; always 200 while the process serves HTTP.
//   - /readyz: readiness; 200 when required checks pass, 503 otherwise.
//
// A check may be registered as degradable: its failure is reported in the
// JSON body but keeps /readyz at 200 with status "degraded". The database is
// degradable: the service keeps practising against the ephemeral in-memory
// store when PostgreSQL is down, and operators see that in the probe.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Check is a named dependency probe. Probe must respect context
// cancellation and return nil when healthy.
type Check struct {
	// Name keys the check's result in the JSON response ("database",
	// "asr", ...).
	Name string

	// Probe tests the dependency.
	Probe func(ctx context.Context) error

	// Degradable marks a dependency whose outage leaves the service usable
	// in a reduced mode. A failing degradable check reports "degraded"
	// instead of failing readiness.
	Degradable bool
}

// report is the JSON body for both probes.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. The check list is fixed at
// construction; Handler is safe for concurrent use.
type Handler struct {
	checks []Check
}

// New creates a [Handler] evaluating the given checks, sequentially, on each
// /readyz request.
func New(checks ...Check) *Handler {
	c := make([]Check, len(checks))
	copy(c, checks)
	return &Handler{checks: c}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: "ok"})
}

// Readyz evaluates every check with a [checkTimeout] deadline. Required
// failures produce 503; only degradable failures produce 200 with status
// "degraded".
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checks))
	status := "ok"
	code := http.StatusOK

	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Probe(ctx)
		cancel()

		switch {
		case err == nil:
			checks[c.Name] = "ok"
		case c.Degradable:
			checks[c.Name] = "degraded: " + err.Error()
			if status == "ok" {
				status = "degraded"
			}
		default:
			checks[c.Name] = "fail: " + err.Error()
			status = "fail"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, report{Status: status, Checks: checks})
}

// writeJSON encodes v with the given status code, falling back to a
// plain-text 500 on encoding failure.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
