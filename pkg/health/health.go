// Package health implements liveness and readiness probes. Registered checks
// run periodically in the background with consecutive-failure and
// consecutive-success thresholds so a single hiccup never flips the probe.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component, returning nil when it is healthy.
type CheckFunc func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

// check holds one probe plus its runtime state. The counters belong to the
// single ticker goroutine; healthy and lastErr cross into HTTP handlers and
// are accessed atomically.
type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func newCheck(name string, timeout time.Duration, probe CheckFunc) *check {
	c := &check{name: name, timeout: timeout, probe: probe}
	c.healthy.Store(true)
	return c
}

func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.probe(probeCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		if c.fails++; c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	if c.oks++; c.oks >= successThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "check is unhealthy", true
}

// Health runs the registered probes and serves the probe endpoints. A service
// starts not ready; call SetReady(true) once initialization is done and
// SetReady(false) when draining.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New creates an empty Health registry.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a process-health probe (goroutine leaks, GC
// pauses). A failing liveness probe asks the orchestrator for a restart.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newCheck(name, timeout, probe))
}

// AddReadinessCheck registers a dependency probe (database connectivity). A
// failing readiness probe only removes the instance from load balancing.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newCheck(name, timeout, probe))
}

// Start launches one goroutine per registered check, probing at the given
// interval until Stop is called or ctx is cancelled.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append(append([]*check(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, c := range checks {
		go func(c *check) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness check
// is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.RLock()
	checks := h.readiness
	h.mu.RUnlock()

	for _, c := range checks {
		if _, failed := c.failure(); failed {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe: 200 when every liveness check
// passes, 503 with per-check messages otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check(nil), h.liveness...)
	h.mu.RUnlock()

	writeProbe(w, failures(checks))
}

// ReadyEndpoint serves the readiness probe: 200 when the manual gate is open
// and every readiness check passes, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check(nil), h.readiness...)
	h.mu.RUnlock()

	failed := failures(checks)
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeProbe(w, failed)
}

func failures(checks []*check) map[string]string {
	failed := make(map[string]string)
	for _, c := range checks {
		if msg, ok := c.failure(); ok {
			failed[c.name] = msg
		}
	}
	return failed
}

func writeProbe(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeResponse{Status: "ok"}
	status := http.StatusOK
	if len(failed) > 0 {
		resp = probeResponse{Status: "unhealthy", Checks: failed}
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
