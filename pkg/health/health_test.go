package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysPass(_ context.Context) error { return nil }

func alwaysFail(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, probeResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body probeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLivenessHealthyByDefault(t *testing.T) {
	h := New()
	h.AddLivenessCheck("one", time.Second, alwaysPass)
	h.AddLivenessCheck("two", time.Second, alwaysPass)

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestLivenessFlipsAtFailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, alwaysFail("connection refused"))
	c := h.liveness[0]
	ctx := context.Background()

	// Below the threshold the check stays healthy.
	c.run(ctx)
	c.run(ctx)
	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)

	c.run(ctx)
	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestCheckRecoversAfterSuccess(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	c := h.liveness[0]
	ctx := context.Background()

	for range failureThreshold {
		c.run(ctx)
	}
	assert.False(t, c.healthy.Load())

	down = false
	c.run(ctx)
	assert.True(t, c.healthy.Load())
}

func TestReadinessGate(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)

	assert.False(t, h.IsReady())
	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "_readiness")

	h.SetReady(true)
	assert.True(t, h.IsReady())
	code, _ = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestReadinessReportsOnlyFailingChecks(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)
	h.AddReadinessCheck("warehouse", time.Second, alwaysFail("sync lag"))
	h.SetReady(true)

	ctx := context.Background()
	for range failureThreshold {
		h.readiness[1].run(ctx)
	}

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "warehouse")
	assert.NotContains(t, body.Checks, "postgres")
	assert.False(t, h.IsReady())
}

func TestNoChecksIsHealthy(t *testing.T) {
	h := New()
	h.SetReady(true)

	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	code, _ = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, alwaysPass)
	h.Start(context.Background(), 50*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentProbeAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("a", time.Second, alwaysFail("err"))
	h.AddReadinessCheck("b", time.Second, alwaysPass)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()
				probe(t, h.LiveEndpoint)
				probe(t, h.ReadyEndpoint)
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
