package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madeeasy/weave"
	"github.com/madeeasy/weave/internal/config"
)

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func fetch(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAppRoutes(t *testing.T) {
	a, err := New(defaultConfig(t), nil)
	require.NoError(t, err)
	ts := httptest.NewServer(a.Handler())
	defer ts.Close()

	status, body := fetch(t, ts.URL+"/users")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body)

	status, _ = fetch(t, ts.URL+"/users/exceptions")
	assert.Equal(t, http.StatusInternalServerError, status)

	status, body = fetch(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `weave_advised_returns_total{method="UsersController.ListUsers"} 1`)
	assert.Contains(t, body, `weave_advised_errors_total{error_type="*controller.SimulatedError",method="UsersController.ListUsersFaulting"} 1`)
}

func TestAppSuppressingAround(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Aspect.Around.Suppress = true
	cfg.Metrics.Enabled = false
	cfg.RPC.Enabled = false

	a, err := New(cfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(a.Handler())
	defer ts.Close()

	status, body := fetch(t, ts.URL+"/users/exceptions")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	status, _ = fetch(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAppAdvised(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Metrics.Enabled = false
	a, err := New(cfg, nil)
	require.NoError(t, err)

	advised := a.Advised()
	require.Len(t, advised, 2)
	assert.Equal(t, "ListUsers", advised[0].Signature.Method)
	assert.Equal(t, "ListUsersFaulting", advised[1].Signature.Method)

	var points []weave.Point
	for _, r := range advised[0].Registrations {
		points = append(points, r.Point)
	}
	assert.Equal(t, []weave.Point{
		weave.PointBefore,
		weave.PointAfter,
		weave.PointAfterReturning,
		weave.PointAfterThrowing,
		weave.PointAround,
	}, points)
}

func TestAppPointcutMiss(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Aspect.Pointcut = "**/service.*.*"
	a, err := New(cfg, nil)
	require.NoError(t, err)

	for _, adv := range a.Advised() {
		assert.Empty(t, adv.Registrations)
	}
}

func TestAppRejectsConflictingEndpoints(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Metrics.Path = "/users"
	require.Error(t, cfg.Validate())

	var err error
	require.NotPanics(t, func() { _, err = New(cfg, nil) })
	assert.ErrorContains(t, err, "metrics endpoint")

	cfg = defaultConfig(t)
	cfg.RPC.Path = cfg.Metrics.Path
	require.NotPanics(t, func() { _, err = New(cfg, nil) })
	assert.ErrorContains(t, err, "rpc endpoint")
}

func TestAppServeStopsOnCancel(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Server.Address = "127.0.0.1:0"
	a, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
