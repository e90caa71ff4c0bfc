// Package app wires the controller, aspects and transports into a server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/madeeasy/weave"
	"github.com/madeeasy/weave/internal/aspects"
	"github.com/madeeasy/weave/internal/config"
	"github.com/madeeasy/weave/internal/controller"
	"github.com/madeeasy/weave/internal/httpapi"
	"github.com/madeeasy/weave/internal/rpc"
	"github.com/madeeasy/weave/internal/telemetry"
)

// App is the assembled users service.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	interceptor *weave.Interceptor
	proxy       *weave.Proxy
	handler     *httpapi.Handler
	rpc         *rpc.Server
	metrics     *prometheus.Registry
}

// New builds the service from cfg.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("app")

	pc, err := weave.Pattern(cfg.Aspect.Pointcut)
	if err != nil {
		return nil, fmt.Errorf("aspect pointcut: %w", err)
	}

	registry := weave.NewRegistry(weave.RegistryOptions{Logger: logger.Named("weave")})
	aspects.NewUsersAspect(logger, aspects.AroundOptions{
		Enabled:  cfg.Aspect.Around.Enabled,
		Suppress: cfg.Aspect.Around.Suppress,
	}).Register(registry, pc)

	a := &App{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		a.metrics = prometheus.NewRegistry()
		aspects.NewMetricsAspect(telemetry.NewPrometheusMetrics(a.metrics)).Register(registry, pc)
	}

	a.interceptor = registry.Build()
	a.proxy, err = a.interceptor.Proxy(controller.NewUsersController(logger))
	if err != nil {
		return nil, fmt.Errorf("proxy users controller: %w", err)
	}

	a.handler = httpapi.NewHandler(a.proxy, logger)
	if a.metrics != nil {
		if err := a.handler.Mount("GET "+cfg.Metrics.Path, telemetry.Handler(a.metrics)); err != nil {
			return nil, fmt.Errorf("metrics endpoint: %w", err)
		}
	}
	if cfg.RPC.Enabled {
		a.rpc = rpc.NewServer(a.proxy, logger)
		if err := a.handler.Mount("GET "+cfg.RPC.Path, a.rpc); err != nil {
			return nil, fmt.Errorf("rpc endpoint: %w", err)
		}
	}
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Advice describes the advice applied to one controller method.
type Advice struct {
	Signature     weave.Signature
	Registrations []weave.Registration
}

// Advised reports, per controller method, which advice applies to it.
func (a *App) Advised() []Advice {
	var out []Advice
	for _, sig := range a.proxy.Signatures() {
		out = append(out, Advice{Signature: sig, Registrations: a.interceptor.Advised(sig)})
	}
	return out
}

// Serve listens on the configured address until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			zap.String("addr", server.Addr),
			zap.Bool("metrics", a.cfg.Metrics.Enabled),
			zap.Bool("rpc", a.cfg.RPC.Enabled),
			zap.Bool("around", a.cfg.Aspect.Around.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		timeout := time.Duration(a.cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if a.rpc != nil {
			_ = a.rpc.Close()
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", zap.Error(err))
			return err
		}
		a.logger.Info("http server stopped")
		return nil
	}
}
