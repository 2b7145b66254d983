package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MacroPulse/internal/handler/api"
	"MacroPulse/internal/service/ratelimit"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	applogger "MacroPulse/pkg/logger"
)

// limiterIdle is how long a client key may stay unused before its bucket is dropped.
const limiterIdle = 10 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	handler    *api.SnapshotEchoHandler
	refresher  *usecase.Refresher
	limiter    *ratelimit.Limiter
}

// New creates a new App instance with all dependencies.
// refresher and limiter may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	handler *api.SnapshotEchoHandler,
	refresher *usecase.Refresher,
	limiter *ratelimit.Limiter,
) *App {
	if log == nil {
		log = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		handler:    handler,
		refresher:  refresher,
		limiter:    limiter,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is cancelled.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Duration("ttl", a.cfg.Cache.TTL),
	)

	if a.refresher != nil && a.cfg.Refresh.Enabled {
		if err := a.refresher.Start(a.cfg.Refresh.Interval); err != nil {
			a.log.Warn("refresher not started", applogger.Error(err))
		} else {
			a.log.Info("refresher started", applogger.Duration("interval", a.cfg.Refresh.Interval))
		}
	}

	sweepDone := make(chan struct{})
	go a.sweepLimiter(ctx, sweepDone)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	<-sweepDone
	return a.shutdown()
}

func (a *App) sweepLimiter(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	if a.limiter == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Sweep(limiterIdle); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("removed", n), applogger.Int("active", a.limiter.Len()))
			}
		}
	}
}

// shutdown gracefully stops all services. Cache, producer and log collector are
// released by the DI cleanup after Run returns.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	if a.refresher != nil {
		a.refresher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	var errs []error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	// pending cache writes must land before the store is closed
	a.handler.Wait()

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
