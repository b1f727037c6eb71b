package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "RankPulse/internal/domain/repository"
	"RankPulse/internal/usecase"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/config"
	xhttp "RankPulse/pkg/http"
	applogger "RankPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	coord      *usecase.Coordinator
	collector  *usecase.QuoteCollector
	handler    xhttp.Handler
	cacheSvc   cache.Service
	sink       drepo.AlertSink
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	coord *usecase.Coordinator,
	collector *usecase.QuoteCollector,
	handler xhttp.Handler,
	cacheSvc cache.Service,
	sink drepo.AlertSink,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		coord:     coord,
		collector: collector,
		handler:   handler,
		cacheSvc:  cacheSvc,
		sink:      sink,
	}
}

// Run starts the polling loop and HTTP server, then blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.log, time.Second),
	)

	go a.coord.Run(ctx)
	a.log.Info("coordinator started",
		applogger.Int("instruments", len(a.cfg.Scan.Codes)),
		applogger.Duration("cadence", a.cfg.Scan.Cadence))

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("quote stream error", applogger.Error(err))
			}
		}()
		a.log.Info("realtime quote stream started")
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.log.Warn("quote stream stop error", applogger.Error(err))
		}
	}

	if err := a.sink.Close(); err != nil {
		a.log.Warn("alert sink close error", applogger.Error(err))
	}
	if err := a.cacheSvc.Close(); err != nil {
		a.log.Warn("cache close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
