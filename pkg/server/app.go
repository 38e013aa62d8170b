package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinBoard/internal/handler/api"
	"CoinBoard/internal/handler/ws"
	"CoinBoard/internal/service/scheduler"
	"CoinBoard/internal/usecase"
	pkgch "CoinBoard/pkg/clickhouse"
	"CoinBoard/pkg/config"
	xhttp "CoinBoard/pkg/http"
	pkgkafka "CoinBoard/pkg/kafka"
	applogger "CoinBoard/pkg/logger"
	pkgqueue "CoinBoard/pkg/queue"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    *api.CryptoHandler
	hub        *ws.Hub
	refresher  *usecase.Refresher
	sched      *scheduler.Scheduler
	consumer   *pkgkafka.Consumer
	kh         *usecase.KafkaSnapshotsHandler
	chClient   *pkgch.Client
	logQueue   *pkgqueue.RedisQueue
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.CryptoHandler,
	hub *ws.Hub,
	refresher *usecase.Refresher,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotsHandler,
	chClient *pkgch.Client,
	logQueue *pkgqueue.RedisQueue,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		handler:   handler,
		hub:       hub,
		refresher: refresher,
		sched:     sched,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		logQueue:  logQueue,
	}
}

// RegisterRoutes mounts the REST and WebSocket surfaces on one Echo instance.
func (a *App) RegisterRoutes(e *echo.Echo) {
	a.handler.RegisterRoutes(e)
	a.hub.RegisterRoutes(e)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true),
		xhttp.WithRequestMetrics(a.l, time.Second),
	)

	// Consumer first so snapshots flow in kafka mode before any refresh.
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.logQueue != nil {
		if err := a.logQueue.Start(); err != nil {
			a.l.Warn("log queue start error", applogger.Error(err))
		}
	}

	// Fill an empty store before serving, then schedule refreshes.
	go func() {
		if err := a.refresher.EnsureInitialData(ctx); err != nil {
			a.l.Error("initial refresh error", applogger.Error(err))
		}
		if a.cfg.Refresh.RunOnStart {
			if err := a.sched.RunNow(ctx); err != nil {
				a.l.Error("startup refresh error", applogger.Error(err))
			}
		}
	}()

	if err := a.sched.Register(a.cfg.Refresh.CronSpec); err != nil {
		return err
	}
	a.sched.Start()
	a.l.Info("refresh scheduled", applogger.String("cron", a.cfg.Refresh.CronSpec))

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.sched.Stop(ctx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	a.hub.Close()

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.logQueue != nil {
		if err := a.logQueue.Stop(ctx); err != nil {
			a.l.Warn("log queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
