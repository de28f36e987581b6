package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"SalesPulse/internal/service/notify"
	"SalesPulse/pkg/config"
	xhttp "SalesPulse/pkg/http"
	pkgkafka "SalesPulse/pkg/kafka"
	applogger "SalesPulse/pkg/logger"
	"SalesPulse/pkg/queue"
)

// NamedCloser is a resource released on shutdown.
type NamedCloser struct {
	Name   string
	Closer io.Closer
}

// Closers are released in order after every worker has stopped.
type Closers []NamedCloser

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	hub        *notify.Hub
	consumer   *pkgkafka.Consumer
	queue      *queue.RedisQueue
	closers    Closers
	hubDone    chan struct{}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, hub *notify.Hub, closers Closers) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        l.Component("app"),
		httpServer: httpServer,
		hub:        hub,
		closers:    closers,
		hubDone:    make(chan struct{}),
	}
}

// SetConsumer attaches a Kafka consumer with its handlers registered.
func (a *App) SetConsumer(c *pkgkafka.Consumer) { a.consumer = c }

// SetQueue attaches the background job queue.
func (a *App) SetQueue(q *queue.RedisQueue) { a.queue = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer close(a.hubDone)
		a.hub.Run(ctx)
	}()

	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.OpportunityTopic))
	}

	if a.queue != nil {
		if err := a.queue.Start(ctx); err != nil {
			// email retries are optional
			a.log.Warn("job queue not started", applogger.Error(err))
			a.queue = nil
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	return a.shutdown(cancel)
}

// shutdown stops intake first, then background workers, then connections.
func (a *App) shutdown(cancel context.CancelFunc) error {
	ctx, done := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer done()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("job queue stop error", applogger.Error(err))
		}
	}

	cancel()
	select {
	case <-a.hubDone:
	case <-ctx.Done():
		a.log.Warn("alert hub did not stop in time")
	}

	for _, c := range a.closers {
		if err := c.Closer.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
