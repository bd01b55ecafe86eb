package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahana/eden/db"
	"github.com/sahana/eden/internal/auth"
	"github.com/sahana/eden/internal/config"
	"github.com/sahana/eden/internal/handlers"
	"github.com/sahana/eden/internal/importer"
	"github.com/sahana/eden/internal/logging"
	"github.com/sahana/eden/internal/mailer"
	"github.com/sahana/eden/internal/metrics"
	"github.com/sahana/eden/internal/monitors"
	"github.com/sahana/eden/internal/project"
	"github.com/sahana/eden/internal/router"
	"github.com/sahana/eden/internal/scheduler"
	"github.com/sahana/eden/internal/services"
)

const shutdownTimeout = 15 * time.Second

// app is the wired service.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	metrics   *metrics.Metrics
	hub       *handlers.Hub
	store     *monitors.GormStore
	checker   *monitors.Checker
	scheduler *scheduler.Scheduler
	closers   []io.Closer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	gdb, err := db.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		db:      gdb,
		metrics: metrics.New(),
		hub:     handlers.NewHub(cfg.AllowedOrigins, logger),
		store:   monitors.NewStore(gdb),
	}

	queue := scheduler.NewQueue(gdb, cfg.Scheduler.PollInterval, a.metrics, logger)

	a.checker = &monitors.Checker{
		Store:      a.store,
		Scheduler:  queue,
		Mailer:     mailer.NewSMTP(cfg.Mail),
		Commands:   monitors.ExecRunner{},
		MailSender: cfg.Mail.Sender,
		Logger:     logger,
	}

	queue.Handle(monitors.EmailReplyFunction, scheduler.EmailReplyHandler(a.checker))

	a.scheduler = scheduler.New(gdb, a.checker, scheduler.Deps{
		Store:       a.store,
		Queue:       queue,
		Notifier:    a.notifiers(),
		Metrics:     a.metrics,
		Broadcaster: a.hub,
		Logger:      logger,
	})

	return a, nil
}

// notifiers builds the alert fan-out from whichever sinks are configured.
func (a *app) notifiers() services.Notifier {
	var notifiers services.Notifiers

	alerts := a.cfg.Alerts
	if alerts.SlackWebhook != "" || alerts.DiscordWebhook != "" {
		notifiers = append(notifiers, services.NewWebhookNotifier(alerts.SlackWebhook, alerts.DiscordWebhook))
	}

	if len(a.cfg.Kafka.Brokers) > 0 {
		publisher := services.NewKafkaPublisher(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
		notifiers = append(notifiers, publisher)
		a.closers = append(a.closers, publisher)
	}

	if len(notifiers) == 0 {
		return nil
	}
	return notifiers
}

func (a *app) handler() (*handlers.Handler, error) {
	tokens, err := auth.NewTokens(a.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &handlers.Handler{
		DB:           a.db,
		Projects:     project.NewService(a.db, a.cfg.Project, a.logger),
		Importer:     importer.New(a.db, a.cfg.Project.CommunityActivity, a.logger),
		Scheduler:    a.scheduler,
		Checks:       a.checker.Registry(),
		Replies:      a.store,
		Tokens:       tokens,
		Settings:     a.cfg.Project,
		CookieDomain: a.cfg.CookieDomain,
		Logger:       a.logger,
	}, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close", zap.Error(err))
		}
	}

	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	_ = a.logger.Sync()
}

func serve(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := db.MigrateDatabase(a.db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer a.scheduler.Stop()

	h, err := a.handler()
	if err != nil {
		return err
	}

	engine := router.NewRouter(h, router.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		Metrics:        a.metrics,
		Hub:            a.hub,
		Logger:         a.logger,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func migrate() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := db.MigrateDatabase(a.db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	a.logger.Info("database migrated")
	return nil
}

func check(ctx context.Context, out io.Writer, taskID uint) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	run, result, err := a.scheduler.RunTask(ctx, taskID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run %d: %s\n%s\n", run.ID, result.Status, result.Message)
	return nil
}
