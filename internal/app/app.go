// Package app wires configuration, storage, the reminder scheduler and
// the HTTP API together and owns the process lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"docroute-api/internal/clock"
	"docroute-api/internal/config"
	"docroute-api/internal/db"
	"docroute-api/internal/extract"
	"docroute-api/internal/handlers"
	"docroute-api/internal/metrics"
	"docroute-api/internal/notifier"
	"docroute-api/internal/repository"
	"docroute-api/internal/scheduler"
	"docroute-api/internal/server"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Deadline Routing Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics()

	clk, err := clock.NewReal(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to initialize clock: %w", err)
	}

	var n notifier.Notifier
	if cfg.Mail.UseGmailAPI {
		n, err = notifier.NewGmailNotifier(&cfg.Mail)
		if err != nil {
			return fmt.Errorf("failed to create Gmail notifier: %w", err)
		}
		logrus.Info("Using Gmail API for reminder delivery")
	} else {
		n, err = notifier.NewSMTPNotifier(&cfg.Mail, cfg.Scheduler.DispatchTimeout)
		if err != nil {
			return fmt.Errorf("failed to create SMTP notifier: %w", err)
		}
		logrus.Info("Using SMTP for reminder delivery")
	}

	store := repository.New(dbConn)

	sched := scheduler.NewScheduler(&cfg.Scheduler, store, n, clk, m)

	h := handlers.NewHandlers(store, extract.NewFileTextSource(), sched, clk, m, cfg.UploadDir)
	router := server.SetupRouter(h, cfg.Auth.JWTSecret)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if err := n.Close(); err != nil {
		logrus.Errorf("Failed to close notifier: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
