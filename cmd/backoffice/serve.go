package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/suteetoe/backoffice/internal/admin"
	"github.com/suteetoe/backoffice/internal/cache"
	"github.com/suteetoe/backoffice/internal/i18n"
	"github.com/suteetoe/backoffice/internal/server"
	"github.com/suteetoe/backoffice/pkg/database"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides SERVER_PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	log.Info("Starting back-office service...", zap.String("environment", cfg.Server.Env))

	if cfg.DB.AutoMigrate {
		if err := admin.Migrate(db, log); err != nil {
			return err
		}
	}

	dashboard, closeCache, err := cache.New(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	translator, err := i18n.New(cfg.I18n.DefaultLanguage)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := server.New(server.Options{
		Config:     cfg,
		DB:         db,
		Dashboard:  dashboard,
		Registry:   registry,
		Translator: translator,
	})

	port := cfg.Server.Port
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to start server", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
