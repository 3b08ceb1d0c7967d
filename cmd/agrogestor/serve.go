package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/agrogestor/internal/api"
	"github.com/erazemk/agrogestor/internal/metrics"
	"github.com/erazemk/agrogestor/internal/store"
	"github.com/erazemk/agrogestor/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (JSON API, web views and /metrics)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	// Generated on first run and kept in the settings table.
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	m := metrics.New()
	farmStore := newFarmStore(cfg, database, m)

	// Loading once up front repairs a damaged document before the first request.
	doc := farmStore.Load(context.Background())
	slog.Info("farm document loaded",
		"items", len(doc.Inventory),
		"animals", len(doc.Animals),
		"work_orders", len(doc.WorkOrders),
	)

	apiRouter := api.NewRouter(database, farmStore, jwtSecret, api.Options{
		TokenTTL:      cfg.Auth.TokenTTL.Duration,
		AllowRegister: cfg.Auth.AllowRegister,
		SecureCookie:  cfg.Auth.SecureCookie,
	})
	webRouter, err := web.NewRouter(database, farmStore, jwtSecret, web.Options{
		TokenTTL:      cfg.Auth.TokenTTL.Duration,
		AllowRegister: cfg.Auth.AllowRegister,
		SecureCookie:  cfg.Auth.SecureCookie,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           m.Middleware(api.LoggingMiddleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
