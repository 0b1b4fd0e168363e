package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/board-elections/cliparse"
	"github.com/danielhkuo/board-elections/db"
	"github.com/danielhkuo/board-elections/middleware"
	"github.com/danielhkuo/board-elections/notify"
	"github.com/danielhkuo/board-elections/router"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Apply migrations
	if err := db.CreateSchema(ctx, dbConn, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Notification workers
	notifier := notify.NewNotifier(dbConn, notify.LogMailer{Logger: slog.Default()}, notify.Settings{
		SiteURL:          cfg.SiteURL,
		AcceptancePeriod: cfg.AcceptancePeriod,
	}, nil)
	pool := notify.NewWorkerPool(notify.NewQueue(dbConn), notifier.Handlers(), slog.Default(), cfg.Workers)
	pool.Start(ctx)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(router.NewRouter(dbConn, cfg)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "workers", cfg.Workers)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
	pool.Stop()
}
