package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"build-hooks/internal/api"
	"build-hooks/internal/app"
	"build-hooks/internal/logging"
	"build-hooks/internal/scheduler"
	ws "build-hooks/internal/websocket"
	"build-hooks/pkg/config"
)

const version = "1.0.0"

func main() {
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		showVer    = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("build-hooks server version %s\n", version)
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Log.Level)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	hub := ws.NewHub()
	go hub.Run()

	a, err := app.New(cfg, hub)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewScheduler(a.Service, cfg.Refresh.Cron)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start status refresher: %w", err)
	}
	defer sched.Stop()

	gin.SetMode(gin.ReleaseMode)
	router, err := api.NewRouter(api.Deps{
		Service:    a.Service,
		Store:      a.Store,
		Hub:        hub,
		RoleHeader: cfg.Server.RoleHeader,
		Version:    version,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}
