package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battery-env/internal/api"
	"battery-env/internal/api/handlers"
	"battery-env/internal/backtest"
	"battery-env/internal/data"
	"battery-env/internal/logging"
	"battery-env/internal/simulator"
	"battery-env/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	log := logging.FromEnv()

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cacheTTL := time.Hour
	if v := os.Getenv("DATA_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cacheTTL = parsed
		}
	}

	deps := &handlers.Deps{
		DataDir:    handlers.DefaultDir("DATA_DIR", "examples", "data"),
		BatteryDir: handlers.DefaultDir("BATTERY_DIR", "examples", "batteries"),
		Cache:      data.NewCache(cacheTTL),
		Logger:     log,
	}
	log.Info("directories", "data_dir", deps.DataDir, "battery_dir", deps.BatteryDir)

	if dir := os.Getenv("RESULTS_DIR"); dir != "" {
		deps.Sinks = append(deps.Sinks, backtest.CSVSink{Dir: dir})
		log.Info("writing run CSVs", "dir", dir)
	}
	if path := os.Getenv("RUN_DB"); path != "" {
		repo, err := store.New(path)
		if err != nil {
			log.Error("open run store", "path", path, "err", err)
			os.Exit(1)
		}
		defer repo.Close()
		deps.Runs = repo
		deps.Sinks = append(deps.Sinks, simulator.RunSink(repo))
		log.Info("persisting runs", "db", path)
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	router := api.NewRouter(deps, staticDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go pruneCache(ctx, deps.Cache)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting API server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
	log.Info("exiting")
}

// pruneCache periodically removes expired datasets
func pruneCache(ctx context.Context, c *data.Cache) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}
