package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-env/internal/api/handlers"
	"battery-env/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every handler under /api/v1. staticDir may be empty.
func NewRouter(deps *handlers.Deps, staticDir string) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// Initialize handlers
	backtestHandler := handlers.NewBacktestHandler(deps)
	episodeHandler := handlers.NewEpisodeHandler(deps)
	batteryHandler := handlers.NewBatteryHandler(deps)
	strategyHandler := handlers.NewStrategyHandler()
	datasetHandler := handlers.NewDatasetHandler(deps)
	rankHandler := handlers.NewRankHandler(deps)
	runHandler := handlers.NewRunHandler(deps)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Diagnostic endpoint to check the configured directories
	router.GET("/debug/dirs", func(c *gin.Context) {
		wd, _ := os.Getwd()
		c.JSON(http.StatusOK, gin.H{
			"working_directory":  wd,
			"battery_dir":        batteryHandler.GetBatteryDir(),
			"battery_dir_exists": dirExists(batteryHandler.GetBatteryDir()),
			"data_dir":           deps.DataDir,
			"data_dir_exists":    dirExists(deps.DataDir),
			"cached_datasets":    deps.Cache.Len(),
			"run_store":          deps.Runs != nil,
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/ledger", backtestHandler.GetLedger)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)

		api.GET("/episodes", episodeHandler.List)
		api.POST("/episodes", episodeHandler.Create)
		api.GET("/episodes/:id", episodeHandler.Get)
		api.POST("/episodes/:id/step", episodeHandler.Step)
		api.POST("/episodes/:id/reset", episodeHandler.Reset)
		api.GET("/episodes/:id/log", episodeHandler.Log)
		api.DELETE("/episodes/:id", episodeHandler.Delete)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/strategies", strategyHandler.ListStrategies)

		api.GET("/rank", rankHandler.RankDatasets)

		api.GET("/datasets", datasetHandler.ListDatasets)
		api.GET("/datasets/:id", datasetHandler.GetDataset)

		api.GET("/runs", runHandler.ListRuns)
		api.GET("/runs/:id", runHandler.GetRun)
	}

	if staticDir != "" && dirExists(staticDir) {
		// Serve static assets
		router.Static("/assets", filepath.Join(staticDir, "assets"))
		router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))

		// Serve index.html for all non-API routes (SPA routing)
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
			c.File(filepath.Join(staticDir, "index.html"))
		})
		slog.Info("serving static files", "dir", staticDir)
	}

	return router
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
