package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-env/internal/api/models"
	"battery-env/internal/config"
	"battery-env/internal/data"
	"battery-env/internal/model"
	"battery-env/internal/simulator"
	"battery-env/internal/store"

	"github.com/gin-gonic/gin"
)

// Deps is what the handlers share.
type Deps struct {
	DataDir    string
	BatteryDir string
	Cache      *data.Cache
	// Sinks receive every run an episode reset or a persisted backtest finishes.
	Sinks []simulator.RunSink
	// Runs is optional; the run endpoints answer 404 without it.
	Runs   *store.Repository
	Logger *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// DefaultDir resolves an env var, falling back to a path under the working directory.
func DefaultDir(envVar string, fallback ...string) string {
	dir := os.Getenv(envVar)
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = filepath.Join(append([]string{wd}, fallback...)...)
		} else {
			dir = filepath.Join(append([]string{"."}, fallback...)...)
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

var errInvalidBattery = errors.New("invalid battery")

// loadDataset resolves a dataset id under DataDir, optionally truncated.
func (d *Deps) loadDataset(id string, limit int) (model.SignalSet, error) {
	path, err := data.ResolveDataset(d.DataDir, id)
	if err != nil {
		return model.SignalSet{}, err
	}
	set, err := d.Cache.Get(path)
	if err != nil {
		return model.SignalSet{}, err
	}
	if limit > 0 {
		set = set.Head(limit)
	}
	return set, nil
}

// resolveBattery merges a preset (looked up by id in BatteryDir) with
// explicit overrides and validates the result.
func (d *Deps) resolveBattery(file string, override config.BatteryConfig) (config.BatteryConfig, error) {
	b := override
	if file != "" {
		if strings.ContainsAny(file, `/\`) {
			return config.BatteryConfig{}, fmt.Errorf("%w: bad preset id %q", errInvalidBattery, file)
		}
		loaded, err := config.LoadBatteryFile(filepath.Join(d.BatteryDir, file+".yaml"))
		if err != nil {
			return config.BatteryConfig{}, fmt.Errorf("%w: preset %q: %v", errInvalidBattery, file, err)
		}
		b = config.MergeBattery(loaded, override)
	}
	if err := b.Validate(); err != nil {
		return config.BatteryConfig{}, fmt.Errorf("%w: %v", errInvalidBattery, err)
	}
	return b, nil
}

func baselineOrDefault(b *float64) float64 {
	if b == nil {
		return model.DefaultBaseline
	}
	return *b
}

func specsOf(p model.BatteryParams) models.BatterySpecs {
	return models.BatterySpecs{
		BatterySize:   p.Capacity,
		MaxChargeRate: p.MaxChargeRate,
		TimeScale:     p.TimeScale,
	}
}

// statusFor maps domain errors onto HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrMalformedSeries):
		return http.StatusBadRequest, "MALFORMED_SERIES"
	case errors.Is(err, simulator.ErrOutOfRangeStep):
		return http.StatusConflict, "OUT_OF_RANGE_STEP"
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound, "RUN_NOT_FOUND"
	case errors.Is(err, errInvalidBattery):
		return http.StatusBadRequest, "INVALID_BATTERY"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondErr picks status and code from the error itself.
func respondErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	respondError(c, status, code, err.Error())
}
