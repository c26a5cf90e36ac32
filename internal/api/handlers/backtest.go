package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"battery-env/internal/api/models"
	"battery-env/internal/backtest"
	"battery-env/internal/config"
	"battery-env/internal/model"
	"battery-env/internal/simulator"
	"battery-env/internal/strategy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxKeptResults bounds the in-memory ledger cache.
const maxKeptResults = 64

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	deps *Deps

	mu      sync.Mutex
	results map[string][]simulator.StepRecord
	order   []string
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(deps *Deps) *BacktestHandler {
	return &BacktestHandler{
		deps:    deps,
		results: make(map[string][]simulator.StepRecord),
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	signals, err := h.deps.loadDataset(req.Dataset, req.Options.LimitSteps)
	if err != nil {
		respondErr(c, err)
		return
	}

	run, res, err := h.run(c, signals, req.Config, req.Options.Persist)
	if err != nil {
		return
	}

	h.keep(run.ID.String(), res.Ledger)
	response := models.BacktestResponse{
		ID:       run.ID.String(),
		Status:   "completed",
		Strategy: res.Strategy,
		Summary:  res.Summary,
		Battery:  specsOf(run.Battery),
		Baseline: run.Baseline,
	}
	if req.Options.IncludeLedger {
		response.Ledger = models.NewLedger(res.Ledger)
	}
	c.JSON(http.StatusOK, response)
}

// GetLedger handles GET /api/v1/backtest/:id/ledger. Recent results are
// served from memory, older ones from the run store when one is configured.
func (h *BacktestHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	ledger, ok := h.results[id]
	h.mu.Unlock()
	if !ok && h.deps.Runs != nil {
		if _, err := h.deps.Runs.GetRun(c.Request.Context(), id); err == nil {
			ledger, err = h.deps.Runs.GetSteps(c.Request.Context(), id)
			if err != nil {
				respondErr(c, err)
				return
			}
			ok = true
		}
	}
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no backtest result %q", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"summary": simulator.Summarize(ledger),
		"ledger":  models.NewLedger(ledger),
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Load data once
	signals, err := h.deps.loadDataset(req.Dataset, req.Options.LimitSteps)
	if err != nil {
		respondErr(c, err)
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, variation := range req.Variations {
		cfg := mergeConfig(req.BaseConfig, variation.Config)
		_, res, err := h.build(signals, cfg)
		if err != nil {
			h.deps.logger().Warn("skipping variation", "name", variation.Name, "err", err)
			continue
		}
		comparison = append(comparison, models.ComparisonResult{
			Name:     variation.Name,
			Strategy: res.Strategy,
			Summary:  res.Summary,
		})
	}

	c.JSON(http.StatusOK, models.CompareBacktestResponse{
		Comparison: comparison,
	})
}

// run builds and plays one backtest, writing the error response itself on
// failure.
func (h *BacktestHandler) run(c *gin.Context, signals model.SignalSet, cfg models.BacktestConfig, persist bool) (simulator.Run, *backtest.Result, error) {
	run, res, err := h.build(signals, cfg)
	if err != nil {
		if se, ok := err.(*strategyError); ok {
			respondError(c, http.StatusBadRequest, "INVALID_STRATEGY", se.Error())
		} else {
			respondErr(c, err)
		}
		return run, nil, err
	}
	run.Records = res.Ledger

	if persist {
		for _, sink := range h.deps.Sinks {
			if err := sink.SaveRun(c.Request.Context(), run); err != nil {
				h.deps.logger().Error("persist backtest", "id", run.ID, "err", err)
			}
		}
	}
	return run, res, nil
}

type strategyError struct{ err error }

func (e *strategyError) Error() string { return e.err.Error() }
func (e *strategyError) Unwrap() error { return e.err }

func (h *BacktestHandler) build(signals model.SignalSet, cfg models.BacktestConfig) (simulator.Run, *backtest.Result, error) {
	run := simulator.Run{ID: uuid.New(), StartedAt: time.Now().UTC()}

	batt, err := h.deps.resolveBattery(cfg.BatteryFile, cfg.Battery)
	if err != nil {
		return run, nil, err
	}
	params := batt.ToModelParams()
	baseline := baselineOrDefault(cfg.Baseline)
	run.Battery = params
	run.Baseline = baseline

	sim, err := simulator.New(signals, params,
		simulator.WithBaseline(baseline),
		simulator.WithInitialCharge(batt.InitialCharge),
	)
	if err != nil {
		return run, nil, err
	}
	strat, err := strategy.Build(cfg.Strategy.Name, cfg.Strategy.Params, strategy.Setup{
		Signals:       signals,
		Battery:       params,
		Cost:          model.CostModel{Baseline: baseline, TimeScale: params.TimeScale},
		InitialCharge: batt.InitialCharge,
	})
	if err != nil {
		return run, nil, &strategyError{err: err}
	}

	res, err := backtest.New().Run(sim, strat)
	if err != nil {
		return run, nil, err
	}
	return run, res, nil
}

func (h *BacktestHandler) keep(id string, ledger []simulator.StepRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results[id] = ledger
	h.order = append(h.order, id)
	for len(h.order) > maxKeptResults {
		delete(h.results, h.order[0])
		h.order = h.order[1:]
	}
}

func mergeConfig(base, override models.BacktestConfig) models.BacktestConfig {
	merged := base
	if override.BatteryFile != "" {
		merged.BatteryFile = override.BatteryFile
	}
	merged.Battery = config.MergeBattery(base.Battery, override.Battery)
	if override.Baseline != nil {
		merged.Baseline = override.Baseline
	}
	if override.Strategy.Name != "" {
		merged.Strategy = override.Strategy
	}
	return merged
}
