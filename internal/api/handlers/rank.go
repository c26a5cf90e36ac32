package handlers

import (
	"net/http"
	"strings"

	"battery-env/internal/analysis"
	"battery-env/internal/api/models"
	"battery-env/internal/config"
	"battery-env/internal/data"
	"battery-env/internal/model"
	"battery-env/internal/strategy"

	"github.com/gin-gonic/gin"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	deps *Deps
}

// NewRankHandler creates a new rank handler
func NewRankHandler(deps *Deps) *RankHandler {
	return &RankHandler{deps: deps}
}

// RankDatasets handles GET /api/v1/rank
func (h *RankHandler) RankDatasets(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	batt, err := h.deps.resolveBattery(req.BatteryFile, config.BatteryConfig{
		BatterySize:   req.BatterySize,
		MaxChargeRate: req.MaxChargeRate,
		TimeScale:     req.TimeScale,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	var ids []string
	if req.Datasets != "" {
		for _, id := range strings.Split(req.Datasets, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	} else {
		cat, _, err := data.ScanDatasets(h.deps.DataDir)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "DATASETS_LOAD_ERROR", err.Error())
			return
		}
		for _, d := range cat.Datasets {
			ids = append(ids, d.ID)
		}
	}

	byDataset := make(map[string]model.SignalSet, len(ids))
	skipped := map[string]string{}
	for _, id := range ids {
		set, err := h.deps.loadDataset(id, req.LimitSteps)
		if err != nil {
			skipped[id] = err.Error()
			continue
		}
		byDataset[id] = set
	}

	ranked, err := analysis.RankByOracleReward(byDataset, analysis.PotentialParams{
		Battery:  batt.ToModelParams(),
		Baseline: baselineOrDefault(req.Baseline),
		Oracle:   strategy.OracleParams{},
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}
	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:         r.Rank,
			Dataset:      r.Dataset,
			Count:        r.Count,
			SpreadP95P05: r.SpreadP95P05,
			MinCO2:       r.MinCO2,
			MaxCO2:       r.MaxCO2,
			MeanCO2:      r.MeanCO2,
			OracleReward: r.OracleReward,
			IdleReward:   r.IdleReward,
		}
	}

	resp := models.RankResponse{Rankings: rankings}
	if len(skipped) > 0 {
		resp.Skipped = skipped
	}
	c.JSON(http.StatusOK, resp)
}
