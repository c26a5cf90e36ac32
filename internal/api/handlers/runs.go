package handlers

import (
	"net/http"

	"battery-env/internal/api/models"
	"battery-env/internal/model"

	"github.com/gin-gonic/gin"
)

// RunHandler reads persisted runs back out of the run store.
type RunHandler struct {
	deps *Deps
}

func NewRunHandler(deps *Deps) *RunHandler {
	return &RunHandler{deps: deps}
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}

	runs, err := h.deps.Runs.ListRuns(c.Request.Context(), q.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]models.RunInfo, len(runs))
	for i, r := range runs {
		out[i] = models.RunInfo{
			ID:        r.ID,
			StartedAt: r.StartedAt,
			SavedAt:   r.SavedAt,
			Battery: specsOf(model.BatteryParams{
				Capacity:      r.Capacity,
				MaxChargeRate: r.MaxChargeRate,
				TimeScale:     r.TimeScale,
			}),
			Baseline:    r.Baseline,
			Steps:       r.Steps,
			TotalReward: r.TotalReward,
			FinalCharge: r.FinalCharge,
		}
	}
	c.JSON(http.StatusOK, gin.H{"runs": out, "count": len(out)})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	if !h.available(c) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.deps.Runs.GetRun(ctx, id); err != nil {
		respondErr(c, err)
		return
	}
	steps, err := h.deps.Runs.GetSteps(ctx, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "ledger": models.NewLedger(steps)})
}

func (h *RunHandler) available(c *gin.Context) bool {
	if h.deps.Runs == nil {
		respondError(c, http.StatusNotFound, "RUN_STORE_DISABLED", "no run store configured (set RUN_DB)")
		return false
	}
	return true
}
