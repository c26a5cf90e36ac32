package handlers

import (
	"net/http"

	"battery-env/internal/data"

	"github.com/gin-gonic/gin"
)

// DatasetHandler lists the datasets under DATA_DIR.
type DatasetHandler struct {
	deps *Deps
}

func NewDatasetHandler(deps *Deps) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	cat, failed, err := data.ScanDatasets(h.deps.DataDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATASETS_LOAD_ERROR", err.Error())
		return
	}
	skipped := map[string]string{}
	for name, err := range failed {
		h.deps.logger().Warn("skipping dataset", "file", name, "err", err)
		skipped[name] = err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"datasets":   cat.Datasets,
		"updated_at": cat.UpdatedAt,
		"count":      len(cat.Datasets),
		"skipped":    skipped,
	})
}

// GetDataset handles GET /api/v1/datasets/:id. It returns the aligned
// signal rows, optionally truncated with ?limit=.
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	set, err := h.deps.loadDataset(c.Param("id"), q.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      c.Param("id"),
		"rows":    set.Len(),
		"start":   set.Start(),
		"end":     set.End(),
		"signals": set,
	})
}
