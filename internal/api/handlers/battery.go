package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-env/internal/api/models"
	"battery-env/internal/config"

	"github.com/gin-gonic/gin"
)

// BatteryHandler handles battery-related requests
type BatteryHandler struct {
	deps *Deps
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(deps *Deps) *BatteryHandler {
	return &BatteryHandler{deps: deps}
}

// GetBatteryDir returns the battery directory path (for debugging)
func (h *BatteryHandler) GetBatteryDir() string {
	return h.deps.BatteryDir
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}
	log := h.deps.logger()

	entries, err := os.ReadDir(h.deps.BatteryDir)
	if err != nil {
		log.Warn("read battery directory", "dir", h.deps.BatteryDir, "err", err)
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.deps.BatteryDir, entry.Name())
		info, err := loadBatteryInfo(path, entry.Name())
		if err != nil {
			log.Warn("skipping battery file", "path", path, "err", err)
			continue
		}
		batteries = append(batteries, *info)
	}

	log.Debug("listed batteries", "count", len(batteries))
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

func loadBatteryInfo(path, filename string) (*models.BatteryInfo, error) {
	b, err := config.LoadBatteryFile(path)
	if err != nil {
		return nil, err
	}

	// The file name without extension is the id used by battery_file.
	id := strings.TrimSuffix(filename, ".yaml")
	name := b.Name
	if name == "" {
		name = id
	}

	return &models.BatteryInfo{
		ID:    id,
		Name:  name,
		File:  path,
		Specs: specsOf(b.ToModelParams()),
	}, nil
}
