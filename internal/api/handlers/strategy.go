package handlers

import (
	"net/http"

	"battery-env/internal/api/models"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

var strategyCatalog = []models.StrategyInfo{
	{
		Name:        "idle",
		Description: "Never touches the battery. The reference every other strategy is compared with.",
		Parameters:  []models.ParameterInfo{},
	},
	{
		Name:        "constant",
		Description: "Requests the same charge rate every step.",
		Parameters: []models.ParameterInfo{
			{
				Name:        "rate",
				Type:        "float",
				Description: "Charge rate in kW (negative discharges)",
				Default:     0.0,
			},
		},
	},
	{
		Name:        "schedule",
		Description: "Time-based schedule. Charges and discharges in fixed windows each day.",
		Parameters: []models.ParameterInfo{
			{
				Name:        "charge_start",
				Type:        "string",
				Description: "Start time for charging (HH:MM format, e.g., '10:00')",
				Default:     "10:00",
			},
			{
				Name:        "charge_end",
				Type:        "string",
				Description: "End time for charging (HH:MM format)",
				Default:     "17:00",
			},
			{
				Name:        "discharge_start",
				Type:        "string",
				Description: "Start time for discharging (HH:MM format, e.g., '17:00')",
				Default:     "17:00",
			},
			{
				Name:        "discharge_end",
				Type:        "string",
				Description: "End time for discharging (HH:MM format)",
				Default:     "17:00",
			},
			{
				Name:        "charge_rate",
				Type:        "float",
				Description: "Charge rate in kW (default: max_charge_rate)",
			},
			{
				Name:        "discharge_rate",
				Type:        "float",
				Description: "Discharge rate in kW (default: max_charge_rate)",
			},
		},
	},
	{
		Name:        "self_consumption",
		Description: "Stores solar surplus and covers load from the battery when solar falls short.",
		Parameters:  []models.ParameterInfo{},
	},
	{
		Name:        "oracle",
		Description: "Perfect foresight optimizer. Uses dynamic programming over the whole dataset to maximize reward.",
		Parameters: []models.ParameterInfo{
			{
				Name:        "charge_steps",
				Type:        "int",
				Description: "Number of charge discretization steps (higher = more accurate but slower)",
				Default:     100,
			},
			{
				Name:        "rate_steps",
				Type:        "int",
				Description: "Number of rate discretization steps",
				Default:     10,
			},
		},
	},
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": strategyCatalog})
}
