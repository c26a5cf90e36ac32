package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"battery-env/internal/api/models"
	"battery-env/internal/simulator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// episode is one independent environment. Its mutex serializes steps so
// concurrent requests against the same id cannot interleave.
type episode struct {
	mu      sync.Mutex
	id      string
	dataset string
	env     *simulator.Env
	created time.Time
	obs     simulator.Observation
}

// EpisodeHandler serves interactive episodes to an external agent.
type EpisodeHandler struct {
	deps *Deps

	mu       sync.RWMutex
	episodes map[string]*episode
}

func NewEpisodeHandler(deps *Deps) *EpisodeHandler {
	return &EpisodeHandler{
		deps:     deps,
		episodes: make(map[string]*episode),
	}
}

// Create handles POST /api/v1/episodes
func (h *EpisodeHandler) Create(c *gin.Context) {
	var req models.CreateEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	signals, err := h.deps.loadDataset(req.Dataset, req.LimitSteps)
	if err != nil {
		respondErr(c, err)
		return
	}
	batt, err := h.deps.resolveBattery(req.BatteryFile, req.Battery)
	if err != nil {
		respondErr(c, err)
		return
	}

	id := uuid.NewString()
	log := h.deps.logger().With("episode", id)
	sim, err := simulator.New(signals, batt.ToModelParams(),
		simulator.WithBaseline(baselineOrDefault(req.Baseline)),
		simulator.WithInitialCharge(batt.InitialCharge),
		simulator.WithObserver(simulator.LogObserver{Logger: log}),
	)
	if err != nil {
		respondErr(c, err)
		return
	}

	ep := &episode{
		id:      id,
		dataset: req.Dataset,
		env:     simulator.NewEnv(sim, h.deps.Sinks...),
		created: time.Now().UTC(),
	}
	ep.obs = sim.StartObservation()

	h.mu.Lock()
	h.episodes[id] = ep
	h.mu.Unlock()

	log.Info("episode created", "dataset", req.Dataset, "steps", sim.Len())
	c.JSON(http.StatusCreated, describe(ep))
}

// Get handles GET /api/v1/episodes/:id
func (h *EpisodeHandler) Get(c *gin.Context) {
	ep, ok := h.lookup(c)
	if !ok {
		return
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()
	c.JSON(http.StatusOK, describe(ep))
}

// Step handles POST /api/v1/episodes/:id/step
func (h *EpisodeHandler) Step(c *gin.Context) {
	ep, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ep.mu.Lock()
	defer ep.mu.Unlock()
	res, err := ep.env.Step(*req.Action)
	if err != nil {
		if errors.Is(err, simulator.ErrOutOfRangeStep) {
			respondErr(c, err)
		} else {
			respondError(c, http.StatusBadRequest, "INVALID_ACTION", err.Error())
		}
		return
	}
	ep.obs = res.Observation
	c.JSON(http.StatusOK, res)
}

// Reset handles POST /api/v1/episodes/:id/reset. The finished run goes to
// the configured sinks; a sink failure is reported but the episode is reset.
func (h *EpisodeHandler) Reset(c *gin.Context) {
	ep, ok := h.lookup(c)
	if !ok {
		return
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	prev := ep.env.RunID().String()
	obs, err := ep.env.Reset(c.Request.Context())
	ep.obs = obs
	body := gin.H{
		"observation":  obs,
		"run_id":       ep.env.RunID().String(),
		"previous_run": prev,
	}
	if err != nil {
		h.deps.logger().Error("persist run", "episode", ep.id, "run", prev, "err", err)
		body["persist_error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// Log handles GET /api/v1/episodes/:id/log
func (h *EpisodeHandler) Log(c *gin.Context) {
	ep, ok := h.lookup(c)
	if !ok {
		return
	}
	ep.mu.Lock()
	run := ep.env.Run()
	rewards := ep.env.Rewards()
	ep.mu.Unlock()

	c.JSON(http.StatusOK, models.EpisodeLogResponse{
		ID:      ep.id,
		RunID:   run.ID.String(),
		Rewards: rewards,
		Summary: simulator.Summarize(run.Records),
		Ledger:  models.NewLedger(run.Records),
	})
}

// Delete handles DELETE /api/v1/episodes/:id. Unsaved steps are discarded.
func (h *EpisodeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	h.mu.Lock()
	_, ok := h.episodes[id]
	delete(h.episodes, id)
	h.mu.Unlock()
	if !ok {
		notFound(c, id)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /api/v1/episodes
func (h *EpisodeHandler) List(c *gin.Context) {
	h.mu.RLock()
	eps := make([]*episode, 0, len(h.episodes))
	for _, ep := range h.episodes {
		eps = append(eps, ep)
	}
	h.mu.RUnlock()

	out := make([]models.EpisodeResponse, 0, len(eps))
	for _, ep := range eps {
		ep.mu.Lock()
		out = append(out, describe(ep))
		ep.mu.Unlock()
	}
	c.JSON(http.StatusOK, gin.H{"episodes": out, "count": len(out)})
}

func (h *EpisodeHandler) lookup(c *gin.Context) (*episode, bool) {
	id := c.Param("id")
	h.mu.RLock()
	ep, ok := h.episodes[id]
	h.mu.RUnlock()
	if !ok {
		notFound(c, id)
	}
	return ep, ok
}

func notFound(c *gin.Context, id string) {
	respondError(c, http.StatusNotFound, "EPISODE_NOT_FOUND", fmt.Sprintf("no episode %q", id))
}

// describe must be called with ep.mu held.
func describe(ep *episode) models.EpisodeResponse {
	sim := ep.env.Simulator()
	return models.EpisodeResponse{
		ID:               ep.id,
		RunID:            ep.env.RunID().String(),
		Dataset:          ep.dataset,
		Steps:            sim.Len(),
		StepIndex:        sim.State().StepIndex,
		Status:           sim.State().Status.String(),
		Observation:      ep.obs,
		ActionSpace:      ep.env.ActionSpace(),
		ObservationSpace: ep.env.ObservationSpace(),
		Battery:          specsOf(sim.Params()),
		Baseline:         sim.Baseline(),
	}
}
