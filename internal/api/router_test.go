package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-env/internal/api/handlers"
	"battery-env/internal/backtest"
	"battery-env/internal/data"
	"battery-env/internal/simulator"
	"battery-env/internal/store"
)

const siteCSV = `datetime,Consumption Category,consumption
2019-07-01 00:00:00,solar_generation,0
2019-07-01 00:30:00,solar_generation,2
2019-07-01 01:00:00,solar_generation,4
2019-07-01 01:30:00,solar_generation,0
2019-07-01 00:00:00,controlled_load_consumption,1
2019-07-01 00:30:00,controlled_load_consumption,1
2019-07-01 01:00:00,controlled_load_consumption,1
2019-07-01 01:30:00,controlled_load_consumption,3
2019-07-01 00:00:00,CO2,30
2019-07-01 00:30:00,CO2,20
2019-07-01 01:00:00,CO2,25
2019-07-01 01:30:00,CO2,80
`

const brokenCSV = `datetime,Consumption Category,consumption
2019-07-01 00:00:00,solar_generation,0
2019-07-01 00:00:00,CO2,30
`

const homeBattery = `battery:
  name: Home battery
  battery_size: 10
  max_charge_rate: 4
  time_scale: 0.5
`

type fixture struct {
	router  *gin.Engine
	repo    *store.Repository
	results string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root := t.TempDir()

	dataDir := filepath.Join(root, "data")
	batteryDir := filepath.Join(root, "batteries")
	results := filepath.Join(root, "results")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.MkdirAll(batteryDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "site.csv"), []byte(siteCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "broken.csv"), []byte(brokenCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(batteryDir, "home.yaml"), []byte(homeBattery), 0o644))

	repo, err := store.New(filepath.Join(root, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	deps := &handlers.Deps{
		DataDir:    dataDir,
		BatteryDir: batteryDir,
		Cache:      data.NewCache(time.Minute),
		Sinks:      []simulator.RunSink{backtest.CSVSink{Dir: results}, repo},
		Runs:       repo,
	}
	return fixture{router: NewRouter(deps, ""), repo: repo, results: results}
}

func (f fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return e["code"].(string)
}

func TestHealth(t *testing.T) {
	w := newFixture(t).do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEpisode_Lifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/episodes", gin.H{"dataset": "site", "battery_file": "home"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ep := decode(t, w)
	id := ep["id"].(string)
	assert.Equal(t, float64(4), ep["steps"])
	assert.Equal(t, []any{10.0, 0.0, 0.0, 0.0, 0.0}, ep["observation"])
	assert.Equal(t, -4.0, ep["action_space"].(map[string]any)["low"])

	// Actions beyond the rate limit are clipped.
	var last map[string]any
	for i := 0; i < 4; i++ {
		w = f.do(t, http.MethodPost, "/api/v1/episodes/"+id+"/step", gin.H{"action": 100})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		last = decode(t, w)
	}
	assert.Equal(t, true, last["done"])

	w = f.do(t, http.MethodPost, "/api/v1/episodes/"+id+"/step", gin.H{"action": 0})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "OUT_OF_RANGE_STEP", errorCode(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/episodes/"+id+"/log", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logBody := decode(t, w)
	ledger := logBody["ledger"].([]any)
	require.Len(t, ledger, 4)
	assert.Equal(t, 4.0, ledger[0].(map[string]any)["charge_discharge"])
	assert.Len(t, logBody["rewards"].([]any), 4)

	w = f.do(t, http.MethodPost, "/api/v1/episodes/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode(t, w)
	assert.NotContains(t, reset, "persist_error")
	prev := reset["previous_run"].(string)

	w = f.do(t, http.MethodGet, "/api/v1/runs/"+prev, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["ledger"].([]any), 4)

	files, err := os.ReadDir(f.results)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	w = f.do(t, http.MethodDelete, "/api/v1/episodes/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, "/api/v1/episodes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEpisode_Errors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/episodes/nope/step", gin.H{"action": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "EPISODE_NOT_FOUND", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/episodes", gin.H{"dataset": "broken", "battery_file": "home"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MALFORMED_SERIES", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/episodes", gin.H{"dataset": "missing", "battery_file": "home"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/episodes", gin.H{"dataset": "site", "battery_file": "unknown"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_BATTERY", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/episodes", gin.H{"dataset": "site", "battery_file": "home"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	w = f.do(t, http.MethodPost, "/api/v1/episodes/"+id+"/step", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBacktest_RunAndFetchLedger(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/backtest", gin.H{
		"dataset": "site",
		"config": gin.H{
			"battery_file": "home",
			"strategy":     gin.H{"name": "oracle", "params": gin.H{"charge_steps": 20, "rate_steps": 4}},
		},
		"options": gin.H{"include_ledger": true, "persist": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "oracle", body["strategy"])
	assert.Len(t, body["ledger"].([]any), 4)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, 4.0, summary["steps"])
	assert.GreaterOrEqual(t, summary["total_reward"].(float64), 0.0)

	id := body["id"].(string)
	w = f.do(t, http.MethodGet, "/api/v1/backtest/"+id+"/ledger", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["count"])

	w = f.do(t, http.MethodGet, "/api/v1/backtest/unknown/ledger", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBacktest_InvalidStrategy(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/backtest", gin.H{
		"dataset": "site",
		"config":  gin.H{"battery_file": "home", "strategy": gin.H{"name": "moon"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STRATEGY", errorCode(t, w))
}

func TestBacktest_Compare(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/backtest/compare", gin.H{
		"dataset": "site",
		"base_config": gin.H{
			"battery_file": "home",
			"strategy":     gin.H{"name": "idle"},
		},
		"variations": []gin.H{
			{"name": "idle", "config": gin.H{}},
			{"name": "solar", "config": gin.H{"strategy": gin.H{"name": "self_consumption"}}},
			{"name": "bad", "config": gin.H{"strategy": gin.H{"name": "moon"}}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cmp := decode(t, w)["comparison"].([]any)
	require.Len(t, cmp, 2)
	assert.Equal(t, "idle", cmp[0].(map[string]any)["strategy"])
	assert.Equal(t, "self_consumption", cmp[1].(map[string]any)["strategy"])
}

func TestCatalogEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/batteries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	batteries := decode(t, w)["batteries"].([]any)
	require.Len(t, batteries, 1)
	assert.Equal(t, "home", batteries[0].(map[string]any)["id"])

	w = f.do(t, http.MethodGet, "/api/v1/strategies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["strategies"].([]any), 5)

	w = f.do(t, http.MethodGet, "/api/v1/datasets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ds := decode(t, w)
	assert.Equal(t, 1.0, ds["count"])
	assert.Contains(t, ds["skipped"], "broken.csv")

	w = f.do(t, http.MethodGet, "/api/v1/datasets/site?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["rows"])
}

func TestRank(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/rank?battery_file=home&datasets=site,broken", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	rankings := body["rankings"].([]any)
	require.Len(t, rankings, 1)
	assert.Equal(t, "site", rankings[0].(map[string]any)["dataset"])
	assert.Contains(t, body["skipped"], "broken")
}
