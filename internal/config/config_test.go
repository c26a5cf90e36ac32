package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-env/internal/model"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_InlineBattery(t *testing.T) {
	p := write(t, t.TempDir(), "config.yaml", `
battery:
  battery_size: 13.5
  max_charge_rate: 5
  time_scale: 0.5
strategy:
  name: self_consumption
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, model.BatteryParams{Capacity: 13.5, MaxChargeRate: 5, TimeScale: 0.5}, cfg.Battery.ToModelParams())
	assert.Equal(t, model.DefaultBaseline, cfg.BaselineOrDefault())
	assert.Equal(t, "self_consumption", cfg.Strategy.Name)
}

func TestLoad_BatteryFileWithOverrides(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "batteries/home.yaml", `
battery:
  name: home
  battery_size: 13.5
  max_charge_rate: 5
  time_scale: 0.5
`)
	p := write(t, dir, "config.yaml", `
battery_file: batteries/home.yaml
battery:
  max_charge_rate: 3
cost:
  baseline: 0
strategy:
  name: schedule
  params:
    charge_start: "10:00"
output:
  results_dir: results
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "home", cfg.Battery.Name)
	assert.Equal(t, 13.5, cfg.Battery.BatterySize)
	assert.Equal(t, 3.0, cfg.Battery.MaxChargeRate)
	assert.Equal(t, 0.0, cfg.BaselineOrDefault())
	assert.Equal(t, "10:00", cfg.Strategy.Params["charge_start"])
	assert.Equal(t, "results", cfg.Output.ResultsDir)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	noStrategy := write(t, dir, "a.yaml", `
battery: {battery_size: 1, max_charge_rate: 1, time_scale: 1}
`)
	_, err := Load(noStrategy)
	assert.ErrorContains(t, err, "strategy.name")

	badBattery := write(t, dir, "b.yaml", `
battery: {battery_size: 0, max_charge_rate: 1, time_scale: 1}
strategy: {name: idle}
`)
	_, err = Load(badBattery)
	assert.ErrorContains(t, err, "battery config invalid")

	cfg, err := LoadUnchecked(badBattery)
	require.NoError(t, err)
	assert.Equal(t, "idle", cfg.Strategy.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMergeBattery(t *testing.T) {
	base := BatteryConfig{Name: "a", BatterySize: 10, MaxChargeRate: 2, TimeScale: 1, InitialCharge: 5}
	got := MergeBattery(base, BatteryConfig{BatterySize: 20})
	assert.Equal(t, BatteryConfig{Name: "a", BatterySize: 20, MaxChargeRate: 2, TimeScale: 1, InitialCharge: 5}, got)
}
