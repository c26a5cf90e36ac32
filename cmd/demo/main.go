package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"battery-env/internal/backtest"
	"battery-env/internal/config"
	"battery-env/internal/data"
	"battery-env/internal/logging"
	"battery-env/internal/model"
	"battery-env/internal/simulator"
	"battery-env/internal/strategy"
)

// Demo:
// - Load a long-format CSV (or JSON signal set)
// - Wrap a Simulator in an Env the way an external trainer would
// - Feed it a strategy's actions for a few steps and print the transitions
func main() {
	dataPath := flag.String("data", "examples/data/sample_site.csv", "Path to dataset")
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	n := flag.Int("n", 12, "Number of steps to simulate")
	outDir := flag.String("out", "", "Optional directory for the run CSV written on reset")
	flag.Parse()
	logging.FromEnv()

	signals, err := data.Load(*dataPath)
	if err != nil {
		fail(err)
	}
	if *n > 0 {
		signals = signals.Head(*n)
	}

	// Defaults (can be overridden via --config).
	params := model.BatteryParams{Capacity: 13.5, MaxChargeRate: 5, TimeScale: signals.StepHours()}
	if params.TimeScale <= 0 {
		params.TimeScale = 0.5
	}
	initialCharge := 0.0
	baseline := model.DefaultBaseline
	stratName, stratParams := "self_consumption", map[string]any(nil)

	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			fail(err)
		}
		params = cfg.Battery.ToModelParams()
		initialCharge = cfg.Battery.InitialCharge
		baseline = cfg.BaselineOrDefault()
		stratName, stratParams = cfg.Strategy.Name, cfg.Strategy.Params
	}

	sim, err := simulator.New(signals, params,
		simulator.WithBaseline(baseline),
		simulator.WithInitialCharge(initialCharge),
	)
	if err != nil {
		fail(err)
	}
	strat, err := strategy.Build(stratName, stratParams, strategy.Setup{
		Signals:       signals,
		Battery:       params,
		Cost:          model.CostModel{Baseline: baseline, TimeScale: params.TimeScale},
		InitialCharge: initialCharge,
	})
	if err != nil {
		fail(err)
	}

	var sinks []simulator.RunSink
	if *outDir != "" {
		sinks = append(sinks, backtest.CSVSink{Dir: *outDir})
	}
	env := simulator.NewEnv(sim, sinks...)
	obs, _ := env.Reset(context.Background())

	fmt.Printf("Loaded %d steps from %s\n", signals.Len(), *dataPath)
	fmt.Printf("Strategy=%s action space=[%.2f, %.2f]\n", strat.Name(), env.ActionSpace().Low, env.ActionSpace().High)
	fmt.Printf("Start observation=%v\n\n", obs)

	for !sim.Done() {
		in, _ := sim.Peek()
		action := strat.Decide(strategy.Context{Index: in.Index, Input: in, Params: params, Charge: sim.Charge()})
		res, err := env.Step(action)
		if err != nil {
			fail(err)
		}
		fmt.Printf(
			"%s co2=%6.1f  solar=%6.2f  load=%6.2f  action=%7.2f  charge=%7.3f  grid=%6.2f  reward=%8.3f\n",
			in.Timestamp.Format("2006-01-02 15:04"),
			in.CO2,
			in.Solar,
			in.Consumption,
			action,
			res.Observation[simulator.ObsCharge],
			res.Observation[simulator.ObsConsumption],
			res.Reward,
		)
	}

	summary := simulator.Summarize(sim.Log())
	runID := env.RunID()
	if _, err := env.Reset(context.Background()); err != nil {
		fail(err)
	}
	if *outDir != "" {
		fmt.Printf("\nWrote run %s to %s\n", runID, *outDir)
	}
	fmt.Printf("\nDone. Final charge=%.3f  Total reward=%.3f\n", summary.FinalCharge, summary.TotalReward)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "demo:", err)
	os.Exit(1)
}
