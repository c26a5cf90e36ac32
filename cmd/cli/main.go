package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"battery-env/internal/analysis"
	"battery-env/internal/backtest"
	"battery-env/internal/config"
	"battery-env/internal/data"
	"battery-env/internal/logging"
	"battery-env/internal/model"
	"battery-env/internal/simulator"
	"battery-env/internal/store"
	"battery-env/internal/strategy"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	logging.FromEnv()

	var err error
	switch os.Args[1] {
	case "backtest":
		err = cmdBacktest(os.Args[2:])
	case "rank":
		err = cmdRank(os.Args[2:])
	case "runs":
		err = cmdRuns(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error(os.Args[1]+" failed", "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --data examples/data/sample_site.csv --config examples/config.yaml --out results/run.csv")
	fmt.Println("  cli rank --data examples/data --battery examples/batteries/home_13kwh.yaml")
	fmt.Println("  cli runs --db results/runs.db [--id RUN_ID]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - backtest outputs CSV with action=CHARGING/IDLE/DISCHARGING and the reward per step")
	fmt.Println("  - rank computes a carbon potential oracle score per dataset")
	fmt.Println("  - LOG_LEVEL=debug traces every step")
}

func cmdBacktest(args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	dataPath := fs.String("data", "examples/data/sample_site.csv", "Path to a long-format CSV or a JSON signal set")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "", "Output CSV path (default: results_dir from config, named by run)")
	dbPath := fs.String("db", "", "Optional SQLite run store (default: run_db from config)")
	n := fs.Int("n", 0, "Optional: limit to first N steps (0=all)")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	signals, err := data.Load(*dataPath)
	if err != nil {
		return err
	}
	if *n > 0 {
		signals = signals.Head(*n)
	}

	params := cfg.Battery.ToModelParams()
	baseline := cfg.BaselineOrDefault()
	sim, err := simulator.New(signals, params,
		simulator.WithBaseline(baseline),
		simulator.WithInitialCharge(cfg.Battery.InitialCharge),
		simulator.WithObserver(simulator.LogObserver{}),
	)
	if err != nil {
		return err
	}
	strat, err := strategy.Build(cfg.Strategy.Name, cfg.Strategy.Params, strategy.Setup{
		Signals:       signals,
		Battery:       params,
		Cost:          model.CostModel{Baseline: baseline, TimeScale: params.TimeScale},
		InitialCharge: cfg.Battery.InitialCharge,
	})
	if err != nil {
		return err
	}

	startedAt := time.Now()
	res, err := backtest.New().Run(sim, strat)
	if err != nil {
		return err
	}
	run := simulator.Run{
		ID:        uuid.New(),
		StartedAt: startedAt,
		Battery:   params,
		Baseline:  baseline,
		Records:   res.Ledger,
	}

	switch {
	case *outPath != "":
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			return err
		}
		if err := backtest.WriteLedgerCSV(*outPath, res.Ledger); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Ledger), *outPath)
	case cfg.Output.ResultsDir != "":
		sink := backtest.CSVSink{Dir: cfg.Output.ResultsDir}
		if err := sink.SaveRun(context.Background(), run); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Ledger), filepath.Join(sink.Dir, backtest.RunFileName(run)))
	}

	db := *dbPath
	if db == "" {
		db = cfg.Output.RunDB
	}
	if db != "" {
		repo, err := store.New(db)
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.SaveRun(context.Background(), run); err != nil {
			return err
		}
		fmt.Printf("Saved run %s to %s\n", run.ID, db)
	}

	s := res.Summary
	fmt.Printf("Strategy=%s Steps=%d Total reward=%.2f Final charge=%.3f\n", res.Strategy, s.Steps, s.TotalReward, s.FinalCharge)
	fmt.Printf("Charged=%.3f Discharged=%.3f Grid draw=%.3f (raw consumption %.3f)\n", s.EnergyCharged, s.EnergyDischarged, s.GridDraw, s.RawConsumption)
	return nil
}

func cmdRank(args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	dataPaths := fs.String("data", "examples/data", "Comma-separated dataset paths or a directory")
	batteryPath := fs.String("battery", "examples/batteries/home_13kwh.yaml", "Battery preset YAML")
	baseline := fs.Float64("baseline", model.DefaultBaseline, "Neutral carbon intensity")
	n := fs.Int("n", 0, "Optional: limit each dataset to first N steps (0=all)")
	_ = fs.Parse(args)

	batt, err := config.LoadBatteryFile(*batteryPath)
	if err != nil {
		return err
	}
	if err := batt.Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}

	byDataset := map[string]model.SignalSet{}
	for _, p := range splitPaths(*dataPaths) {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		files := []string{p}
		if info.IsDir() {
			cat, failed, err := data.ScanDatasets(p)
			if err != nil {
				return err
			}
			for name, ferr := range failed {
				slog.Warn("skipping dataset", "file", name, "err", ferr)
			}
			files = files[:0]
			for _, d := range cat.Datasets {
				files = append(files, d.Path)
			}
		}
		for _, f := range files {
			set, err := data.Load(f)
			if err != nil {
				return err
			}
			if *n > 0 {
				set = set.Head(*n)
			}
			byDataset[data.DatasetID(f)] = set
		}
	}

	ranked, err := analysis.RankByOracleReward(byDataset, analysis.PotentialParams{
		Battery:  batt.ToModelParams(),
		Baseline: *baseline,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%-4s %-24s %-8s %-10s %-13s %-12s %-12s\n", "rank", "dataset", "count", "p95-p05", "min/max CO2", "oracle", "idle")
	for _, r := range ranked {
		fmt.Printf(
			"%-4d %-24s %-8d %-10.2f %-6.1f/%-6.1f %-12.2f %-12.2f\n",
			r.Rank,
			r.Dataset,
			r.Count,
			r.SpreadP95P05,
			r.MinCO2,
			r.MaxCO2,
			r.OracleReward,
			r.IdleReward,
		)
	}
	return nil
}

func cmdRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "results/runs.db", "SQLite run store")
	id := fs.String("id", "", "Optional: export one run as CSV to stdout")
	limit := fs.Int("limit", 20, "Number of runs to list")
	_ = fs.Parse(args)

	repo, err := store.New(*dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()
	ctx := context.Background()

	if *id != "" {
		if _, err := repo.GetRun(ctx, *id); err != nil {
			return err
		}
		steps, err := repo.GetSteps(ctx, *id)
		if err != nil {
			return err
		}
		return backtest.EncodeLedgerCSV(os.Stdout, steps)
	}

	runs, err := repo.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	fmt.Printf("%-36s %-20s %-8s %-8s %-12s\n", "id", "saved", "size", "steps", "reward")
	for _, r := range runs {
		fmt.Printf("%-36s %-20s %-8.1f %-8d %-12.2f\n", r.ID, r.SavedAt.Format("2006-01-02 15:04:05"), r.Capacity, r.Steps, r.TotalReward)
	}
	return nil
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
