package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"battery-env/internal/data"
	"battery-env/internal/logging"
)

func main() {
	var (
		dataDir    = flag.String("data-dir", "", "Dataset directory (default: $DATA_DIR or ./examples/data)")
		outputPath = flag.String("output", "", "Output file path (default: <data-dir>/catalog.json)")
	)
	flag.Parse()
	logging.FromEnv()

	if *dataDir == "" {
		*dataDir = os.Getenv("DATA_DIR")
	}
	if *dataDir == "" {
		*dataDir = filepath.Join("examples", "data")
	}
	if *outputPath == "" {
		*outputPath = filepath.Join(*dataDir, data.CatalogFile)
	}

	fmt.Printf("Scanning datasets in %s\n", *dataDir)

	var previous map[string]data.DatasetInfo
	if old, err := data.LoadCatalog(*outputPath); err == nil {
		previous = make(map[string]data.DatasetInfo, len(old.Datasets))
		for _, d := range old.Datasets {
			previous[d.ID] = d
		}
		fmt.Printf("Loaded %d existing datasets from %s\n", len(previous), *outputPath)
	}

	cat, failed, err := data.ScanDatasets(*dataDir)
	if err != nil {
		slog.Error("scan failed", "err", err)
		os.Exit(1)
	}
	for name, err := range failed {
		slog.Warn("skipping dataset", "file", name, "err", err)
	}

	added, changed := 0, 0
	for _, d := range cat.Datasets {
		old, ok := previous[d.ID]
		switch {
		case !ok:
			added++
		case old.Rows != d.Rows || !old.End.Equal(d.End):
			changed++
		}
		delete(previous, d.ID)
	}

	if err := data.SaveCatalog(cat, *outputPath); err != nil {
		slog.Error("save catalog", "err", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d datasets to %s (added %d, changed %d, removed %d, skipped %d)\n",
		len(cat.Datasets), *outputPath, added, changed, len(previous), len(failed))
}
