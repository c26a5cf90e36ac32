package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DatasetInfo describes one dataset file in the data directory.
type DatasetInfo struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Format      string    `json:"format"`
	Rows        int       `json:"rows"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	StepMinutes float64   `json:"step_minutes"`
}

// Catalog is the on-disk index of datasets (catalog.json).
type Catalog struct {
	UpdatedAt string        `json:"updated_at"` // ISO 8601 timestamp
	Datasets  []DatasetInfo `json:"datasets"`
}

const CatalogFile = "catalog.json"

// ScanDatasets loads every .csv and .json dataset directly inside dir.
// Files that fail to load are reported in the returned error map and skipped.
func ScanDatasets(dir string) (*Catalog, map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read data dir: %w", err)
	}
	failed := map[string]error{}
	cat := &Catalog{UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
	for _, e := range entries {
		if e.IsDir() || e.Name() == CatalogFile {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".csv" && ext != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		set, err := Load(path)
		if err != nil {
			failed[e.Name()] = err
			continue
		}
		cat.Datasets = append(cat.Datasets, DatasetInfo{
			ID:          DatasetID(e.Name()),
			Path:        path,
			Format:      strings.TrimPrefix(ext, "."),
			Rows:        set.Len(),
			Start:       set.Start(),
			End:         set.End(),
			StepMinutes: set.StepHours() * 60,
		})
	}
	sort.Slice(cat.Datasets, func(i, j int) bool { return cat.Datasets[i].ID < cat.Datasets[j].ID })
	return cat, failed, nil
}

// DatasetID is the file name without its extension.
func DatasetID(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolveDataset finds the file for a dataset id inside dir, refusing ids
// that would escape it.
func ResolveDataset(dir, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid dataset id %q", id)
	}
	for _, ext := range []string{".csv", ".json"} {
		p := filepath.Join(dir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("dataset %q: %w", id, os.ErrNotExist)
}

func LoadCatalog(filePath string) (*Catalog, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return &c, nil
}

func SaveCatalog(c *Catalog, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(filePath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}
