package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"battery-env/internal/model"
)

// LoadSignalJSON reads a SignalSet serialized as
// {"solar_generation": [...], "controlled_load_consumption": [...], "CO2": [...]}.
func LoadSignalJSON(path string) (model.SignalSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.SignalSet{}, err
	}
	var set model.SignalSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return model.SignalSet{}, fmt.Errorf("%w: %v", model.ErrMalformedSeries, err)
	}
	if err := set.Validate(); err != nil {
		return model.SignalSet{}, err
	}
	return set, nil
}

// Load picks the loader from the file extension.
func Load(path string) (model.SignalSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadSignalCSV(path)
	case ".json":
		return LoadSignalJSON(path)
	default:
		return model.SignalSet{}, fmt.Errorf("unsupported dataset format: %s", path)
	}
}
