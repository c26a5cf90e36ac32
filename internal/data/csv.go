package data

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"battery-env/internal/model"
)

// Column names of the long-format input: one row per (datetime, category).
const (
	ColDatetime = "datetime"
	ColCategory = "Consumption Category"
	ColValue    = "consumption"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func LoadSignalCSV(path string) (model.SignalSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.SignalSet{}, err
	}
	defer f.Close()
	return ReadSignalCSV(f)
}

// ReadSignalCSV splits a long-format CSV into the three signal series, each
// sorted by time, and validates the result.
func ReadSignalCSV(r io.Reader) (model.SignalSet, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.WithTypes(map[string]series.Type{
			ColDatetime: series.String,
			ColCategory: series.String,
			ColValue:    series.Float,
		}),
	)
	if df.Err != nil {
		return model.SignalSet{}, fmt.Errorf("%w: %v", model.ErrMalformedSeries, df.Err)
	}
	for _, col := range []string{ColDatetime, ColCategory, ColValue} {
		if !hasColumn(df, col) {
			return model.SignalSet{}, fmt.Errorf("%w: missing column %q", model.ErrMalformedSeries, col)
		}
	}

	var set model.SignalSet
	for _, cat := range model.Categories {
		s, err := extract(df, cat)
		if err != nil {
			return model.SignalSet{}, err
		}
		switch cat {
		case model.CategorySolar:
			set.Solar = s
		case model.CategoryConsumption:
			set.Consumption = s
		case model.CategoryCO2:
			set.CO2 = s
		}
	}
	if err := set.Validate(); err != nil {
		return model.SignalSet{}, err
	}
	return set, nil
}

func extract(df dataframe.DataFrame, cat model.Category) (model.Series, error) {
	sub := df.Filter(dataframe.F{
		Colname:    ColCategory,
		Comparator: series.Eq,
		Comparando: string(cat),
	})
	if sub.Err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedSeries, cat, sub.Err)
	}
	if sub.Nrow() == 0 {
		return nil, fmt.Errorf("%w: no %s rows", model.ErrMalformedSeries, cat)
	}

	stamps := sub.Col(ColDatetime).Records()
	values := sub.Col(ColValue).Float()
	out := make(model.Series, 0, len(stamps))
	for i, raw := range stamps {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", model.ErrMalformedSeries, cat, i, err)
		}
		out = append(out, model.SignalRow{Timestamp: ts, Value: values[i]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ParseTimestamp accepts the handful of layouts the source datasets use.
// Timestamps without an offset are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
