package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedSeries is returned when the input series cannot drive an episode.
var ErrMalformedSeries = errors.New("malformed series")

// Category names a signal series. The values match the
// "Consumption Category" column of the long-format input CSV.
type Category string

const (
	CategorySolar       Category = "solar_generation"
	CategoryConsumption Category = "controlled_load_consumption"
	CategoryCO2         Category = "CO2"
)

// Categories lists the series an episode needs, in observation order.
var Categories = []Category{CategorySolar, CategoryConsumption, CategoryCO2}

// SignalRow is one timestamped reading.
type SignalRow struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type Series []SignalRow

// SignalSet holds the three aligned series of a building. Row i of every
// series refers to the same instant.
//
// Example:
// {
//   "solar_generation": [{"timestamp": "2019-01-01T00:00:00Z", "value": 0}],
//   "controlled_load_consumption": [...],
//   "CO2": [...]
// }
type SignalSet struct {
	Solar       Series `json:"solar_generation"`
	Consumption Series `json:"controlled_load_consumption"`
	CO2         Series `json:"CO2"`
}

// StepInput is the view of row i across the three series.
type StepInput struct {
	Index       int
	Timestamp   time.Time
	Solar       float64
	Consumption float64
	CO2         float64
}

func (s SignalSet) Len() int { return len(s.Solar) }

// Series returns the series for a category, or nil.
func (s SignalSet) Series(c Category) Series {
	switch c {
	case CategorySolar:
		return s.Solar
	case CategoryConsumption:
		return s.Consumption
	case CategoryCO2:
		return s.CO2
	default:
		return nil
	}
}

// Validate checks that the set is non-empty, equal length, sorted
// ascending, aligned by index and finite.
func (s SignalSet) Validate() error {
	n := len(s.Solar)
	if n == 0 {
		return fmt.Errorf("%w: %s is empty", ErrMalformedSeries, CategorySolar)
	}
	for _, c := range Categories {
		if len(s.Series(c)) != n {
			return fmt.Errorf("%w: %s has %d rows, %s has %d", ErrMalformedSeries, c, len(s.Series(c)), CategorySolar, n)
		}
	}
	for _, c := range Categories {
		series := s.Series(c)
		for i, r := range series {
			if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
				return fmt.Errorf("%w: %s row %d has non-finite value", ErrMalformedSeries, c, i)
			}
			if i > 0 && r.Timestamp.Before(series[i-1].Timestamp) {
				return fmt.Errorf("%w: %s row %d is out of order", ErrMalformedSeries, c, i)
			}
			if !r.Timestamp.Equal(s.Solar[i].Timestamp) {
				return fmt.Errorf("%w: %s row %d is not aligned with %s", ErrMalformedSeries, c, i, CategorySolar)
			}
		}
	}
	return nil
}

// Row returns the aligned readings at index i. The caller bounds i.
func (s SignalSet) Row(i int) StepInput {
	return StepInput{
		Index:       i,
		Timestamp:   s.Solar[i].Timestamp,
		Solar:       s.Solar[i].Value,
		Consumption: s.Consumption[i].Value,
		CO2:         s.CO2[i].Value,
	}
}

// Start and End are the first and last row timestamps.
func (s SignalSet) Start() time.Time {
	if len(s.Solar) == 0 {
		return time.Time{}
	}
	return s.Solar[0].Timestamp
}

func (s SignalSet) End() time.Time {
	if len(s.Solar) == 0 {
		return time.Time{}
	}
	return s.Solar[len(s.Solar)-1].Timestamp
}

// Head keeps the first n rows of every series (n <= 0 keeps all).
func (s SignalSet) Head(n int) SignalSet {
	if n <= 0 || n >= s.Len() {
		return s
	}
	return SignalSet{
		Solar:       s.Solar[:n],
		Consumption: s.Consumption[:min(n, len(s.Consumption))],
		CO2:         s.CO2[:min(n, len(s.CO2))],
	}
}

// StepHours guesses the step duration from the first two rows.
func (s SignalSet) StepHours() float64 {
	if len(s.Solar) < 2 {
		return 0
	}
	return s.Solar[1].Timestamp.Sub(s.Solar[0].Timestamp).Hours()
}
