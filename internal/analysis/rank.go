package analysis

import (
	"fmt"
	"sort"

	"battery-env/internal/model"
)

type RankedPotential struct {
	CarbonPotential
	Rank int `json:"rank"`
}

// RankByOracleReward computes potentials per dataset and sorts descending by
// OracleReward. Ties are broken by dataset name so the order is stable.
func RankByOracleReward(byDataset map[string]model.SignalSet, p PotentialParams) ([]RankedPotential, error) {
	out := make([]RankedPotential, 0, len(byDataset))
	for name, signals := range byDataset {
		pot, err := ComputePotential(name, signals, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, RankedPotential{CarbonPotential: pot})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OracleReward != out[j].OracleReward {
			return out[i].OracleReward > out[j].OracleReward
		}
		return out[i].Dataset < out[j].Dataset
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
