package backtest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"battery-env/internal/simulator"
)

func WriteLedgerCSV(path string, ledger []simulator.StepRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeLedgerCSV(f, ledger); err != nil {
		return err
	}
	return f.Close()
}

// EncodeLedgerCSV writes the run log with a header row.
func EncodeLedgerCSV(out io.Writer, ledger []simulator.StepRecord) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"datetime",
		"charge_discharge",
		"action",
		"current_solar",
		"current_consumption",
		"current_CO2",
		"adjusted_consumption",
		"battery_delta",
		"current_charge",
		"reward",
		"cum_reward",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			fmtFloat(r.Action),
			string(r.Mode),
			fmtFloat(r.Solar),
			fmtFloat(r.Consumption),
			fmtFloat(r.CO2),
			fmtFloat(r.AdjustedConsumption),
			fmtFloat(r.BatteryDelta),
			fmtFloat(r.CurrentCharge),
			fmtFloat(r.Reward),
			fmtFloat(r.CumReward),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// CSVSink writes every finished run into Dir as
// run_data_battery_<size>_time_<timestamp>.csv.
type CSVSink struct {
	Dir string
}

func (s CSVSink) SaveRun(_ context.Context, run simulator.Run) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return WriteLedgerCSV(filepath.Join(s.Dir, RunFileName(run)), run.Records)
}

// RunFileName names a run's CSV. The run id suffix keeps two runs that end
// within the same second apart.
func RunFileName(run simulator.Run) string {
	return fmt.Sprintf("run_data_battery_%s_time_%s_%s.csv",
		strconv.FormatFloat(run.Battery.Capacity, 'f', -1, 64),
		run.StartedAt.Format("2006-01-02-15-04-05"),
		run.ID.String()[:8],
	)
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
