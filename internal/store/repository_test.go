package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-env/internal/model"
	"battery-env/internal/simulator"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func sampleRun(n int) simulator.Run {
	start := time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)
	run := simulator.Run{
		ID:        uuid.New(),
		StartedAt: start,
		Battery:   model.BatteryParams{Capacity: 10, MaxChargeRate: 4, TimeScale: 0.5},
		Baseline:  model.DefaultBaseline,
	}
	cum := 0.0
	for i := 0; i < n; i++ {
		cum += float64(i)
		run.Records = append(run.Records, simulator.StepRecord{
			Index:         i,
			Timestamp:     start.Add(time.Duration(i) * 30 * time.Minute),
			Action:        2,
			Mode:          model.ActionCharging,
			CO2:           20,
			BatteryDelta:  1,
			CurrentCharge: float64(i + 1),
			Reward:        float64(i),
			CumReward:     cum,
		})
	}
	return run
}

func TestSaveRun_RoundTrip(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	run := sampleRun(5)

	require.NoError(t, r.SaveRun(ctx, run))

	header, err := r.GetRun(ctx, run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 5, header.Steps)
	assert.Equal(t, 10.0, header.TotalReward)
	assert.Equal(t, 5.0, header.FinalCharge)
	assert.Equal(t, model.DefaultBaseline, header.Baseline)

	steps, err := r.GetSteps(ctx, run.ID.String())
	require.NoError(t, err)
	require.Len(t, steps, 5)
	for i, s := range steps {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, model.ActionCharging, s.Mode)
		assert.True(t, run.Records[i].Timestamp.Equal(s.Timestamp))
	}
}

func TestSaveRun_ReplacesSameID(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	run := sampleRun(4)
	require.NoError(t, r.SaveRun(ctx, run))

	run.Records = run.Records[:2]
	require.NoError(t, r.SaveRun(ctx, run))

	steps, err := r.GetSteps(ctx, run.ID.String())
	require.NoError(t, err)
	assert.Len(t, steps, 2)

	runs, err := r.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRuns_NewestFirst(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	first, second := sampleRun(1), sampleRun(1)
	require.NoError(t, r.SaveRun(ctx, first))
	require.NoError(t, r.SaveRun(ctx, second))

	runs, err := r.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID.String(), runs[0].ID)

	runs, err = r.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGetRun_NotFound(t *testing.T) {
	_, err := newRepo(t).GetRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestRepository_IsRunSink(t *testing.T) {
	var _ simulator.RunSink = (*Repository)(nil)
}
