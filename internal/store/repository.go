package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"battery-env/internal/simulator"
)

var ErrRunNotFound = errors.New("run not found")

// Repository stores finished runs in a local SQLite file.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func New(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&StoredRun{}, &StoredStep{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{
		db:  db,
		now: time.Now,
	}, nil
}

// SaveRun writes the run header and all of its steps in one transaction.
// Saving the same run id twice replaces the earlier copy.
func (r *Repository) SaveRun(ctx context.Context, run simulator.Run) error {
	id := run.ID.String()
	steps := make([]StoredStep, 0, len(run.Records))
	for _, rec := range run.Records {
		steps = append(steps, newStoredStep(id, rec))
	}
	header := newStoredRun(run, r.now().UTC())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&StoredStep{}).Error; err != nil {
			return err
		}
		if err := tx.Save(&header).Error; err != nil {
			return err
		}
		if len(steps) == 0 {
			return nil
		}
		return tx.CreateInBatches(steps, 500).Error
	})
}

// ListRuns returns the most recently saved runs first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]StoredRun, error) {
	var runs []StoredRun
	query := r.db.WithContext(ctx).Order("saved_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *Repository) GetRun(ctx context.Context, id string) (StoredRun, error) {
	var run StoredRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StoredRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// GetSteps returns a run's log in step order.
func (r *Repository) GetSteps(ctx context.Context, id string) ([]simulator.StepRecord, error) {
	var steps []StoredStep
	if err := r.db.WithContext(ctx).Where("run_id = ?", id).Order("step_index asc").Find(&steps).Error; err != nil {
		return nil, err
	}
	out := make([]simulator.StepRecord, len(steps))
	for i, s := range steps {
		out[i] = s.Record()
	}
	return out, nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
