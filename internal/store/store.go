// Package store persists grid and validation runs so results survive the
// CLI process and the drift monitor can compare runs over time.
package store

import (
	"context"
	"time"

	"github.com/stationscout/siteval-cli/internal/hexgrid"
	"github.com/stationscout/siteval-cli/internal/validation"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// GridRun is one persisted grid generation run.
type GridRun struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Options     hexgrid.Options `json:"options"`
	CellCount   int             `json:"cell_count"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// ValidationRun is one persisted validation summary.
type ValidationRun struct {
	ID        string             `json:"id"`
	Target    string             `json:"target"`
	Summary   validation.Summary `json:"summary"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store is the persistence interface for runs.
type Store interface {
	// Grid runs
	CreateGridRun(ctx context.Context, opts hexgrid.Options) (*GridRun, error)
	CompleteGridRun(ctx context.Context, runID string, grid map[int][]hexgrid.Opportunity) error
	FailGridRun(ctx context.Context, runID string) error
	GetGridRun(ctx context.Context, runID string) (*GridRun, error)
	ListGridRuns(ctx context.Context, limit int) ([]GridRun, error)
	GridCells(ctx context.Context, runID string) (map[int][]hexgrid.Opportunity, error)

	// Validation runs
	SaveValidationRun(ctx context.Context, summary *validation.Summary) (*ValidationRun, error)
	ListValidationRuns(ctx context.Context, limit int) ([]ValidationRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
