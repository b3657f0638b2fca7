package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/stationscout/siteval-cli/internal/hexgrid"
	"github.com/stationscout/siteval-cli/internal/validation"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS grid_runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	options      TEXT NOT NULL,
	cell_count   INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS grid_cells (
	run_id     TEXT NOT NULL REFERENCES grid_runs(id),
	resolution INTEGER NOT NULL,
	cell_id    TEXT NOT NULL,
	score      INTEGER NOT NULL,
	cell       TEXT NOT NULL,
	PRIMARY KEY (run_id, resolution, cell_id)
);

CREATE TABLE IF NOT EXISTS validation_runs (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	summary    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_grid_runs_status ON grid_runs(status);
CREATE INDEX IF NOT EXISTS idx_grid_cells_run_id ON grid_cells(run_id);
CREATE INDEX IF NOT EXISTS idx_validation_runs_target ON validation_runs(target);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateGridRun(ctx context.Context, opts hexgrid.Options) (*GridRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal options")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO grid_runs (id, status, options, created_at) VALUES (?, ?, ?, ?)`,
		id, StatusRunning, string(optsJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert grid run")
	}

	return &GridRun{ID: id, Status: StatusRunning, Options: opts, CreatedAt: now}, nil
}

func (s *SQLiteStore) CompleteGridRun(ctx context.Context, runID string, grid map[int][]hexgrid.Opportunity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	count := 0
	for res, cells := range grid {
		for _, cell := range cells {
			cellJSON, err := json.Marshal(cell)
			if err != nil {
				return eris.Wrap(err, "sqlite: marshal cell")
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO grid_cells (run_id, resolution, cell_id, score, cell) VALUES (?, ?, ?, ?, ?)`,
				runID, res, cell.CellID, cell.OverallScore, string(cellJSON),
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert cell %s", cell.CellID)
			}
			count++
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE grid_runs SET status = ?, cell_count = ?, completed_at = ? WHERE id = ?`,
		StatusComplete, count, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete grid run %s", runID)
	}
	if err := checkRowsAffected(res, "grid run", runID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) FailGridRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE grid_runs SET status = ?, completed_at = ? WHERE id = ?`,
		StatusFailed, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail grid run %s", runID)
	}
	return checkRowsAffected(res, "grid run", runID)
}

func (s *SQLiteStore) GetGridRun(ctx context.Context, runID string) (*GridRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, options, cell_count, created_at, completed_at FROM grid_runs WHERE id = ?`,
		runID,
	)
	return scanGridRun(row)
}

func (s *SQLiteStore) ListGridRuns(ctx context.Context, limit int) ([]GridRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, options, cell_count, created_at, completed_at
		 FROM grid_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list grid runs")
	}
	defer rows.Close()

	var runs []GridRun
	for rows.Next() {
		r, err := scanGridRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list grid runs iterate")
}

func (s *SQLiteStore) GridCells(ctx context.Context, runID string) (map[int][]hexgrid.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resolution, cell FROM grid_cells WHERE run_id = ? ORDER BY resolution, score DESC, cell_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: cells for run %s", runID)
	}
	defer rows.Close()

	grid := make(map[int][]hexgrid.Opportunity)
	for rows.Next() {
		var res int
		var cellJSON string
		if err := rows.Scan(&res, &cellJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cell")
		}
		var cell hexgrid.Opportunity
		if err := json.Unmarshal([]byte(cellJSON), &cell); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal cell")
		}
		grid[res] = append(grid[res], cell)
	}
	return grid, eris.Wrap(rows.Err(), "sqlite: cells iterate")
}

func (s *SQLiteStore) SaveValidationRun(ctx context.Context, summary *validation.Summary) (*ValidationRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO validation_runs (id, target, summary, created_at) VALUES (?, ?, ?, ?)`,
		id, string(summary.Target), string(summaryJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert validation run")
	}

	return &ValidationRun{ID: id, Target: string(summary.Target), Summary: *summary, CreatedAt: now}, nil
}

func (s *SQLiteStore) ListValidationRuns(ctx context.Context, limit int) ([]ValidationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, summary, created_at FROM validation_runs
		 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list validation runs")
	}
	defer rows.Close()

	var runs []ValidationRun
	for rows.Next() {
		var r ValidationRun
		var summaryJSON string
		if err := rows.Scan(&r.ID, &r.Target, &summaryJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan validation run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list validation runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanGridRun(row scannable) (*GridRun, error) {
	var r GridRun
	var optsJSON string
	var completedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Status, &optsJSON, &r.CellCount, &r.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("grid run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan grid run")
	}

	if err := json.Unmarshal([]byte(optsJSON), &r.Options); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal options")
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
