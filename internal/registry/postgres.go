package registry

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// PgxQuerier is the subset of pgxpool.Pool the registry needs. pgxmock
// satisfies it in tests.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRegistry loads competitors from a Postgres table. It does not
// answer proximity queries directly: call Materialize before scoring so the
// parallel phase runs against a pure snapshot.
type PostgresRegistry struct {
	pool  PgxQuerier
	table string
}

// NewPostgresRegistry creates a registry reading from the given table, which
// must have columns (id, operator, latitude, longitude).
func NewPostgresRegistry(pool PgxQuerier, table string) *PostgresRegistry {
	if table == "" {
		table = "competitors"
	}
	return &PostgresRegistry{pool: pool, table: table}
}

// All implements Registry.
func (r *PostgresRegistry) All(ctx context.Context) ([]Competitor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(operator, ''), latitude, longitude FROM `+r.table+` ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "registry: query competitors")
	}
	defer rows.Close()

	var out []Competitor
	for rows.Next() {
		var c Competitor
		if err := rows.Scan(&c.ID, &c.Operator, &c.Lat, &c.Lon); err != nil {
			return nil, eris.Wrap(err, "registry: scan competitor")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "registry: iterate competitors")
	}
	return out, nil
}

// Stats implements Registry by materializing first. Prefer calling
// Materialize once and querying the snapshot.
func (r *PostgresRegistry) Stats(ctx context.Context, lat, lon float64) (DistanceStats, error) {
	mem, err := r.Materialize(ctx)
	if err != nil {
		return DistanceStats{}, err
	}
	return mem.Stats(ctx, lat, lon)
}

// Materialize implements Materializer.
func (r *PostgresRegistry) Materialize(ctx context.Context) (*MemoryRegistry, error) {
	competitors, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	zap.L().Info("registry: materialized competitors",
		zap.String("table", r.table),
		zap.Int("count", len(competitors)),
	)
	return NewMemoryRegistry(competitors), nil
}
