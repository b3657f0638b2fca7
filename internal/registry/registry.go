// Package registry provides the competitor registry consumed by grid
// generation: a queryable set of existing ground stations supporting
// nearest-neighbor and radius-count queries.
package registry

import (
	"context"

	"github.com/stationscout/siteval-cli/internal/geo"
)

// Competitor is one existing ground station.
type Competitor struct {
	ID       string  `json:"id"`
	Operator string  `json:"operator,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// NoCompetitor is the NearestKM value when the registry holds no
// competitors. The sentinel must survive encoding/json, which rejects ±Inf.
const NoCompetitor = -1

// DistanceStats summarizes competitor proximity around a point.
type DistanceStats struct {
	NearestKM      float64 `json:"nearest_km"` // NoCompetitor when the registry is empty
	CountWithin5   int     `json:"count_within_5km"`
	CountWithin25  int     `json:"count_within_25km"`
	CountWithin100 int     `json:"count_within_100km"`
}

// Registry answers competitor proximity queries. Implementations backed by a
// remote store must be materialized into a MemoryRegistry before the
// parallel grid phase (see Materializer).
type Registry interface {
	// Stats returns proximity statistics around a point.
	Stats(ctx context.Context, lat, lon float64) (DistanceStats, error)
	// All returns every competitor in the registry.
	All(ctx context.Context) ([]Competitor, error)
}

// Materializer is implemented by registries that can pre-resolve themselves
// into a pure in-memory snapshot.
type Materializer interface {
	Materialize(ctx context.Context) (*MemoryRegistry, error)
}

// MemoryRegistry is a pure in-memory Registry. Queries are brute-force
// haversine scans, which is adequate for typical registry sizes (thousands)
// and keeps the hot path free of shared mutable state.
type MemoryRegistry struct {
	competitors []Competitor
}

// NewMemoryRegistry builds a registry over a fixed competitor slice.
func NewMemoryRegistry(competitors []Competitor) *MemoryRegistry {
	return &MemoryRegistry{competitors: competitors}
}

// Stats implements Registry.
func (r *MemoryRegistry) Stats(_ context.Context, lat, lon float64) (DistanceStats, error) {
	stats := DistanceStats{NearestKM: NoCompetitor}
	for _, c := range r.competitors {
		d := geo.Haversine(lat, lon, c.Lat, c.Lon)
		if stats.NearestKM < 0 || d < stats.NearestKM {
			stats.NearestKM = d
		}
		if d <= 5 {
			stats.CountWithin5++
		}
		if d <= 25 {
			stats.CountWithin25++
		}
		if d <= 100 {
			stats.CountWithin100++
		}
	}
	return stats, nil
}

// All implements Registry.
func (r *MemoryRegistry) All(_ context.Context) ([]Competitor, error) {
	out := make([]Competitor, len(r.competitors))
	copy(out, r.competitors)
	return out, nil
}

// Len returns the number of registered competitors.
func (r *MemoryRegistry) Len() int { return len(r.competitors) }
