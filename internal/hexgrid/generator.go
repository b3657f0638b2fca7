package hexgrid

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stationscout/siteval-cli/internal/geo"
	"github.com/stationscout/siteval-cli/internal/registry"
	"github.com/stationscout/siteval-cli/pkg/geocode"
)

// Opportunity is one scored candidate cell.
type Opportunity struct {
	CellID             string                 `json:"cell_id"`
	Resolution         int                    `json:"resolution"`
	CenterLat          float64                `json:"center_lat"`
	CenterLon          float64                `json:"center_lon"`
	Boundary           [][2]float64           `json:"boundary"` // closed [lat,lon] ring
	AreaKM2            float64                `json:"area_km2"`
	LandCoverage       float64                `json:"land_coverage"`
	Coastal            bool                   `json:"coastal"`
	Country            string                 `json:"country"`
	CountryCode        string                 `json:"country_code"`
	Region             string                 `json:"region"`
	PopulationCategory string                 `json:"population_category"`
	NearestCity        string                 `json:"nearest_city,omitempty"`
	Competition        registry.DistanceStats `json:"competition"`
	Scores             SubScores              `json:"scores"`
	OverallScore       int                    `json:"overall_score"`
	Economics          Economics              `json:"economics"`
	Risk               RiskAssessment         `json:"risk"`
}

// Options controls one grid generation run.
type Options struct {
	Resolutions           []int         `json:"resolutions"`
	Bounds                geo.Bounds    `json:"bounds"`
	MinLandCoverage       float64       `json:"min_land_coverage"` // percent, 0-100
	MaxCellsPerResolution int           `json:"max_cells_per_resolution"`
	CoastalOnly           bool          `json:"coastal_only"`
	CoverageSampleDensity int           `json:"coverage_sample_density"` // lattice density for land coverage, default 4
	Budget                time.Duration `json:"budget,omitempty"`        // optional wall-clock cap, 0 = none
}

const (
	defaultMaxCells        = 250
	defaultCoverageDensity = 4

	// evalBatchSize bounds how many cells each parallel wave evaluates.
	// Waves run sequentially so the per-resolution cap stops work early
	// while acceptance order stays deterministic.
	evalBatchSize = 256
)

// Generator produces ranked candidate grids. The classifier, geocoder, and
// registry must be safe for concurrent use; remote-backed registries are
// materialized once before the parallel phase.
type Generator struct {
	classifier geo.LandClassifier
	geocoder   geocode.Geocoder
	registry   registry.Registry
	workers    int
}

// NewGenerator wires a generator. workers ≤ 0 selects a sane default.
func NewGenerator(classifier geo.LandClassifier, geocoder geocode.Geocoder, reg registry.Registry, workers int) *Generator {
	if workers <= 0 {
		workers = 8
	}
	return &Generator{
		classifier: classifier,
		geocoder:   geocoder,
		registry:   reg,
		workers:    workers,
	}
}

// Generate evaluates every resolution in opts and returns the accepted,
// scored cells per resolution, sorted by overall score descending. Cells are
// evaluated in parallel; all ordering is imposed on the coordinating
// goroutine, so identical inputs produce identical output.
func (g *Generator) Generate(ctx context.Context, opts Options) (map[int][]Opportunity, error) {
	if err := validateOptions(&opts); err != nil {
		return nil, err
	}
	if opts.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Budget)
		defer cancel()
	}

	// Pre-resolve remote registries so workers query a pure snapshot.
	reg := g.registry
	if m, ok := reg.(registry.Materializer); ok {
		mem, err := m.Materialize(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "hexgrid: materialize registry")
		}
		reg = mem
	}

	start := time.Now()
	grid := make(map[int][]Opportunity, len(opts.Resolutions))
	for _, res := range opts.Resolutions {
		cells, err := g.generateResolution(ctx, res, opts, reg)
		if err != nil {
			return nil, err
		}
		grid[res] = cells
		zap.L().Info("hexgrid: resolution complete",
			zap.Int("resolution", res),
			zap.Int("accepted", len(cells)),
		)
	}
	zap.L().Info("hexgrid: grid generated",
		zap.Int("resolutions", len(opts.Resolutions)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return grid, nil
}

func (g *Generator) generateResolution(ctx context.Context, res int, opts Options, reg registry.Registry) ([]Opportunity, error) {
	candidates := enumerateCells(res, opts.Bounds)
	zap.L().Debug("hexgrid: candidates enumerated",
		zap.Int("resolution", res),
		zap.Int("candidates", len(candidates)),
	)

	accepted := make([]Opportunity, 0, opts.MaxCellsPerResolution)
	for lo := 0; lo < len(candidates) && len(accepted) < opts.MaxCellsPerResolution; lo += evalBatchSize {
		hi := lo + evalBatchSize
		if hi > len(candidates) {
			hi = len(candidates)
		}
		batch := candidates[lo:hi]
		results := make([]*Opportunity, len(batch))

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.workers)
		for i, cell := range batch {
			eg.Go(func() error {
				opp, err := g.evaluate(egCtx, cell, opts, reg)
				if err != nil {
					return err
				}
				results[i] = opp
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		for _, r := range results {
			if r == nil {
				continue
			}
			accepted = append(accepted, *r)
			if len(accepted) == opts.MaxCellsPerResolution {
				break
			}
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].OverallScore != accepted[j].OverallScore {
			return accepted[i].OverallScore > accepted[j].OverallScore
		}
		return accepted[i].CellID < accepted[j].CellID
	})
	return accepted, nil
}

// evaluate scores one cell. A nil result with nil error means the cell was
// filtered out. Classifier failures are fail-closed inside Coverage and
// IsCoastal; geocoder failures drop the cell rather than guessing.
func (g *Generator) evaluate(ctx context.Context, cell Cell, opts Options, reg registry.Registry) (*Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	coverage := geo.Coverage(g.classifier, cell.BoundingBox(), opts.CoverageSampleDensity)
	if coverage < opts.MinLandCoverage {
		return nil, nil
	}

	lat, lon := cell.Center()
	coastal := geo.IsCoastal(g.classifier, lat, lon)
	if opts.CoastalOnly && !coastal {
		return nil, nil
	}

	info, err := g.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		zap.L().Debug("hexgrid: geocode failed, dropping cell",
			zap.String("cell", cell.ID()),
			zap.Error(err),
		)
		return nil, nil
	}

	stats, err := reg.Stats(ctx, lat, lon)
	if err != nil {
		return nil, eris.Wrapf(err, "hexgrid: competitor stats for %s", cell.ID())
	}

	scores := SubScores{
		Market:        marketScore(info),
		Competition:   competitionScore(stats),
		Weather:       weatherScore(lat, lon),
		Coverage:      coverageScore(lat),
		Terrain:       terrainScore(lat, lon, coastal),
		Accessibility: accessibilityScore(info, coastal, lat),
	}
	overall := scores.Overall()
	area := cell.AreaKM2()

	return &Opportunity{
		CellID:             cell.ID(),
		Resolution:         cell.Res,
		CenterLat:          lat,
		CenterLon:          lon,
		Boundary:           cell.BoundaryRing(),
		AreaKM2:            area,
		LandCoverage:       coverage,
		Coastal:            coastal,
		Country:            info.Country,
		CountryCode:        info.CountryCode,
		Region:             info.Region,
		PopulationCategory: info.PopulationCategory,
		NearestCity:        info.NearestCity,
		Competition:        stats,
		Scores:             scores,
		OverallScore:       overall,
		Economics:          estimateEconomics(area, scores, overall),
		Risk:               assessRisk(scores, stats, info.CountryCode, lat),
	}, nil
}

// enumerateCells walks the bounding box at a resolution-dependent step and
// returns the deduplicated containing cells in deterministic scan order
// (south to north, west to east).
func enumerateCells(res int, b geo.Bounds) []Cell {
	step := edgeKM[res] * 0.9
	latStep := step / geo.KMPerDegreeLat

	midLat := (b.MinLat + b.MaxLat) / 2
	cosMid := math.Cos(midLat * math.Pi / 180)
	if cosMid < 0.05 {
		cosMid = 0.05
	}
	lonStep := step / (geo.KMPerDegreeLon * cosMid)

	seen := make(map[Cell]struct{})
	var cells []Cell
	for lat := b.MinLat; lat <= b.MaxLat; lat += latStep {
		for lon := b.MinLon; lon <= b.MaxLon; lon += lonStep {
			cell := CellAt(lat, lon, res)
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			cells = append(cells, cell)
		}
	}
	return cells
}

func validateOptions(opts *Options) error {
	if len(opts.Resolutions) == 0 {
		return eris.New("hexgrid: at least one resolution required")
	}
	for _, res := range opts.Resolutions {
		if !ValidResolution(res) {
			return eris.Errorf("hexgrid: resolution %d out of range [%d,%d]", res, MinResolution, MaxResolution)
		}
	}
	b := opts.Bounds
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return eris.New("hexgrid: bounds must have min < max on both axes")
	}
	if opts.MinLandCoverage < 0 || opts.MinLandCoverage > 100 {
		return eris.Errorf("hexgrid: minLandCoverage %.1f outside [0,100]", opts.MinLandCoverage)
	}
	if opts.MaxCellsPerResolution <= 0 {
		opts.MaxCellsPerResolution = defaultMaxCells
	}
	if opts.CoverageSampleDensity <= 0 {
		opts.CoverageSampleDensity = defaultCoverageDensity
	}
	return nil
}
