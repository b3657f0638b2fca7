package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/config"
	"github.com/stationscout/siteval-cli/internal/geo"
	"github.com/stationscout/siteval-cli/internal/hexgrid"
	"github.com/stationscout/siteval-cli/internal/registry"
	"github.com/stationscout/siteval-cli/internal/scoring"
	"github.com/stationscout/siteval-cli/internal/store"
	"github.com/stationscout/siteval-cli/pkg/geocode"
)

// memoCacheSize bounds the quantized-coordinate classifier cache.
const memoCacheSize = 1 << 18

// buildClassifier loads the land/water classifier from the configured
// shapefile, wrapped in a bounded memo cache.
func buildClassifier(gridCfg config.GridConfig) (geo.LandClassifier, error) {
	if gridCfg.ShapefilePath == "" {
		return nil, eris.New("grid.shapefile_path is required (set SITEVAL_GRID_SHAPEFILE_PATH or config.yaml)")
	}
	classifier, err := geo.LoadShapefileClassifier(gridCfg.ShapefilePath)
	if err != nil {
		return nil, err
	}
	return geo.NewMemoClassifier(classifier, memoCacheSize), nil
}

// buildGeocoder wires the reverse-geocoding cascade: remote backend first
// when configured, static bounding boxes as the infallible fallback.
func buildGeocoder(geoCfg config.GeocoderConfig) geocode.Geocoder {
	bbox := geocode.NewBoundingBoxGeocoder()
	if geoCfg.RemoteURL == "" {
		return bbox
	}
	remote := geocode.NewRemoteGeocoder(geoCfg.RemoteURL, geoCfg.RateLimit)
	return geocode.NewCascade(remote, bbox)
}

// buildRegistry resolves the competitor registry: an explicit JSON file wins,
// then the configured Postgres table, then an empty registry.
func buildRegistry(ctx context.Context, regCfg config.RegistryConfig, competitorsPath string) (registry.Registry, func(), error) {
	if competitorsPath != "" {
		mem, err := loadCompetitorFile(competitorsPath)
		if err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}

	if regCfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, regCfg.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "registry: connect")
		}
		return registry.NewPostgresRegistry(pool, regCfg.Table), pool.Close, nil
	}

	zap.L().Warn("no competitor source configured, scoring without competition data")
	return registry.NewMemoryRegistry(nil), func() {}, nil
}

func loadCompetitorFile(path string) (*registry.MemoryRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}
	var competitors []registry.Competitor
	if err := json.Unmarshal(data, &competitors); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}
	zap.L().Info("registry: loaded competitors from file",
		zap.String("path", path),
		zap.Int("count", len(competitors)),
	)
	return registry.NewMemoryRegistry(competitors), nil
}

// buildScorer loads scoring weights (optional YAML override) and constructs
// the scorer.
func buildScorer(scoringCfg config.ScoringConfig, weightsPath string) (*scoring.Scorer, error) {
	path := weightsPath
	if path == "" {
		path = scoringCfg.WeightsPath
	}
	weights := scoring.DefaultWeights()
	if path != "" {
		var err error
		weights, err = scoring.LoadWeights(path)
		if err != nil {
			return nil, err
		}
	}
	return scoring.NewScorer(weights)
}

// buildGenerator wires the full grid generation stack.
func buildGenerator(ctx context.Context, competitorsPath string) (*hexgrid.Generator, func(), error) {
	classifier, err := buildClassifier(cfg.Grid)
	if err != nil {
		return nil, nil, err
	}
	reg, closeReg, err := buildRegistry(ctx, cfg.Registry, competitorsPath)
	if err != nil {
		return nil, nil, err
	}
	gen := hexgrid.NewGenerator(classifier, buildGeocoder(cfg.Geocoder), reg, cfg.Grid.Workers)
	return gen, closeReg, nil
}

// openStore opens the run store at the configured path.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
