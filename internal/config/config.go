package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Grid       GridConfig       `yaml:"grid" mapstructure:"grid"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Registry   RegistryConfig   `yaml:"registry" mapstructure:"registry"`
	Geocoder   GeocoderConfig   `yaml:"geocoder" mapstructure:"geocoder"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ScoringConfig configures the scoring model.
type ScoringConfig struct {
	WeightsPath string `yaml:"weights_path" mapstructure:"weights_path"` // optional YAML weights override
}

// GridConfig configures grid generation.
type GridConfig struct {
	Workers               int     `yaml:"workers" mapstructure:"workers"`
	MaxCellsPerResolution int     `yaml:"max_cells_per_resolution" mapstructure:"max_cells_per_resolution"`
	MinLandCoverage       float64 `yaml:"min_land_coverage" mapstructure:"min_land_coverage"`
	CoverageSampleDensity int     `yaml:"coverage_sample_density" mapstructure:"coverage_sample_density"`
	BudgetSecs            int     `yaml:"budget_secs" mapstructure:"budget_secs"`
	ShapefilePath         string  `yaml:"shapefile_path" mapstructure:"shapefile_path"`
}

// ValidationConfig configures the validation harness.
type ValidationConfig struct {
	Seed         int64   `yaml:"seed" mapstructure:"seed"`
	TestFraction float64 `yaml:"test_fraction" mapstructure:"test_fraction"`
	RevenueScale float64 `yaml:"revenue_scale" mapstructure:"revenue_scale"`
	ProfitScale  float64 `yaml:"profit_scale" mapstructure:"profit_scale"`
	MarginScale  float64 `yaml:"margin_scale" mapstructure:"margin_scale"`
}

// RegistryConfig configures the competitor registry backend.
type RegistryConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // empty = in-memory only
	Table       string `yaml:"table" mapstructure:"table"`
}

// GeocoderConfig configures reverse geocoding.
type GeocoderConfig struct {
	RemoteURL string  `yaml:"remote_url" mapstructure:"remote_url"` // empty = bounding-box only
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite database path
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("grid.workers", 8)
	v.SetDefault("grid.max_cells_per_resolution", 250)
	v.SetDefault("grid.min_land_coverage", 30.0)
	v.SetDefault("grid.coverage_sample_density", 4)
	v.SetDefault("grid.budget_secs", 0)
	v.SetDefault("validation.seed", 42)
	v.SetDefault("validation.test_fraction", 0.2)
	v.SetDefault("validation.revenue_scale", 5_000_000)
	v.SetDefault("validation.profit_scale", 1_500_000)
	v.SetDefault("validation.margin_scale", 30)
	v.SetDefault("registry.table", "competitors")
	v.SetDefault("geocoder.rate_limit", 1.0)
	v.SetDefault("store.path", "siteval.db")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required for a given mode ("grid", "validate",
// "serve"). Shared bounds are checked for every mode; errors accumulate so a
// user sees all problems at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Grid.Workers < 1 || c.Grid.Workers > 64 {
		problems = append(problems, "grid.workers must be between 1 and 64")
	}
	if c.Grid.MinLandCoverage < 0 || c.Grid.MinLandCoverage > 100 {
		problems = append(problems, "grid.min_land_coverage must be between 0 and 100")
	}
	if c.Grid.MaxCellsPerResolution < 1 {
		problems = append(problems, "grid.max_cells_per_resolution must be >= 1")
	}

	switch mode {
	case "grid":
		// Shapefile optional: without it the grid falls back to the
		// built-in classifier behavior chosen by the caller.
	case "validate":
		if c.Validation.TestFraction <= 0 || c.Validation.TestFraction >= 1 {
			problems = append(problems, "validation.test_fraction must be in (0,1)")
		}
		if c.Validation.RevenueScale <= 0 || c.Validation.ProfitScale <= 0 || c.Validation.MarginScale <= 0 {
			problems = append(problems, "validation scale factors must be > 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
