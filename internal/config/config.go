// Package config loads application configuration from file, environment,
// and scenario overlays, and initializes the global logger.
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
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	AOI      AOIConfig      `yaml:"aoi" mapstructure:"aoi"`
	Buffers  BuffersConfig  `yaml:"buffers" mapstructure:"buffers"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Spatial  SpatialConfig  `yaml:"spatial" mapstructure:"spatial"`
	Planning PlanningConfig `yaml:"planning" mapstructure:"planning"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates input catalogs and output artifacts.
type PathsConfig struct {
	CatalogsDir  string `yaml:"catalogs_dir" mapstructure:"catalogs_dir"`
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
}

// AOIConfig names the cities to analyze. Empty means every city present in
// the library catalog.
type AOIConfig struct {
	Cities []string `yaml:"cities" mapstructure:"cities"`
}

// BuffersConfig holds the catchment radii for stop-density buffers.
type BuffersConfig struct {
	RadiiM []int `yaml:"radii_m" mapstructure:"radii_m"`
}

// ScoringConfig holds raw, unnormalized scoring weights and targets. Radius
// keys arrive as YAML mapping keys and stay strings here; the scoring
// package parses and normalizes them when the settings are built.
type ScoringConfig struct {
	ModeWeights          map[string]float64            `yaml:"mode_weights" mapstructure:"mode_weights"`
	RadiusWeights        map[string]float64            `yaml:"radius_weights" mapstructure:"radius_weights"`
	DensityTargetsPerKm2 map[string]map[string]float64 `yaml:"density_targets_per_km2" mapstructure:"density_targets_per_km2"`
}

// SpatialConfig tunes the projection and the desert grid geometry.
type SpatialConfig struct {
	Distance DistanceConfig `yaml:"distance" mapstructure:"distance"`
	Grid     GridConfig     `yaml:"grid" mapstructure:"grid"`
}

// DistanceConfig selects the reference latitude strategy ("mean" or "median").
type DistanceConfig struct {
	ReferenceLatStrategy string `yaml:"reference_lat_strategy" mapstructure:"reference_lat_strategy"`
}

// GridConfig sets the desert grid cell size.
type GridConfig struct {
	CellSizeM int `yaml:"cell_size_m" mapstructure:"cell_size_m"`
}

// PlanningConfig groups desert detection and outreach ranking settings.
type PlanningConfig struct {
	Deserts  DesertsConfig  `yaml:"deserts" mapstructure:"deserts"`
	Outreach OutreachConfig `yaml:"outreach" mapstructure:"outreach"`
}

// DesertsConfig configures desert detection.
type DesertsConfig struct {
	LibrarySearchRadiusM int         `yaml:"library_search_radius_m" mapstructure:"library_search_radius_m"`
	ThresholdScore       float64     `yaml:"threshold_score" mapstructure:"threshold_score"`
	DistanceDecay        DecayConfig `yaml:"distance_decay" mapstructure:"distance_decay"`
}

// DecayConfig configures distance decay. Type must be "linear" or "none";
// anything else fails when the planning config is built.
type DecayConfig struct {
	Type    string `yaml:"type" mapstructure:"type"`
	ZeroAtM int    `yaml:"zero_at_m" mapstructure:"zero_at_m"`
}

// OutreachConfig configures outreach site ranking.
type OutreachConfig struct {
	CoverageRadiusM       int      `yaml:"coverage_radius_m" mapstructure:"coverage_radius_m"`
	TopNPerCity           int      `yaml:"top_n_per_city" mapstructure:"top_n_per_city"`
	WeightCoverage        float64  `yaml:"weight_coverage" mapstructure:"weight_coverage"`
	WeightSiteAccess      float64  `yaml:"weight_site_access" mapstructure:"weight_site_access"`
	AllowedCandidateTypes []string `yaml:"allowed_candidate_types" mapstructure:"allowed_candidate_types"`
}

// StoreConfig configures the run and summary store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment, then merges the named
// scenario overlay on top. A missing overlay file for the baseline scenario
// means no overrides.
func Load(scenario string) (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment
	v.SetEnvPrefix("REACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.catalogs_dir", "data/catalogs")
	v.SetDefault("paths.raw_dir", "data/raw")
	v.SetDefault("paths.processed_dir", "data/processed")
	v.SetDefault("buffers.radii_m", []int{500, 1000})
	v.SetDefault("scoring.mode_weights", map[string]float64{"bus": 0.6, "metro": 0.4})
	v.SetDefault("scoring.radius_weights", map[string]float64{"500": 0.6, "1000": 0.4})
	v.SetDefault("scoring.density_targets_per_km2", map[string]map[string]float64{
		"bus":   {"500": 20, "1000": 10},
		"metro": {"500": 2, "1000": 1},
	})
	v.SetDefault("spatial.distance.reference_lat_strategy", "mean")
	v.SetDefault("spatial.grid.cell_size_m", 1000)
	v.SetDefault("planning.deserts.library_search_radius_m", 3000)
	v.SetDefault("planning.deserts.threshold_score", 40.0)
	v.SetDefault("planning.deserts.distance_decay.type", "linear")
	v.SetDefault("planning.deserts.distance_decay.zero_at_m", 3000)
	v.SetDefault("planning.outreach.coverage_radius_m", 1500)
	v.SetDefault("planning.outreach.top_n_per_city", 5)
	v.SetDefault("planning.outreach.weight_coverage", 0.7)
	v.SetDefault("planning.outreach.weight_site_access", 0.3)
	v.SetDefault("store.path", "data/reach.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	if err := mergeScenario(v, scenario); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
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
