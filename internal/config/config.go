package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DataConfig points at the raw INSEE artifacts on disk.
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	HousingCSV   string `yaml:"housing_csv" mapstructure:"housing_csv"`
	IncomeXLSX   string `yaml:"income_xlsx" mapstructure:"income_xlsx"`
	GeographyCSV string `yaml:"geography_csv" mapstructure:"geography_csv"`
	Shapefile    string `yaml:"shapefile" mapstructure:"shapefile"`
}

// Accepted band for the zone radius. Values outside it produce zones too
// sparse or too sprawling to compare, so Validate rejects them.
const (
	MinZoneRadiusKm = 10.0
	MaxZoneRadiusKm = 50.0
)

// AnalysisConfig holds the zone formation parameters.
type AnalysisConfig struct {
	MaxRadiusKm         float64 `yaml:"max_radius_km" mapstructure:"max_radius_km"`
	MinHouseholds       float64 `yaml:"min_households" mapstructure:"min_households"`
	MinPctMaisons       float64 `yaml:"min_pct_maisons" mapstructure:"min_pct_maisons"`
	MinIncomePercentile float64 `yaml:"min_income_percentile" mapstructure:"min_income_percentile"`
	ConversionRate      float64 `yaml:"conversion_rate" mapstructure:"conversion_rate"`
	Workers             int     `yaml:"workers" mapstructure:"workers"`
	TopZones            int     `yaml:"top_zones" mapstructure:"top_zones"`
}

// ScoringConfig holds the composite score weights. Weights are fractions
// and must sum to 1.
type ScoringConfig struct {
	HousingWeight    float64 `yaml:"housing_weight" mapstructure:"housing_weight"`
	IncomeWeight     float64 `yaml:"income_weight" mapstructure:"income_weight"`
	MarketSizeWeight float64 `yaml:"market_size_weight" mapstructure:"market_size_weight"`
}

// FetchConfig configures dataset downloads. Sources maps dataset names
// (housing, income, geography, shapefile) to http(s):// or ftp:// URLs;
// insee.fr file IDs rotate every vintage, so URLs are never baked in.
type FetchConfig struct {
	TempDir     string            `yaml:"temp_dir" mapstructure:"temp_dir"`
	Sources     map[string]string `yaml:"sources,omitempty" mapstructure:"sources"`
	RatePerHost float64           `yaml:"rate_per_host" mapstructure:"rate_per_host"`
	Burst       int               `yaml:"burst" mapstructure:"burst"`
	MaxRetries  int               `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs int               `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// NotionConfig holds Notion API credentials and the target database ID.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	ZonesDB string `yaml:"zones_db" mapstructure:"zones_db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the configuration needed for a given command mode.
// Common store and analysis settings are always checked.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}

	if c.Analysis.MaxRadiusKm < MinZoneRadiusKm || c.Analysis.MaxRadiusKm > MaxZoneRadiusKm {
		errs = append(errs, fmt.Sprintf("analysis.max_radius_km must be between %.0f and %.0f", MinZoneRadiusKm, MaxZoneRadiusKm))
	}
	if c.Analysis.MinHouseholds < 0 {
		errs = append(errs, "analysis.min_households must be >= 0")
	}
	if c.Analysis.ConversionRate <= 0 || c.Analysis.ConversionRate > 1 {
		errs = append(errs, "analysis.conversion_rate must be in (0, 1]")
	}
	if c.Analysis.MinIncomePercentile < 0 || c.Analysis.MinIncomePercentile > 100 {
		errs = append(errs, "analysis.min_income_percentile must be between 0 and 100")
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, "analysis.workers must be >= 0")
	}

	switch mode {
	case "analyze", "runs", "status":
		// Covered by the common checks.
	case "ingest":
		if c.Data.Dir == "" {
			errs = append(errs, "data.dir is required")
		}
		if c.Data.HousingCSV == "" {
			errs = append(errs, "data.housing_csv is required")
		}
	case "fetch":
		if c.Fetch.TempDir == "" {
			errs = append(errs, "fetch.temp_dir is required")
		}
		if c.Fetch.RatePerHost <= 0 {
			errs = append(errs, "fetch.rate_per_host must be > 0")
		}
		if len(c.Fetch.Sources) == 0 {
			errs = append(errs, "fetch.sources must map dataset names (housing, income, geography, shapefile) to URLs")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	case "export":
		// Notion credentials are checked by the command when pushing.
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// Local .env is optional; explicit environment wins over its values.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.zones")

	// Environment
	v.SetEnvPrefix("ZONES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "zones.db")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.housing_csv", "base-cc-logement-2021.CSV")
	v.SetDefault("data.income_xlsx", "niveau_de_vie_communes.xlsx")
	v.SetDefault("data.geography_csv", "communes-coordonnees.csv")
	v.SetDefault("data.shapefile", "communes.shp")
	v.SetDefault("analysis.max_radius_km", 15)
	v.SetDefault("analysis.min_households", 5000)
	v.SetDefault("analysis.min_pct_maisons", 20)
	v.SetDefault("analysis.min_income_percentile", 0)
	v.SetDefault("analysis.conversion_rate", 0.02)
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.top_zones", 20)
	v.SetDefault("scoring.housing_weight", 0.40)
	v.SetDefault("scoring.income_weight", 0.30)
	v.SetDefault("scoring.market_size_weight", 0.30)
	v.SetDefault("fetch.temp_dir", "/tmp/zones")
	v.SetDefault("fetch.rate_per_host", 4)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.max_retries", 4)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
