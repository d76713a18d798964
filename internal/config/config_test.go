package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "zones.db", cfg.Store.Path)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "base-cc-logement-2021.CSV", cfg.Data.HousingCSV)
	assert.InDelta(t, 15, cfg.Analysis.MaxRadiusKm, 0.001)
	assert.InDelta(t, 5000, cfg.Analysis.MinHouseholds, 0.001)
	assert.InDelta(t, 20, cfg.Analysis.MinPctMaisons, 0.001)
	assert.InDelta(t, 0, cfg.Analysis.MinIncomePercentile, 0.001)
	assert.InDelta(t, 0.02, cfg.Analysis.ConversionRate, 0.0001)
	assert.Equal(t, 20, cfg.Analysis.TopZones)
	assert.InDelta(t, 0.40, cfg.Scoring.HousingWeight, 0.001)
	assert.InDelta(t, 0.30, cfg.Scoring.IncomeWeight, 0.001)
	assert.InDelta(t, 0.30, cfg.Scoring.MarketSizeWeight, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/zones
analysis:
  max_radius_km: 25
  conversion_rate: 0.05
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/zones", cfg.Store.DatabaseURL)
	assert.InDelta(t, 25, cfg.Analysis.MaxRadiusKm, 0.001)
	assert.InDelta(t, 0.05, cfg.Analysis.ConversionRate, 0.0001)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.InDelta(t, 5000, cfg.Analysis.MinHouseholds, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ZONES_STORE_DRIVER", "sqlite")
	t.Setenv("ZONES_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("ZONES_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func validDefaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", Path: "zones.db"},
		Data:  DataConfig{Dir: "data", HousingCSV: "base-cc-logement-2021.CSV"},
		Analysis: AnalysisConfig{
			MaxRadiusKm:    15,
			MinHouseholds:  5000,
			ConversionRate: 0.02,
		},
		Fetch:  FetchConfig{TempDir: "/tmp/zones", RatePerHost: 4},
		Server: ServerConfig{Port: 8080},
	}
}

func TestValidateAnalyze(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("analyze"))
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")

	cfg.Store.Driver = "postgres"
	err = cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/zones"
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateAnalysisBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Analysis.MaxRadiusKm = 5
	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_radius_km must be between 10 and 50")

	cfg.Analysis.MaxRadiusKm = 80
	err = cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_radius_km must be between 10 and 50")

	cfg = validDefaults()
	cfg.Analysis.ConversionRate = 1.5
	err = cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "conversion_rate must be in (0, 1]")

	cfg = validDefaults()
	cfg.Analysis.MinIncomePercentile = 120
	err = cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_income_percentile must be between 0 and 100")
}

func TestValidateServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateIngest(t *testing.T) {
	cfg := validDefaults()
	cfg.Data.HousingCSV = ""
	err := cfg.Validate("ingest")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data.housing_csv is required")
}

func TestValidateFetchRequiresSources(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("fetch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.sources")

	cfg.Fetch.Sources = map[string]string{"housing": "https://example.insee.fr/base-cc-logement-2021_csv.zip"}
	assert.NoError(t, cfg.Validate("fetch"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("nonsense")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
