package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"analyze", "ingest", "fetch", "serve", "export", "runs", "status", "config"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "zones-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmd_PersistentPreRunE_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
store:
  driver: sqlite
  path: custom.db
log:
  level: info
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(configContent), 0o644))

	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	oldCfg := cfg
	cfg = nil
	defer func() { cfg = oldCfg }()

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "custom.db", cfg.Store.Path)
}

func TestRootCmd_PersistentPreRunE_NoConfigFile(t *testing.T) {
	// With no config.yaml, viper falls back to defaults + env.
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	oldCfg := cfg
	cfg = nil
	defer func() { cfg = oldCfg }()

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.InDelta(t, 15.0, cfg.Analysis.MaxRadiusKm, 0.001)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"radius", "min-households", "min-pct-maisons", "min-income-percentile", "conversion-rate", "workers", "top", "out", "json"} {
		flag := analyzeCmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "analyze should have --%s flag", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestFetchCommand_Flags(t *testing.T) {
	flag := fetchCmd.Flags().Lookup("only")
	require.NotNil(t, flag, "fetch command should have --only flag")
}

func TestExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"run", "out", "min-score", "dept", "limit", "notion"} {
		flag := exportCmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "export should have --%s flag", name)
	}
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	cmds := runsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"list", "show"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}

	limitFlag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "50", limitFlag.DefValue)
}

func TestConfigCommand_HasInit(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["init"], "config should have subcommand init")

	pathFlag := configInitCmd.Flags().Lookup("path")
	require.NotNil(t, pathFlag)
	assert.Equal(t, "config.yaml", pathFlag.DefValue)
}
