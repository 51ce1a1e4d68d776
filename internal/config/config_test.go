package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/driver"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analystdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "")
	flags.String("log-level", "info", "")
	flags.Int("workers", 4, "")
	flags.String("format", "csv", "")
	flags.String("unrelated", "", "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, driver.MemoryPath, cfg.Database)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5000, cfg.SQLite.BusyTimeoutMS)
	assert.True(t, cfg.SQLite.ForeignKeys)
	assert.Equal(t, "python3", cfg.Scripts.Interpreter)
	assert.Equal(t, "bridge_generate_sql.py", cfg.Scripts.Capabilities["generate_sql"])
	assert.Len(t, cfg.Scripts.Capabilities, 4)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Bridge.Workers)
	assert.Equal(t, driver.Pragmas{BusyTimeout: 5 * time.Second, ForeignKeys: true}, cfg.Pragmas())

	options, err := cfg.DumpOptions()
	require.NoError(t, err)
	assert.Equal(t, model.NewDumpOptions(), options)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
database: file.db
log:
  level: warn
  format: json
bridge:
  workers: 2
export:
  format: tsv
  compression: gz
scripts:
  capabilities:
    generate_sql: custom.py
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "file.db", cfg.Database)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, 2, cfg.Bridge.Workers)
		assert.Equal(t, "custom.py", cfg.Scripts.Capabilities["generate_sql"])
		assert.Equal(t, "bridge_analyze_data.py", cfg.Scripts.Capabilities["analyze_data"])

		options, err := cfg.DumpOptions()
		require.NoError(t, err)
		assert.Equal(t, model.OutputFormatTSV, options.Format)
		assert.Equal(t, model.CompressionGZ, options.Compression)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("ANALYSTDB_LOG__LEVEL", "debug")
		t.Setenv("ANALYSTDB_BRIDGE__WORKERS", "8")
		t.Setenv("ANALYSTDB_SQLITE__BUSY_TIMEOUT_MS", "250")

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, 8, cfg.Bridge.Workers)
		assert.Equal(t, 250*time.Millisecond, cfg.Pragmas().BusyTimeout)
		assert.Equal(t, "file.db", cfg.Database)
	})

	t.Run("changed flags override env", func(t *testing.T) {
		t.Setenv("ANALYSTDB_DATABASE", "env.db")
		t.Setenv("ANALYSTDB_BRIDGE__WORKERS", "8")

		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--database", "flag.db", "--unrelated", "x"}))

		cfg, err := Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "flag.db", cfg.Database)
		assert.Equal(t, 8, cfg.Bridge.Workers, "unchanged flag must not override env")
		assert.Equal(t, "warn", cfg.Log.Level, "unchanged flag must not override file")
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown export format", body: "export:\n  format: json\n"},
		{name: "bzip2 is not writable", body: "export:\n  compression: bz2\n"},
		{name: "zero workers", body: "bridge:\n  workers: 0\n"},
		{name: "negative busy timeout", body: "sqlite:\n  busy_timeout_ms: -1\n"},
		{name: "blank database", body: "database: \"  \"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			assert.Error(t, err)
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestEnvKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "log.level", envKey("ANALYSTDB_LOG__LEVEL"))
	assert.Equal(t, "sqlite.busy_timeout_ms", envKey("ANALYSTDB_SQLITE__BUSY_TIMEOUT_MS"))
	assert.Equal(t, "database", envKey("ANALYSTDB_DATABASE"))
}
