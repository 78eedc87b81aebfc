package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
	"credentials": {
		"client_secrets_path": "secrets.json",
		"token_path": "token.json"
	},
	"source": {"folder_id": "src"},
	"destination": {"folder_id": "dst"}
}`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Performance.UserRateLimit)
	assert.Equal(t, 60*time.Second, cfg.TimeWindow())
	assert.Equal(t, 1, cfg.Performance.Workers)
	assert.Equal(t, 100, cfg.Migration.BatchSize)
	assert.Equal(t, 10, cfg.Migration.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.True(t, cfg.FinalValidation(), "validation defaults to on")
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"credentials": {"client_secrets_path": "s", "token_path": "t"},
		"source": {"folder_id": "src"},
		"destination": {"folder_id": "dst"},
		"performance": {"user_rate_limit": 500, "user_time_window": 100, "workers": 4},
		"migration": {"batch_size": 25, "final_validation": false}
	}`))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Performance.UserRateLimit)
	assert.Equal(t, 100*time.Second, cfg.TimeWindow())
	assert.Equal(t, 4, cfg.Performance.Workers)
	assert.Equal(t, 25, cfg.Migration.BatchSize)
	assert.False(t, cfg.FinalValidation())
}

func TestLoadRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
		field   string
	}{
		{
			"no credentials",
			`{"source": {"folder_id": "s"}, "destination": {"folder_id": "d"}}`,
			"credentials.client_secrets_path",
		},
		{
			"no token path",
			`{"credentials": {"client_secrets_path": "s"},
			  "source": {"folder_id": "s"}, "destination": {"folder_id": "d"}}`,
			"credentials.token_path",
		},
		{
			"no source",
			`{"credentials": {"client_secrets_path": "s", "token_path": "t"},
			  "destination": {"folder_id": "d"}}`,
			"source.folder_id",
		},
		{
			"no destination",
			`{"credentials": {"client_secrets_path": "s", "token_path": "t"},
			  "source": {"folder_id": "s"}}`,
			"destination.folder_id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing required configuration field: "+tc.field)
		})
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, "{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLogFilePath(t *testing.T) {
	cfg := &Config{}
	path, err := cfg.LogFilePath(time.Now())
	require.NoError(t, err)
	assert.Empty(t, path, "no log directory configured means no log file")

	dir := filepath.Join(t.TempDir(), "logs")
	cfg.Logging.LogDirectory = dir
	stamp := time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC)
	path, err = cfg.LogFilePath(stamp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sync_log_20260826_150405.log"), path)
	assert.DirExists(t, dir)
}

func TestParseCLISync(t *testing.T) {
	cli, err := ParseCLI([]string{"drivesync", "sync",
		"-config", "/etc/ds.json", "-workers", "8", "-non-interactive", "-test"})
	require.NoError(t, err)

	assert.Equal(t, "sync", cli.Command)
	assert.Equal(t, "/etc/ds.json", cli.ConfigPath)
	assert.Equal(t, 8, cli.Workers)
	assert.True(t, cli.NonInteractive)
	assert.True(t, cli.TestMode)
}

func TestParseCLICompareDetailed(t *testing.T) {
	cli, err := ParseCLI([]string{"drivesync", "compare", "-detailed"})
	require.NoError(t, err)
	assert.Equal(t, "compare", cli.Command)
	assert.True(t, cli.Detailed)
	assert.Equal(t, "./config.json", cli.ConfigPath)
}

func TestParseCLIRejectsUnknownCommand(t *testing.T) {
	_, err := ParseCLI([]string{"drivesync", "explode"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestParseCLIRequiresCommand(t *testing.T) {
	_, err := ParseCLI([]string{"drivesync"})
	require.Error(t, err)
}
