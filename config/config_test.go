package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worklog/config"
	"github.com/warp/worklog/ledger"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "worklog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "worklog.db", cfg.Database)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, time.Hour, cfg.Sweeper.Interval)
	assert.Equal(t, ledger.DefaultConfig(), cfg.Engine())
	assert.Equal(t, ledger.DefaultAutoLunchRule(), cfg.AutoLunchRule())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/other.db
default_position: R
min_work_duration: "7h 36m"
min_duration_lunch_break: 20
max_duration_lunch_break: 60
server:
  port: 9090
`)
	t.Setenv("WORKLOG_SERVER_PORT", "7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database)
	assert.Equal(t, 7070, cfg.Server.Port)

	engine := cfg.Engine()
	assert.Equal(t, ledger.PositionRemote, engine.DefaultPosition)
	assert.Equal(t, 7*60+36, engine.WorkDurationMinutes)
	assert.Equal(t, 20, engine.MinLunchMinutes)
	assert.Equal(t, 60, engine.MaxLunchMinutes)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"position":        "default_position: X\n",
		"lunch bounds":    "min_duration_lunch_break: 90\nmax_duration_lunch_break: 30\n",
		"work duration":   "min_work_duration: soon\n",
		"port":            "server:\n  port: 70000\n",
		"lunch window":    "auto_lunch:\n  window_start: \"15:00\"\n  window_end: \"12:00\"\n",
		"log format":      "log:\n  format: xml\n",
		"window not hhmm": "auto_lunch:\n  window_start: noon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseWorkDuration(t *testing.T) {
	valid := map[string]int{
		"8h":     480,
		"7h 36m": 456,
		"7h36m":  456,
		"07:36":  456,
		"8":      480,
		"45m":    45,
		" 8H ":   480,
	}
	for in, want := range valid {
		got, err := config.ParseWorkDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "h", "7 36", "7:3", "0", "0h", "7x", "7:75", "-1"} {
		_, err := config.ParseWorkDuration(in)
		assert.Error(t, err, in)
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "console", cfg.Log.Format)
}
