package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ECODMS_EXPORT_FILE", "/exports/export.xml")
	t.Setenv("PAPERLESS_API_URL", "http://paperless.local:8000/api")
	t.Setenv("PAPERLESS_API_TOKEN", "secret")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/exports/export.xml", cfg.ExportFile)
	require.Equal(t, "http://paperless.local:8000/api", cfg.Paperless.URL)
	require.Equal(t, "secret", cfg.Paperless.Token)
	require.Equal(t, "migrated.json", cfg.Ledger.Path)
	require.Equal(t, 10*time.Second, cfg.Poll.Interval)
	require.Equal(t, 60, cfg.Poll.MaxAttempts)
	require.Equal(t, "EcoDMS", cfg.Markers.SourceTag)
	require.Equal(t, "Steuerrelevant", cfg.Markers.TaxTag)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)
}

func TestLoadTrimsTrailingSlashFromURL(t *testing.T) {
	setRequired(t)
	t.Setenv("PAPERLESS_API_URL", "http://paperless.local:8000/api/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://paperless.local:8000/api", cfg.Paperless.URL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("POLL_MAX_ATTEMPTS", "5")
	t.Setenv("LEDGER_FILE", "/var/lib/migrator/ledger.json")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, cfg.Poll.Interval)
	require.Equal(t, 5, cfg.Poll.MaxAttempts)
	require.Equal(t, "/var/lib/migrator/ledger.json", cfg.Ledger.Path)
}

func TestLoadFailsFastOnMissingRequired(t *testing.T) {
	t.Setenv("ECODMS_EXPORT_FILE", "/exports/export.xml")
	t.Setenv("PAPERLESS_API_URL", "http://paperless.local:8000/api")
	t.Setenv("PAPERLESS_API_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PAPERLESS_API_TOKEN is required")
}

func TestLoadRejectsInvalidURL(t *testing.T) {
	setRequired(t)
	t.Setenv("PAPERLESS_API_URL", "not a url")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PAPERLESS_API_URL")
}
