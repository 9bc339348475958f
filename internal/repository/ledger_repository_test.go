package repository

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/pweiler/ecodms2paperless/pkg/errors"
)

func TestLedgerAbsentFileIsEmpty(t *testing.T) {
	ledger := NewLedger(filepath.Join(t.TempDir(), "migrated.json"))

	isNew, err := ledger.IsNew("/export/100/scan.pdf")
	require.NoError(t, err)
	require.True(t, isNew)
}

func TestLedgerRecordSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrated.json")
	completedAt := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	ledger := NewLedger(path)
	require.NoError(t, ledger.RecordCompleted("/export/100/scan.pdf", completedAt))

	isNew, err := ledger.IsNew("/export/100/scan.pdf")
	require.NoError(t, err)
	require.False(t, isNew)

	// A fresh instance reading the same file sees the entry too.
	reloaded := NewLedger(path)
	isNew, err = reloaded.IsNew("/export/100/scan.pdf")
	require.NoError(t, err)
	require.False(t, isNew)

	isNew, err = reloaded.IsNew("/export/101/other.pdf")
	require.NoError(t, err)
	require.True(t, isNew)
}

func TestLedgerStoresRFC3339Timestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrated.json")
	completedAt := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	require.NoError(t, NewLedger(path).RecordCompleted("/export/a.pdf", completedAt))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries := map[string]string{}
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Equal(t, "2024-03-01T11:30:00Z", entries["/export/a.pdf"])
}

func TestLedgerKeepsExistingEntriesOnUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrated.json")
	ledger := NewLedger(path)

	require.NoError(t, ledger.RecordCompleted("/export/a.pdf", time.Now()))
	require.NoError(t, ledger.RecordCompleted("/export/b.pdf", time.Now()))

	for _, p := range []string{"/export/a.pdf", "/export/b.pdf"} {
		isNew, err := ledger.IsNew(p)
		require.NoError(t, err)
		require.False(t, isNew)
	}
}

func TestLedgerCorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrated.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewLedger(path).IsNew("/export/a.pdf")
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrLedgerIO))
	require.True(t, apperrors.IsFatal(err))
}
