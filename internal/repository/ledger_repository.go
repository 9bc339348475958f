package repository

import (
	"encoding/json"
	"os"
	"time"

	apperrors "github.com/pweiler/ecodms2paperless/pkg/errors"
)

// Ledger is the idempotency record of already-migrated source files: a JSON
// file mapping source file path to completion timestamp. The file is read in
// full on every check and rewritten in full on every update, which is fine at
// migration-run scale.
type Ledger struct {
	path string
}

// NewLedger points the ledger at its backing file. The file does not need to
// exist yet; an absent file is an empty ledger.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// IsNew reports whether path has no completion record yet.
func (l *Ledger) IsNew(path string) (bool, error) {
	entries, err := l.load()
	if err != nil {
		return false, err
	}
	_, done := entries[path]
	return !done, nil
}

// RecordCompleted stores the completion timestamp for path. Write failures
// are fatal: without a durable record, a re-run would upload the document
// again without anyone noticing.
func (l *Ledger) RecordCompleted(path string, completedAt time.Time) error {
	entries, err := l.load()
	if err != nil {
		return err
	}
	entries[path] = completedAt.UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrLedgerIO.Code, true, "encode ledger")
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrLedgerIO.Code, true, "write ledger "+l.path)
	}
	return nil
}

func (l *Ledger) load() (map[string]string, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrLedgerIO.Code, true, "read ledger "+l.path)
	}
	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrLedgerIO.Code, true, "decode ledger "+l.path)
	}
	return entries, nil
}
