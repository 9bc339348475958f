package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindMatchingIgnoresMessage(t *testing.T) {
	err := Clonef(ErrUploadRejected, "upload rejected: status %d", 500)
	require.True(t, stderrors.Is(err, ErrUploadRejected))
	require.False(t, stderrors.Is(err, ErrTaskFailed))
}

func TestFatalClassification(t *testing.T) {
	require.True(t, IsFatal(ErrMalformedSource))
	require.True(t, IsFatal(ErrCatalogCreate))
	require.True(t, IsFatal(ErrLedgerIO))
	require.False(t, IsFatal(ErrIncompleteRecord))
	require.False(t, IsFatal(ErrUploadRejected))
	require.False(t, IsFatal(ErrTaskFailed))
	require.False(t, IsFatal(ErrTaskTimeout))
	require.False(t, IsFatal(nil))
}

func TestUnknownErrorsAreFatal(t *testing.T) {
	plain := fmt.Errorf("something unexpected")
	require.True(t, IsFatal(plain))
	require.Equal(t, ErrInternal.Code, FromError(plain).Code)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, ErrLedgerIO.Code, true, "write ledger")
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "write ledger")
	require.Contains(t, err.Error(), "disk full")
}

func TestWrappedKindSurvivesFurtherWrapping(t *testing.T) {
	inner := Clone(ErrTaskFailed, "task reported FAILURE")
	outer := fmt.Errorf("document 100: %w", inner)
	require.True(t, stderrors.Is(outer, ErrTaskFailed))
	require.False(t, IsFatal(outer))
}
