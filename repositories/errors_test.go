package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassifyNoRows(t *testing.T) {
	err := classify(pgx.ErrNoRows)
	require.Equal(t, ErrKindNotFound, KindOf(err))
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestClassifyPgErrorCodes(t *testing.T) {
	cases := []struct {
		code string
		want ErrKind
	}{
		{"42P01", ErrKindTableMissing},
		{"23505", ErrKindConflict},
		{"08006", ErrKindUnavailable},
		{"57P01", ErrKindUnavailable},
		{"22P02", ErrKindUnknown},
	}

	for _, tc := range cases {
		err := classify(&pgconn.PgError{Code: tc.code})
		require.Equal(t, tc.want, KindOf(err), "code %s", tc.code)
	}
}

func TestClassifyConnectionFailure(t *testing.T) {
	err := classify(errors.New("dial tcp: connection refused"))
	require.Equal(t, ErrKindUnavailable, KindOf(err))
}

func TestClassifyNil(t *testing.T) {
	require.NoError(t, classify(nil))
}

func TestKindOfForeignError(t *testing.T) {
	require.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
}

func TestStorageErrorWrapping(t *testing.T) {
	inner := errors.New("boom")
	err := fmt.Errorf("loading cart: %w", &StorageError{Kind: ErrKindUnavailable, Err: inner})

	require.Equal(t, ErrKindUnavailable, KindOf(err))
	require.ErrorIs(t, err, inner)
}
