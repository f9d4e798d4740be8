package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"string truncation", &pgconn.PgError{Code: "22001"}, KindDataViolation},
		{"invalid datetime", &pgconn.PgError{Code: "22007"}, KindDataViolation},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindDataViolation},
		{"not null violation", &pgconn.PgError{Code: "23502"}, KindDataViolation},
		{"connection failure", &pgconn.PgError{Code: "08006"}, KindTransient},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, KindTransient},
		{"plain error", errors.New("dial tcp: timeout"), KindTransient},
		{"gorm invalid data", gorm.ErrInvalidData, KindDataViolation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, classifyKind(tc.err))
		})
	}
}

func TestClassifyKindWrappedError(t *testing.T) {
	inner := &pgconn.PgError{Code: "22001"}
	wrapped := fmt.Errorf("create failed: %w", inner)
	require.Equal(t, KindDataViolation, classifyKind(wrapped))
}

func TestWrapStoreError(t *testing.T) {
	require.NoError(t, wrapStoreError("save scan", nil))

	err := wrapStoreError("save scan", &pgconn.PgError{Code: "23505"})
	require.Error(t, err)
	require.True(t, IsDataViolation(err))
	require.Contains(t, err.Error(), "save scan")

	err = wrapStoreError("save scan", errors.New("broken pipe"))
	require.False(t, IsDataViolation(err))
}

func TestIsDataViolationThroughChain(t *testing.T) {
	base := wrapStoreError("merge reweigh", &pgconn.PgError{Code: "22003"})
	outer := fmt.Errorf("entry failed: %w", base)
	require.True(t, IsDataViolation(outer))
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(gorm.ErrRecordNotFound))
	require.True(t, IsNotFound(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound)))
	require.False(t, IsNotFound(errors.New("other")))
}
