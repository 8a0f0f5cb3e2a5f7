//go:build !sqlite

package storage

import (
	"errors"
	"testing"
)

func TestNewStoreSQLiteCompiledOut(t *testing.T) {
	_, err := NewStore(BackendSQLite, "trials.db", nil)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected unavailable backend error, got %v", err)
	}
}
