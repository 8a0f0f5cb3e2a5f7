package storage

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrBackendUnavailable reports a backend that was compiled out of the binary.
var ErrBackendUnavailable = errors.New("store backend unavailable")

// Backend names accepted by NewStore.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// NewStore builds a backend. path is the data directory for file stores, the
// database file for sqlite and the database directory for badger.
func NewStore(kind, path string, logger *slog.Logger) (Store, error) {
	switch kind {
	case "", BackendFile:
		return NewFileStore(path, logger), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return newSQLiteStore(path)
	case BackendBadger:
		return NewBadgerStore(BadgerConfig{Path: path, SyncWrites: true, Logger: logger}), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
