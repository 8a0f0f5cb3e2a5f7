package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Keys are trial/<layout>/<trial id, zero padded> and combined/<layout>.
const (
	badgerTrialPrefix    = "trial/"
	badgerCombinedPrefix = "combined/"
)

type BadgerConfig struct {
	// Path is ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
}

type BadgerStore struct {
	cfg BadgerConfig

	mu sync.RWMutex
	db *badger.DB
}

func NewBadgerStore(cfg BadgerConfig) *BadgerStore {
	return &BadgerStore{cfg: cfg}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (s *BadgerStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	if !s.cfg.InMemory && s.cfg.Path == "" {
		return errors.New("badger path is required")
	}

	var opts badger.Options
	if s.cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.cfg.Path, 0o750); err != nil {
			return fmt.Errorf("create database directory %s: %w", s.cfg.Path, err)
		}
		opts = badger.DefaultOptions(s.cfg.Path)
	}
	opts = opts.WithSyncWrites(s.cfg.SyncWrites).WithNumVersionsToKeep(1)
	if s.cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: s.cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger database: %w", err)
	}
	s.db = db
	return nil
}

func trialKeyBytes(layout string, trialID int) []byte {
	return []byte(fmt.Sprintf("%s%s/%010d", badgerTrialPrefix, layout, trialID))
}

func (s *BadgerStore) SaveTrial(_ context.Context, layout string, trialID int, records Trajectory) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeTrial(layout, trialID, records)
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(trialKeyBytes(layout, trialID), payload)
	})
}

func (s *BadgerStore) LoadTrial(_ context.Context, layout string, trialID int) (Trajectory, bool, error) {
	return s.load(trialKeyBytes(layout, trialID))
}

func (s *BadgerStore) TrialIDs(_ context.Context, layout string) ([]int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	prefix := []byte(badgerTrialPrefix + layout + "/")
	ids := make([]int, 0)
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			suffix := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			id, err := strconv.Atoi(suffix)
			if err != nil {
				return fmt.Errorf("malformed trial key %q: %w", it.Item().Key(), err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *BadgerStore) SaveCombined(_ context.Context, layout string, records Trajectory) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeTrial(layout, 0, records)
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerCombinedPrefix+layout), payload)
	})
}

func (s *BadgerStore) LoadCombined(_ context.Context, layout string) (Trajectory, bool, error) {
	return s.load([]byte(badgerCombinedPrefix + layout))
}

func (s *BadgerStore) load(key []byte) (Trajectory, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	record, err := DecodeTrial(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return record.Transitions, true, nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *BadgerStore) getDB() (*badger.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}
