package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type trialKey struct {
	layout  string
	trialID int
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	trials      map[trialKey]Trajectory
	combined    map[string]Trajectory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.trials = make(map[trialKey]Trajectory)
	s.combined = make(map[string]Trajectory)
	return nil
}

func (s *MemoryStore) SaveTrial(_ context.Context, layout string, trialID int, records Trajectory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.trials[trialKey{layout, trialID}] = records.Clone()
	return nil
}

func (s *MemoryStore) LoadTrial(_ context.Context, layout string, trialID int) (Trajectory, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.trials[trialKey{layout, trialID}]
	return records.Clone(), ok, nil
}

func (s *MemoryStore) TrialIDs(_ context.Context, layout string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0)
	for key := range s.trials {
		if key.layout == layout {
			ids = append(ids, key.trialID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *MemoryStore) SaveCombined(_ context.Context, layout string, records Trajectory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.combined[layout] = records.Clone()
	return nil
}

func (s *MemoryStore) LoadCombined(_ context.Context, layout string) (Trajectory, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.combined[layout]
	return records.Clone(), ok, nil
}
