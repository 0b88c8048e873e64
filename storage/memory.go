package storage

import (
	"context"
	"slices"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	brains      map[string]BrainRecord
	// order is the save order of ids, newest last.
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.brains = make(map[string]BrainRecord)
	s.order = nil
	return nil
}

func (s *MemoryStore) SaveBrain(_ context.Context, record BrainRecord) error {
	if err := validate(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.brains[record.ID]; !ok {
		s.order = append(s.order, record.ID)
	}
	record.Payload = slices.Clone(record.Payload)
	s.brains[record.ID] = record
	return nil
}

func (s *MemoryStore) GetBrain(_ context.Context, id string) (BrainRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return BrainRecord{}, false, ErrNotInitialized
	}
	record, ok := s.brains[id]
	return record, ok, nil
}

func (s *MemoryStore) LatestBrain(_ context.Context) (BrainRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return BrainRecord{}, false, ErrNotInitialized
	}
	var latest BrainRecord
	found := false
	for _, id := range s.order {
		record := s.brains[id]
		if !found || record.Generation >= latest.Generation {
			latest = record
			found = true
		}
	}
	return latest, found, nil
}
