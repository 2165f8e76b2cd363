package core

import (
	"context"
	"sync"
)

type MemoryCredentialStore struct {
	mu     sync.RWMutex
	pair   CredentialPair
	exists bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Put(_ context.Context, pair CredentialPair) error {
	if s == nil {
		return BadInputError("core: credential store is nil")
	}
	if err := pair.Validate(); err != nil {
		return BadInputError(err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.exists = true
	return nil
}

func (s *MemoryCredentialStore) Get(context.Context) (CredentialPair, bool, error) {
	if s == nil {
		return CredentialPair{}, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return CredentialPair{}, false, nil
	}
	return s.pair, true, nil
}

func (s *MemoryCredentialStore) Clear(context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = CredentialPair{}
	s.exists = false
	return nil
}

type MemorySnapshotStore struct {
	mu       sync.RWMutex
	snapshot Snapshot
	exists   bool
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Save(_ context.Context, snapshot Snapshot) error {
	if s == nil {
		return BadInputError("core: snapshot store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = cloneSnapshot(snapshot)
	s.exists = true
	return nil
}

func (s *MemorySnapshotStore) Load(context.Context) (Snapshot, bool, error) {
	if s == nil {
		return Snapshot{}, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return Snapshot{}, false, nil
	}
	return cloneSnapshot(s.snapshot), true, nil
}

func (s *MemorySnapshotStore) Clear(context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
	s.exists = false
	return nil
}
