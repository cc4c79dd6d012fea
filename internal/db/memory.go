package db

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

// MemoryStore keeps boards in process memory. It is used when no
// database is configured, and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	boards    map[string]time.Time
	snapshots map[string][]*Snapshot // boardID -> oldest first
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boards:    make(map[string]time.Time),
		snapshots: make(map[string][]*Snapshot),
	}
}

func (s *MemoryStore) CreateBoard(_ context.Context, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[boardID]; ok {
		return fmt.Errorf("board %s: %w", boardID, ErrExists)
	}
	s.boards[boardID] = time.Now()
	return nil
}

func (s *MemoryStore) BoardExists(_ context.Context, boardID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.boards[boardID]
	return ok, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, boardID string, doc []byte) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[boardID]; !ok {
		return nil, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
	}

	history := s.snapshots[boardID]
	version := int32(1)
	if n := len(history); n > 0 {
		version = history[n-1].Version + 1
	}

	snap := &Snapshot{
		ID:        typeid.NewSnapshotID(),
		BoardID:   boardID,
		Version:   version,
		Document:  slices.Clone(doc),
		CreatedAt: time.Now(),
	}
	history = append(history, snap)
	if len(history) > SnapshotsKept {
		history = slices.Clone(history[len(history)-SnapshotsKept:])
	}
	s.snapshots[boardID] = history
	return snap, nil
}

func (s *MemoryStore) LatestSnapshot(_ context.Context, boardID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[boardID]
	if len(history) == 0 {
		return nil, fmt.Errorf("snapshot for %s: %w", boardID, ErrNotFound)
	}
	latest := *history[len(history)-1]
	latest.Document = slices.Clone(latest.Document)
	return &latest, nil
}

// Versions returns the stored version numbers for a board, oldest first.
func (s *MemoryStore) Versions(boardID string) []int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []int32
	for _, snap := range s.snapshots[boardID] {
		out = append(out, snap.Version)
	}
	return out
}
