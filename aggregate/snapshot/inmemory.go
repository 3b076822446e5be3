package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/get-eventually/eventcore/partition"
)

type storeKey struct {
	keys      partition.Keys
	projector string
}

// InMemoryStore is a map-based, thread-safe in-memory Snapshot store.
//
// Since there is no entry eviction, it is suggested to use this store
// only for test scenarios or short-lived processes.
type InMemoryStore[T any] struct {
	mx        sync.RWMutex
	snapshots map[storeKey]Snapshot[T]
}

// NewInMemoryStore returns a fresh new instance of an the InMemoryStore snapshot store.
func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		snapshots: make(map[storeKey]Snapshot[T]),
	}
}

// Record adds or overwrites the previous Snapshot for the same partition and Projector.
// Snapshots older than the one in the store are discarded.
func (s *InMemoryStore[T]) Record(_ context.Context, keys partition.Keys, snapshot Snapshot[T]) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	key := storeKey{keys: keys, projector: snapshot.Projector}

	if current, ok := s.snapshots[key]; ok &&
		current.ProjectorVersion == snapshot.ProjectorVersion &&
		current.Version > snapshot.Version {
		return nil
	}

	s.snapshots[key] = snapshot

	return nil
}

// Get returns the latest Snapshot recorded for the partition by the specified Projector.
// ErrNotFound is returned if no Snapshot has been recorded.
func (s *InMemoryStore[T]) Get(_ context.Context, keys partition.Keys, projector string) (Snapshot[T], error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if snap, ok := s.snapshots[storeKey{keys: keys, projector: projector}]; ok {
		return snap, nil
	}

	return Snapshot[T]{}, ErrNotFound
}

// Len returns the number of Snapshots in the store.
func (s *InMemoryStore[T]) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return len(s.snapshots)
}

// MarshalJSON serializes the internal state of the store for debugging purposes.
func (s *InMemoryStore[T]) MarshalJSON() ([]byte, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	byKeys := make(map[string]Snapshot[T], len(s.snapshots))
	for key, snap := range s.snapshots {
		byKeys[key.keys.String()+"#"+key.projector] = snap
	}

	byt, err := json.Marshal(byKeys)
	if err != nil {
		return nil, fmt.Errorf("snapshot.InMemoryStore: failed to marshal internal state to json: %w", err)
	}

	return byt, nil
}
