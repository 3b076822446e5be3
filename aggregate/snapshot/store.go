package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

// ErrNotFound is returned by a snapshot.Getter when no recent snapshot
// has been found in the store.
var ErrNotFound = errors.New("snapshot: entry not found")

// Snapshot represents the value of a snapshot found in the store.
type Snapshot[T any] struct {
	Projector        string          `json:"projector"`
	ProjectorVersion string          `json:"projectorVersion"`
	Version          version.Version `json:"version"`
	State            T               `json:"state"`
	RecordedAt       time.Time       `json:"recordedAt"`
}

// Matches reports whether the Snapshot has been produced by the specified
// Projector revision.
func (s Snapshot[T]) Matches(projector, projectorVersion string) bool {
	return s.Projector == projector && s.ProjectorVersion == projectorVersion
}

// Recorder is used to record Snapshots to a durable store.
type Recorder[T any] interface {
	Record(ctx context.Context, keys partition.Keys, snapshot Snapshot[T]) error
}

// Getter is used to retrieve the most-recent Snapshot from a durable store.
type Getter[T any] interface {
	Get(ctx context.Context, keys partition.Keys, projector string) (Snapshot[T], error)
}

// Store is a Snapshot store.
type Store[T any] interface {
	Recorder[T]
	Getter[T]
}
