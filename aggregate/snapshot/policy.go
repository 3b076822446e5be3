package snapshot

import (
	"github.com/get-eventually/eventcore/version"
)

// Policy represents the behavior of the Snapshot functionality,
// advising on the frequency of the snapshots to take.
//
// Choose the best Policy among the ones provided in this package, considering
// your needs and the rate of updates of the Aggregate you're trying to optimize.
type Policy interface {
	// ShouldRecord is called with the version of the last known Snapshot
	// (zero if none) and the current version of the Aggregate.
	ShouldRecord(last, current version.Version) bool
}

// PolicyFunc is a functional implementation of the Policy interface.
type PolicyFunc func(last, current version.Version) bool

// ShouldRecord implements the snapshot.Policy interface.
func (fn PolicyFunc) ShouldRecord(last, current version.Version) bool { return fn(last, current) }

// NeverPolicy is a Snapshot Policy that never signals to take snapshots
// when queried.
type NeverPolicy struct{}

// ShouldRecord always returns false.
func (NeverPolicy) ShouldRecord(_, _ version.Version) bool { return false }

// AlwaysPolicy is a Snapshot Policy that signals to take snapshots
// every time the Aggregate has moved past the last Snapshot.
type AlwaysPolicy struct{}

// ShouldRecord returns true when current is ahead of last.
func (AlwaysPolicy) ShouldRecord(last, current version.Version) bool { return current > last }

// EveryNVersionsPolicy is a Snapshot Policy that signals to take
// snapshots once the Aggregate is at least N versions ahead of the last Snapshot.
type EveryNVersionsPolicy version.Version

// ShouldRecord returns true when current is at least N versions ahead of last.
func (n EveryNVersionsPolicy) ShouldRecord(last, current version.Version) bool {
	return current > last && current-last >= version.Version(n)
}
