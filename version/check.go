package version

import (
	"fmt"
)

// Any avoids the caller-provided expectation when requiring a version.Check instance.
//
// Event Stores still refuse to append a batch whose first Event does not
// directly follow the current end of the Event Stream, so that versions
// stay contiguous.
var Any = CheckAny{}

// Check can be used to perform optimistic concurrency checks when writing to
// the Event Store using the event.Appender interface.
type Check interface {
	isVersionCheck()
}

// CheckAny is a Check variant that will avoid optimistic concurrency checks when used.
type CheckAny struct{}

func (CheckAny) isVersionCheck() {}

// CheckExact is a Check variant that will ensure the specified version is the current one
// (typically used when needing to check the version of an Event Stream).
type CheckExact Version

func (CheckExact) isVersionCheck() {}

// Verify compares the Check against the current version of an Event Stream,
// and the version carried by the first Event of the batch about to be appended.
//
// A ConflictError is returned when the Event Stream has moved since the
// caller observed it.
func Verify(expected Check, current, first Version) error {
	if v, ok := expected.(CheckExact); ok && Version(v) != current {
		return ConflictError{Expected: Version(v), Actual: current}
	}

	if first != current.Next() {
		return ConflictError{Expected: first - 1, Actual: current}
	}

	return nil
}

// ConflictError is an error returned by an Event Store when appending
// some events using an expected Event Stream version that does not match
// the current state of the Event Stream.
//
// Callers can recover by reloading the Aggregate and retrying the Command.
type ConflictError struct {
	Expected Version
	Actual   Version
}

func (err ConflictError) Error() string {
	return fmt.Sprintf(
		"version.Check: conflict detected; expected stream version: %d, actual: %d",
		err.Expected,
		err.Actual,
	)
}
