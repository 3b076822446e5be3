// Package version contains the types used to track the length of
// a single partition's Event Stream, and to perform optimistic concurrency
// checks when appending to it.
package version

// Version is the type to specify Event Stream versions.
// Versions should be starting from 1, as they represent the length of a single Event Stream.
//
// A zero Version represents an Event Stream with no events in it.
type Version int64

// Next returns the version the next Event appended to the Event Stream will have.
func (v Version) Next() Version { return v + 1 }

// SelectFromBeginning is a Selector value that will return all Domain Events in an Event Stream.
var SelectFromBeginning = Selector{From: 0}

// Selector specifies which slice of the Event Stream to select when streaming Domain Events
// from the Event Store.
type Selector struct {
	From Version
}

// Includes reports whether the Event with the specified version is part of the selection.
func (s Selector) Includes(v Version) bool { return v >= s.From }
