// Package snapshot provides support for Aggregate snapshots, useful
// where the number of events in a partition is expected to considerably
// grow over time.
//
// Snapshots are used by an Event-sourced Aggregate Repository as an optimization
// technique to speed up the Aggregate reconstruction process, by saving
// the state of the Aggregate at a particular version in a store.
//
// Every Snapshot is tagged with the name and version of the Projector that
// produced it: a Snapshot taken with a different Projector revision is ignored.
package snapshot
