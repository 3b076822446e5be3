// Package eventcore contains the building blocks of event-sourced
// applications: partitioned Event Streams with a sortable ordering key,
// Aggregates rebuilt by deterministic Projectors, and a Command pipeline
// validating and persisting the Events produced by Command handlers.
//
// Start from the `aggregate` package to write Projectors for your Aggregates,
// and from `command` to write the Command handlers that update them.
//
// `event.InMemoryStore` is the in-process Event Store, while the `postgres`,
// `sqlite` and `firestore` packages provide durable ones.
package eventcore
