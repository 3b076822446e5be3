// Package partition contains the identity model scoping a single
// Aggregate's Event Stream.
//
// A partition is identified by the Aggregate id, the Aggregate group
// (by convention, the name of the Aggregate kind) and a root partition key,
// used as a tenant or namespace discriminator.
package partition

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// DefaultGroup is the group used when none has been specified.
	DefaultGroup = "default"
	// DefaultRootPartitionKey is the root partition key used when none has been specified.
	DefaultRootPartitionKey = "default"
)

// ErrInvalidKeys is returned by Keys.Validate when the partition keys
// cannot identify an Event Stream.
var ErrInvalidKeys = errors.New("partition: invalid keys")

// Keys identifies a single Aggregate's Event Stream.
//
// Keys is a comparable value type: two Keys are the same partition
// if and only if all their fields are equal.
type Keys struct {
	AggregateID      uuid.UUID
	Group            string
	RootPartitionKey string
}

// Option customizes the Keys produced by Generate and Existing.
type Option func(*Keys)

// WithRootPartitionKey sets the root partition key (tenant) of the Keys.
func WithRootPartitionKey(key string) Option {
	return func(k *Keys) { k.RootPartitionKey = key }
}

func build(id uuid.UUID, group string, opts ...Option) Keys {
	keys := Keys{
		AggregateID:      id,
		Group:            group,
		RootPartitionKey: DefaultRootPartitionKey,
	}

	for _, opt := range opts {
		opt(&keys)
	}

	return keys.WithDefaults(DefaultGroup)
}

// Generate returns the Keys for a brand new Aggregate in the specified group,
// using a fresh, time-ordered UUID as Aggregate id.
func Generate(group string, opts ...Option) Keys {
	return build(uuid.Must(uuid.NewV7()), group, opts...)
}

// Existing returns the Keys referencing an already-known Aggregate id
// in the specified group.
func Existing(id uuid.UUID, group string, opts ...Option) Keys {
	return build(id, group, opts...)
}

// WithDefaults returns a copy of the Keys where empty fields are replaced
// by their defaults: the provided group, and DefaultRootPartitionKey.
func (k Keys) WithDefaults(group string) Keys {
	if k.Group == "" {
		k.Group = group
	}

	if k.RootPartitionKey == "" {
		k.RootPartitionKey = DefaultRootPartitionKey
	}

	return k
}

// Validate returns an error wrapping ErrInvalidKeys if the Keys
// cannot be used to identify an Event Stream.
func (k Keys) Validate() error {
	var errs []error

	if k.AggregateID == uuid.Nil {
		errs = append(errs, errors.New("aggregate id is nil"))
	}

	if k.Group == "" {
		errs = append(errs, errors.New("group is empty"))
	}

	if k.RootPartitionKey == "" {
		errs = append(errs, errors.New("root partition key is empty"))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w, %w", ErrInvalidKeys, errors.Join(errs...))
}

// String returns the "root/group/id" representation of the Keys,
// usable as a unique Event Stream name.
func (k Keys) String() string {
	return k.RootPartitionKey + "/" + k.Group + "/" + k.AggregateID.String()
}
