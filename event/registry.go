package event

import (
	"fmt"
	"sort"
	"sync"

	"github.com/get-eventually/eventcore/message"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/serde"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

// Codec converts Event payloads to and from their persisted representation.
type Codec interface {
	Encode(payload Payload) (name string, data []byte, err error)
	Decode(name string, data []byte) (Payload, error)
}

var (
	_ Catalog = new(Registry)
	_ Codec   = new(Registry)
)

type registration struct {
	matches func(Payload) bool
	decoder serde.Deserializer[Payload, []byte]
}

// Registry is a Catalog of the payload types known by the application,
// indexed by their name.
//
// Registry is also a Codec that encodes payloads to JSON, used by durable Event Stores.
// An empty Registry refuses every payload.
type Registry struct {
	mx            sync.RWMutex
	registrations map[string]registration
	serializer    serde.Serializer[Payload, []byte]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[string]registration),
		serializer:    serde.NewJSONSerializer[Payload](),
	}
}

// Register adds the payload type T to the Registry.
//
// The name of T is taken from its zero value, so pointer types must
// implement Name with a pointer receiver.
//
// Registering the same type twice is a no-op, while registering two different
// types under the same name returns an error.
func Register[T Payload](r *Registry) error {
	var zeroValue T

	name, err := message.NameOf[T]()
	if err != nil {
		return fmt.Errorf("event.Register: %w", err)
	}

	if name == "" {
		return fmt.Errorf("event.Register: payload type %T has an empty name", zeroValue)
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	if existing, ok := r.registrations[name]; ok {
		if existing.matches(zeroValue) {
			return nil
		}

		return fmt.Errorf("event.Register: name %q already registered by a different type than %T", name, zeroValue)
	}

	r.registrations[name] = registration{
		matches: func(p Payload) bool {
			_, ok := p.(T)
			return ok
		},
		decoder: serde.Upcast[Payload](
			serde.NewJSONDeserializer[T](),
			func(t T) Payload { return t },
		),
	}

	return nil
}

// MustRegister is like Register, but panics on error.
// Useful for package-level registration of a domain's payload types.
func MustRegister[T Payload](r *Registry) {
	if err := Register[T](r); err != nil {
		panic(err)
	}
}

// Names returns the sorted list of registered payload names.
func (r *Registry) Names() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	names := make([]string, 0, len(r.registrations))
	for name := range r.registrations {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) lookup(payload Payload) error {
	if payload == nil {
		return UnregisteredTypeError{Type: "<nil>"}
	}

	r.mx.RLock()
	defer r.mx.RUnlock()

	reg, ok := r.registrations[payload.Name()]
	if !ok || !reg.matches(payload) {
		return UnregisteredTypeError{
			Name: payload.Name(),
			Type: fmt.Sprintf("%T", payload),
		}
	}

	return nil
}

// GenerateTypedEvent implements the event.Catalog interface.
func (r *Registry) GenerateTypedEvent(
	payload Payload,
	keys partition.Keys,
	id sortable.ID,
	v version.Version,
) (Event, error) {
	if err := r.lookup(payload); err != nil {
		return Event{}, err
	}

	return Event{
		Payload:          payload,
		PartitionKeys:    keys,
		SortableUniqueID: id,
		Version:          v,
	}, nil
}

// Encode implements the event.Codec interface.
func (r *Registry) Encode(payload Payload) (string, []byte, error) {
	if err := r.lookup(payload); err != nil {
		return "", nil, fmt.Errorf("event.Registry: failed to encode payload, %w", err)
	}

	data, err := r.serializer.Serialize(payload)
	if err != nil {
		return "", nil, fmt.Errorf("event.Registry: failed to encode payload, %w", err)
	}

	return payload.Name(), data, nil
}

// Decode implements the event.Codec interface.
func (r *Registry) Decode(name string, data []byte) (Payload, error) {
	r.mx.RLock()
	reg, ok := r.registrations[name]
	r.mx.RUnlock()

	if !ok {
		return nil, fmt.Errorf("event.Registry: failed to decode payload, %w", UnregisteredTypeError{Name: name})
	}

	payload, err := reg.decoder.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("event.Registry: failed to decode %q payload, %w", name, err)
	}

	return payload, nil
}
