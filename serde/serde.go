// Package serde contains the serialization abstractions used to move
// payloads in and out of durable Event Stores.
package serde

// Serializer is used to serialize a Source type into another Destination type.
type Serializer[Src any, Dst any] interface {
	Serialize(src Src) (Dst, error)
}

// SerializerFunc is a functional implementation of the Serializer interface.
type SerializerFunc[Src any, Dst any] func(src Src) (Dst, error)

// Serialize implements the serde.Serializer interface.
func (fn SerializerFunc[Src, Dst]) Serialize(src Src) (Dst, error) { return fn(src) }

// Deserializer is used to deserialize a Source type from another Destination type.
type Deserializer[Src any, Dst any] interface {
	Deserialize(dst Dst) (Src, error)
}

// DeserializerFunc is a functional implementation of the Deserializer interface.
type DeserializerFunc[Src any, Dst any] func(dst Dst) (Src, error)

// Deserialize implements the serde.Deserializer interface.
func (fn DeserializerFunc[Src, Dst]) Deserialize(dst Dst) (Src, error) { return fn(dst) }

// Upcast widens a Deserializer producing a concrete type into one producing
// a more general type (typically an interface implemented by Src).
func Upcast[Wide any, Src any, Dst any](d Deserializer[Src, Dst], widen func(Src) Wide) DeserializerFunc[Wide, Dst] {
	return func(dst Dst) (Wide, error) {
		var zeroValue Wide

		src, err := d.Deserialize(dst)
		if err != nil {
			return zeroValue, err
		}

		return widen(src), nil
	}
}
