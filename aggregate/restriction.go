package aggregate

import (
	"fmt"

	"github.com/get-eventually/eventcore/message"
)

// Restriction constrains the payload type an Aggregate must have.
//
// The zero value allows every payload.
type Restriction struct {
	name    string
	matches func(Payload) bool
}

// Require returns a Restriction allowing only payloads of type T.
//
// The Restriction is named after the zero value of T, or after its Go type
// when Name cannot be called on the zero value.
func Require[T Payload]() Restriction {
	name, err := message.NameOf[T]()
	if err != nil {
		var zeroValue T
		name = fmt.Sprintf("%T", zeroValue)
	}

	return Restriction{
		name: name,
		matches: func(p Payload) bool {
			_, ok := p.(T)
			return ok
		},
	}
}

// IsZero reports whether the Restriction allows every payload.
func (r Restriction) IsZero() bool { return r.matches == nil }

// Name returns the name of the required payload type.
func (r Restriction) Name() string { return r.name }

// Allows reports whether the payload satisfies the Restriction.
func (r Restriction) Allows(payload Payload) bool {
	return r.matches == nil || r.matches(payload)
}
