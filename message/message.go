// Package message exposes the generic Message type, used to represent
// a named piece of information flowing through the system
// (e.g. Event payloads, Aggregate payloads, Commands).
package message

import "fmt"

// Message is a Message payload.
//
// Each payload should have a unique name identifier, that can be used
// to uniquely route a message to its type, or to (de)-serialize it.
type Message interface {
	Name() string
}

// NameOf returns the name of the Message type T, calling Name on its zero value.
//
// An error is returned when Name cannot be called on the zero value, such as
// a pointer type T whose Name method has a value receiver.
func NameOf[T Message]() (name string, err error) {
	var zeroValue T

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("message.NameOf: cannot call Name on zero value of %T: %v", zeroValue, r)
		}
	}()

	return zeroValue.Name(), nil
}
