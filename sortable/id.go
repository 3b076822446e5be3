// Package sortable implements the Event ordering key: a 30-digit string
// which is unique in practice, comparable using plain string ordering,
// and chronologically meaningful.
//
// The key is made of a 19-digit tick count (100ns units since 0001-01-01 UTC)
// followed by an 11-digit number derived from a stable identifier.
// Comparing two keys as strings compares their timestamps, with the identifier
// suffix breaking ties between keys produced in the same tick.
package sortable

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const (
	// TickLength is the number of digits of the tick component.
	TickLength = 19
	// IDLength is the number of digits of the identifier component.
	IDLength = 11
	// Length is the total length of a sortable ID.
	Length = TickLength + IDLength

	// SafeWindow is the default visibility window used to compute safe cursors.
	SafeWindow = 5000 * time.Millisecond

	// ticksPerSecond is the number of 100ns ticks in one second.
	ticksPerSecond = 10_000_000
	// epochOffset is the number of ticks between 0001-01-01 and 1970-01-01.
	epochOffset = 621_355_968_000_000_000
	idModulo    = 100_000_000_000
)

// Timestamps outside [MinTime, MaxTime] are clamped by Generate,
// so that the tick component always has exactly TickLength digits.
var (
	MinTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999_999_900, time.UTC)
)

// ErrInvalidID is returned by Parse when the input is not a well-formed sortable ID.
var ErrInvalidID = errors.New("sortable: invalid id")

// ID is an Event ordering key.
//
// The zero value is the empty ID, which sorts before any generated ID.
type ID string

// Parse validates the specified string as a sortable ID.
func Parse(s string) (ID, error) {
	if len(s) != Length {
		return "", fmt.Errorf("%w, expected %d characters, got %d", ErrInvalidID, Length, len(s))
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("%w, unexpected character %q at position %d", ErrInvalidID, s[i], i)
		}
	}

	return ID(s), nil
}

// Generate builds the sortable ID for the specified timestamp and identifier.
//
// The timestamp is clamped to [MinTime, MaxTime].
func Generate(timestamp time.Time, id uuid.UUID) ID {
	return fromTicks(ticksOf(timestamp), id)
}

// CurrentFromUTC generates a sortable ID using the current UTC time
// and a fresh unique identifier.
func CurrentFromUTC() ID {
	return Default.Current()
}

// SafeFromUTC generates a sortable ID using the current UTC time minus the specified
// window, and the nil identifier.
//
// The resulting ID can be used as a conservative cursor: all writes from any writer
// that sort before it are expected to be already visible, even on stores with
// replication or visibility lag. A non-positive window falls back to SafeWindow.
func SafeFromUTC(window time.Duration) ID {
	return Default.Safe(window)
}

func ticksOf(t time.Time) int64 {
	t = t.UTC()

	switch {
	case t.Before(MinTime):
		t = MinTime
	case t.After(MaxTime):
		t = MaxTime
	}

	return t.Unix()*ticksPerSecond + int64(t.Nanosecond())/100 + epochOffset
}

func timeOf(ticks int64) time.Time {
	unixTicks := ticks - epochOffset
	sec, rem := unixTicks/ticksPerSecond, unixTicks%ticksPerSecond

	if rem < 0 {
		sec--
		rem += ticksPerSecond
	}

	return time.Unix(sec, rem*100).UTC()
}

// tickCount returns the tick component of the ID as a number.
func (id ID) tickCount() (int64, bool) {
	if len(id) < TickLength {
		return 0, false
	}

	ticks, err := strconv.ParseInt(string(id[:TickLength]), 10, 64)
	if err != nil || ticks < 0 {
		return 0, false
	}

	return ticks, true
}

func fromTicks(ticks int64, id uuid.UUID) ID {
	return ID(fmt.Sprintf("%019d%011d", ticks, suffixOf(id)))
}

// suffixOf reduces the identifier to its 11-digit tiebreaker.
// The nil UUID always maps to zero, so that floor cursors sort first.
func suffixOf(id uuid.UUID) uint64 {
	if id == uuid.Nil {
		return 0
	}

	return xxhash.Sum64(id[:]) % idModulo
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool { return id == "" }

// Ticks returns the timestamp component of the ID.
//
// The zero time is returned if the ID is malformed.
func (id ID) Ticks() time.Time {
	ticks, ok := id.tickCount()
	if !ok {
		return time.Time{}
	}

	return timeOf(ticks)
}

// SafeID returns the floor cursor sitting SafeWindow before this ID.
func (id ID) SafeID() ID {
	return Generate(id.Ticks().Add(-SafeWindow), uuid.Nil)
}

// EarlierThan reports whether id sorts strictly before other.
func (id ID) EarlierThan(other ID) bool { return id < other }

// EarlierThanOrEqual reports whether id sorts before or equal to other.
func (id ID) EarlierThanOrEqual(other ID) bool { return id <= other }

// LaterThan reports whether id sorts strictly after other.
func (id ID) LaterThan(other ID) bool { return id > other }

// LaterThanOrEqual reports whether id sorts after or equal to other.
func (id ID) LaterThanOrEqual(other ID) bool { return id >= other }
