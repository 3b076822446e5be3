package sortable

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default is the Generator used by the package-level functions.
var Default = &Generator{}

// Generator produces sortable IDs using a configurable clock and identifier source.
//
// IDs returned by Current from the same Generator have strictly increasing ticks,
// even when the clock stalls or goes backwards, so that events produced in a single
// batch keep their order once sorted by key.
//
// The zero value is ready to use, and is safe for concurrent use.
type Generator struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// NewID returns a fresh identifier. Defaults to uuid.New.
	NewID func() uuid.UUID

	mx       sync.Mutex
	lastTick int64
}

func (g *Generator) now() time.Time {
	if g.Clock != nil {
		return g.Clock().UTC()
	}

	return time.Now().UTC()
}

func (g *Generator) newID() uuid.UUID {
	if g.NewID != nil {
		return g.NewID()
	}

	return uuid.New()
}

// Current returns a sortable ID for the current time and a fresh identifier.
func (g *Generator) Current() ID {
	return g.next(0)
}

// CurrentAfter is like Current, but the returned ID also sorts after last.
//
// Use it to extend an Event Stream whose last ordering key may come
// from a writer with a clock ahead of this Generator's one.
// An empty or malformed last is ignored.
func (g *Generator) CurrentAfter(last ID) ID {
	floor, _ := last.tickCount()
	return g.next(floor)
}

func (g *Generator) next(floor int64) ID {
	tick := ticksOf(g.now())

	g.mx.Lock()
	if tick <= g.lastTick {
		tick = g.lastTick + 1
	}

	if tick <= floor {
		tick = floor + 1
	}

	g.lastTick = tick
	g.mx.Unlock()

	return fromTicks(tick, g.newID())
}

// Safe returns the floor cursor for the current time minus the specified window.
// A non-positive window falls back to SafeWindow.
func (g *Generator) Safe(window time.Duration) ID {
	if window <= 0 {
		window = SafeWindow
	}

	return Generate(g.now().Add(-window), uuid.Nil)
}
