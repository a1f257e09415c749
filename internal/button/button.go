// Package button turns GPIO edge events on the setup switch into a single
// "update requested" flag. The edge handler runs outside the control
// loop's flow, so everything it touches is a single atomic word; the loop
// polls and consumes the flag once per tick.
package button

import (
	"sync/atomic"
	"time"
)

// DefaultHold is how long the switch must be held to request an update.
const DefaultHold = 5 * time.Second

// Edge identifies a switch transition.
type Edge int

const (
	// Press is the falling edge (the switch is wired active-low).
	Press Edge = iota
	// Release is the rising edge.
	Release
)

// Monitor accumulates edge events into the update-requested flag.
// HandleEdge may be called from any goroutine; TakeRequest belongs to the
// control loop.
type Monitor struct {
	hold time.Duration

	// pressedAt holds the press timestamp in nanoseconds since an
	// arbitrary monotonic origin; zero means not pressed. Edge timestamps
	// from the kernel are monotonic, so subtraction is safe.
	pressedAt atomic.Int64
	requested atomic.Bool
}

// NewMonitor creates a Monitor with the given hold threshold (DefaultHold
// when zero).
func NewMonitor(hold time.Duration) *Monitor {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Monitor{hold: hold}
}

// HandleEdge records a press timestamp or, on release, computes the held
// duration and latches the request flag when it meets the threshold. The
// timestamp is a monotonic offset (kernel event timestamp); only
// differences are meaningful.
func (m *Monitor) HandleEdge(e Edge, ts time.Duration) {
	switch e {
	case Press:
		// Offset by one so a genuine zero timestamp is distinguishable
		// from "not pressed".
		m.pressedAt.Store(int64(ts) + 1)
	case Release:
		p := m.pressedAt.Swap(0)
		if p == 0 {
			return // release without a recorded press
		}
		if held := ts - time.Duration(p-1); held >= m.hold {
			m.requested.Store(true)
		}
	}
}

// TakeRequest consumes the update-requested flag. It returns true at most
// once per qualifying hold.
func (m *Monitor) TakeRequest() bool {
	return m.requested.CompareAndSwap(true, false)
}
