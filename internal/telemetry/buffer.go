package telemetry

import "log"

// queuedMessage stores a serialized message for replay after reconnection.
type queuedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ring is a fixed-capacity FIFO holding messages while the broker is
// unreachable. Not safe for concurrent use; the caller must synchronize.
type ring struct {
	buf      []queuedMessage
	capacity int
	head     int // next write position
	count    int
	dropped  bool // true if any message was discarded since last drain
}

func newRing(capacity int) *ring {
	return &ring{
		buf:      make([]queuedMessage, capacity),
		capacity: capacity,
	}
}

// push appends a message, overwriting the oldest when full.
func (r *ring) push(msg queuedMessage) {
	if r.count == r.capacity {
		if !r.dropped {
			log.Printf("telemetry: offline buffer full (%d messages), dropping oldest", r.capacity)
			r.dropped = true
		}
		r.buf[r.head] = msg
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % r.capacity
	r.count++
}

// drain returns all buffered messages oldest-first and resets the ring.
func (r *ring) drain() []queuedMessage {
	if r.count == 0 {
		return nil
	}

	out := make([]queuedMessage, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	r.dropped = false
	return out
}
