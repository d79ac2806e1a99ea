package colony

import "gonum.org/v1/gonum/stat"

// History is a bounded FIFO of pheromone readings. When full, pushing a new
// reading evicts the oldest one.
type History struct {
	buf   []float64
	start int
	size  int
}

// NewHistory creates a History holding at most capacity readings.
// Panics if capacity < 1.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		panic("NewHistory: capacity must be >= 1")
	}
	return &History{buf: make([]float64, capacity)}
}

// Push appends a reading, evicting the oldest when at capacity.
func (h *History) Push(v float64) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = v
		h.size++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of readings held.
func (h *History) Len() int { return h.size }

// Cap returns the capacity.
func (h *History) Cap() int { return len(h.buf) }

// Values returns the readings oldest first, as a fresh slice.
func (h *History) Values() []float64 {
	out := make([]float64, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Mean returns the average reading and false when the history is empty.
func (h *History) Mean() (float64, bool) {
	if h.size == 0 {
		return 0, false
	}
	return stat.Mean(h.Values(), nil), true
}

// Reset drops every reading.
func (h *History) Reset() {
	h.start = 0
	h.size = 0
}
