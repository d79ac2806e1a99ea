package fleet

import "container/heap"

// agenda holds the simulator's pending events up to the horizon.
//
// Events run in time order. At one instant a server that finished booting is
// promoted first so an arriving session can land on it, arrivals come next so
// the refresh samples them, and the horizon closes the instant. Events of the
// same kind keep the order they were scheduled in.
type agenda struct {
	pending eventQueue
	horizon float64
	seq     uint64
}

func newAgenda(horizon float64) *agenda {
	return &agenda{horizon: horizon}
}

// schedule queues e unless it falls after the horizon, and reports whether
// it was queued.
func (a *agenda) schedule(e Event) bool {
	if e.Timestamp() > a.horizon {
		return false
	}
	a.seq++
	e.setEventID(a.seq)
	heap.Push(&a.pending, e)
	return true
}

// next removes and returns the earliest event, or nil when none is left.
func (a *agenda) next() Event {
	if len(a.pending) == 0 {
		return nil
	}
	return heap.Pop(&a.pending).(Event)
}

func (a *agenda) len() int { return len(a.pending) }

// rank orders simultaneous events; lower runs first.
func (t EventType) rank() int {
	switch t {
	case EventTypeServerReady:
		return 0
	case EventTypeSessionArrival:
		return 1
	case EventTypeRefresh:
		return 2
	default:
		return 3
	}
}

func runsBefore(x, y Event) bool {
	if x.Timestamp() != y.Timestamp() {
		return x.Timestamp() < y.Timestamp()
	}
	if rx, ry := x.Type().rank(), y.Type().rank(); rx != ry {
		return rx < ry
	}
	return x.EventID() < y.EventID()
}

// eventQueue implements heap.Interface over runsBefore.
type eventQueue []Event

func (q eventQueue) Len() int           { return len(q) }
func (q eventQueue) Less(i, j int) bool { return runsBefore(q[i], q[j]) }
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(Event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
