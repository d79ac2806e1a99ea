package colony

import "fmt"

// ServerID identifies a server in the pool. Owned by the fleet; the colony
// never allocates ids.
type ServerID int

// ServerStatus is the lifecycle state reported by the fleet.
type ServerStatus string

const (
	StatusInitialising ServerStatus = "INITIALISING"
	StatusRunning      ServerStatus = "RUNNING"
	StatusTerminated   ServerStatus = "TERMINATED"
)

// ServerSample is one server's metrics for one tick.
type ServerSample struct {
	ID          ServerID
	Utilization float64 // in [0,1]
	Status      ServerStatus
}

// FleetManager executes scaling requests. Requests are fire-and-forget: the
// next tick's samples are expected to reflect the new topology.
type FleetManager interface {
	RequestAddServers(count int) error
	RequestRemoveServers(count int) error
}

// Morph is an ant's vote on the direction the pool should move.
type Morph int

const (
	// Stable means the sensed average level is inside [minMorphLevel, maxMorphLevel].
	Stable Morph = iota
	// ScaleUp means attractive capacity is scarce.
	ScaleUp
	// ScaleDown means attractive capacity is abundant.
	ScaleDown
)

func (m Morph) String() string {
	switch m {
	case Stable:
		return "stable"
	case ScaleUp:
		return "scale-up"
	case ScaleDown:
		return "scale-down"
	default:
		return fmt.Sprintf("morph(%d)", int(m))
	}
}

// VoteTally counts morph votes cast during one tick.
type VoteTally struct {
	ScaleUp   int
	ScaleDown int
	Stable    int
}

// Add records one vote.
func (v *VoteTally) Add(m Morph) {
	switch m {
	case ScaleUp:
		v.ScaleUp++
	case ScaleDown:
		v.ScaleDown++
	default:
		v.Stable++
	}
}

// Total returns the number of votes cast.
func (v VoteTally) Total() int {
	return v.ScaleUp + v.ScaleDown + v.Stable
}

// Majority returns ScaleUp or ScaleDown when that vote outnumbers the other
// two combined, Stable otherwise.
func (v VoteTally) Majority() Morph {
	switch {
	case v.ScaleUp > v.ScaleDown+v.Stable:
		return ScaleUp
	case v.ScaleDown > v.ScaleUp+v.Stable:
		return ScaleDown
	default:
		return Stable
	}
}
