// Package trace provides decision-trace recording for colony controllers.
// This package has no dependencies on colony/; it stores pure data types.
package trace

// TickRecord captures a single controller tick.
type TickRecord struct {
	Clock       float64
	Initialized bool
	ScaleUp     int
	ScaleDown   int
	Stable      int
	Decision    string          // majority vote: "scale-up", "scale-down" or "stable"
	Action      string          // "none", "add" or "remove"
	Magnitude   int             // servers requested; 0 when Action is "none"
	Levels      map[int]float64 // server id → pheromone level after decay
}
