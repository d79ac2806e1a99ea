package colony

import "sort"

// PheromoneTable maps each server to its attractiveness level.
// Levels are never negative. Owned by a single Controller.
type PheromoneTable struct {
	levels map[ServerID]float64
}

// NewPheromoneTable creates an empty table.
func NewPheromoneTable() *PheromoneTable {
	return &PheromoneTable{levels: make(map[ServerID]float64)}
}

// Seed sets every listed server to level, overwriting existing entries.
func (t *PheromoneTable) Seed(servers []ServerID, level float64) {
	for _, s := range servers {
		t.Set(s, level)
	}
}

// Set stores a level for a server, flooring at zero.
func (t *PheromoneTable) Set(s ServerID, level float64) {
	if level < 0 {
		level = 0
	}
	t.levels[s] = level
}

// Level returns the level at a server and whether it is tracked.
func (t *PheromoneTable) Level(s ServerID) (float64, bool) {
	l, ok := t.levels[s]
	return l, ok
}

// Has reports whether the server is tracked.
func (t *PheromoneTable) Has(s ServerID) bool {
	_, ok := t.levels[s]
	return ok
}

// Decay subtracts amount from every entry, flooring at zero.
func (t *PheromoneTable) Decay(amount float64) {
	for s, l := range t.levels {
		l -= amount
		if l < 0 {
			l = 0
		}
		t.levels[s] = l
	}
}

// Remove stops tracking a server.
func (t *PheromoneTable) Remove(s ServerID) {
	delete(t.levels, s)
}

// Clear drops every entry.
func (t *PheromoneTable) Clear() {
	clear(t.levels)
}

// Len returns the number of tracked servers.
func (t *PheromoneTable) Len() int { return len(t.levels) }

// Snapshot returns a copy of the table.
func (t *PheromoneTable) Snapshot() map[ServerID]float64 {
	out := make(map[ServerID]float64, len(t.levels))
	for s, l := range t.levels {
		out[s] = l
	}
	return out
}

// Servers returns the tracked servers in ascending id order.
func (t *PheromoneTable) Servers() []ServerID {
	out := make([]ServerID, 0, len(t.levels))
	for s := range t.levels {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
