package colony

import "sort"

// HopCandidate is one server an ant may move to, with its selection weight.
type HopCandidate struct {
	Server ServerID
	Score  float64
}

// HopWeights returns the next-hop candidates in walk order, with weights
// summing to 1. Each weight averages the candidate's share of total time
// since visit and its share of total remembered pheromone; when no pheromone
// is remembered the time share alone is used. Returns nil when there are
// fewer than two known servers.
func (a *Ant) HopWeights(current ServerID, known []ServerID) []HopCandidate {
	if len(known) < 2 {
		return nil
	}

	sumOfWaits, sumOfPheromones := 0.0, 0.0
	eligible := make([]ServerID, 0, len(known))
	for _, s := range known {
		v, ok := a.visits[s]
		if !ok || s == current {
			continue
		}
		eligible = append(eligible, s)
		sumOfWaits += float64(v.secondsSinceVisit)
		sumOfPheromones += v.pheromone
	}
	if len(eligible) == 0 {
		return nil
	}

	out := make([]HopCandidate, 0, len(eligible))
	for _, s := range eligible {
		v := a.visits[s]
		waitShare := 1 / float64(len(eligible))
		if sumOfWaits > 0 {
			waitShare = float64(v.secondsSinceVisit) / sumOfWaits
		}
		score := waitShare
		if sumOfPheromones != 0 {
			score = (waitShare + v.pheromone/sumOfPheromones) / 2
		}
		out = append(out, HopCandidate{Server: s, Score: score})
	}

	// Ties are broken by server id so the walk never depends on map order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			if a.hopOrder == HopOrderDescending {
				return out[i].Score > out[j].Score
			}
			return out[i].Score < out[j].Score
		}
		return out[i].Server < out[j].Server
	})
	return out
}

// chooseNextHop walks the cumulative weights with one uniform draw. When
// rounding leaves the draw past the last interval, the last candidate wins.
func (a *Ant) chooseNextHop(current ServerID, known []ServerID) ServerID {
	candidates := a.HopWeights(current, known)
	if len(candidates) == 0 {
		return current
	}
	r := a.rng.Float64()
	return walkCumulative(candidates, r)
}

func walkCumulative(candidates []HopCandidate, r float64) ServerID {
	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.Score
		if r < cumulative {
			return c.Server
		}
	}
	return candidates[len(candidates)-1].Server
}
