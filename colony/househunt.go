package colony

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Nest is a candidate pool size together with the fitness each member
// agent assigns to it.
type Nest struct {
	Size    int
	fitness map[int]float64 // agent index -> fitness
}

func newNest(size int) *Nest {
	return &Nest{Size: size, fitness: make(map[int]float64)}
}

// Members returns the number of agents currently in the nest.
func (n *Nest) Members() int { return len(n.fitness) }

// Aggregate returns the summed fitness of the nest's members.
func (n *Nest) Aggregate() float64 {
	sum := 0.0
	for _, f := range n.fitness {
		sum += f
	}
	return sum
}

// agent is a participant in one house-hunting run. Phantom agents copy an
// existing ant's readings so an odd population can be fully paired; they
// carry no identity and never outlive the run.
type agent struct {
	uid      int
	phantom  bool
	readings []float64
	nest     *Nest
}

// HouseHuntOptimizer converges the population's individual proposals for a
// new pool size to a single consensus size through randomized recruitment.
type HouseHuntOptimizer struct {
	rng        *rand.Rand
	ants       []*Ant
	maxPher    float64
	optPher    float64
	lastRounds int
}

// NewHouseHuntOptimizer creates the optimizer. Panics on nil rng.
func NewHouseHuntOptimizer(rng *rand.Rand) *HouseHuntOptimizer {
	if rng == nil {
		panic("NewHouseHuntOptimizer: rng must not be nil")
	}
	return &HouseHuntOptimizer{rng: rng}
}

// LoadPopulation implements Optimizer. The optimal level is the midpoint of
// the bounds.
func (h *HouseHuntOptimizer) LoadPopulation(ants []*Ant, minPher, maxPher float64) {
	h.ants = append(h.ants[:0], ants...)
	sort.Slice(h.ants, func(i, j int) bool { return h.ants[i].UID() < h.ants[j].UID() })
	h.maxPher = maxPher
	h.optPher = (maxPher + minPher) / 2
}

// ProposeAddCount implements Optimizer.
func (h *HouseHuntOptimizer) ProposeAddCount() int { return h.houseHunt(+1) }

// ProposeRemoveCount implements Optimizer.
func (h *HouseHuntOptimizer) ProposeRemoveCount() int { return h.houseHunt(-1) }

// LastRounds returns the recruitment rounds used by the last proposal.
func (h *HouseHuntOptimizer) LastRounds() int { return h.lastRounds }

// houseHunt runs one consensus and returns |consensus size - population size|.
func (h *HouseHuntOptimizer) houseHunt(sign int) int {
	original := len(h.ants)
	h.lastRounds = 0
	if original == 0 {
		return 0
	}

	agents := make([]*agent, 0, original+1)
	for _, ant := range h.ants {
		agents = append(agents, &agent{uid: ant.UID(), readings: ant.History()})
	}
	if original%2 == 1 {
		src := agents[h.rng.Intn(original)]
		agents = append(agents, &agent{
			uid:      -1,
			phantom:  true,
			readings: append([]float64(nil), src.readings...),
		})
	}

	fitness := func(ag *agent, size int) float64 {
		return fitnessOf(ag.readings, size, original, h.maxPher, h.optPher)
	}

	nests := make(map[int]*Nest)
	for i, ag := range agents {
		size := h.propose(original, ag.readings, sign)
		n, ok := nests[size]
		if !ok {
			n = newNest(size)
			nests[size] = n
		}
		ag.nest = n
		n.fitness[i] = fitness(ag, size)
	}

	final, rounds := h.converge(agents, fitness)
	h.lastRounds = rounds
	magnitude := final - original
	if magnitude < 0 {
		magnitude = -magnitude
	}
	logrus.Debugf("house-hunt: population=%d consensus=%d rounds=%d magnitude=%d",
		original, final, rounds, magnitude)
	return magnitude
}

// propose draws one agent's candidate size:
// pool ± round(pool/2·U + pool/2·|avg−maxPher|/maxPher), floored at 1.
func (h *HouseHuntOptimizer) propose(pool int, readings []float64, sign int) int {
	avg := 0.0
	if len(readings) > 0 {
		avg = stat.Mean(readings, nil)
	}
	half := float64(pool) / 2
	deviation := 0.0
	if h.maxPher > 0 {
		deviation = math.Abs(avg-h.maxPher) / h.maxPher
	}
	step := int(math.Round(half*h.rng.Float64() + half*deviation))
	size := pool + sign*step
	if size < 1 {
		size = 1
	}
	return size
}

// converge runs recruitment rounds until a single nest remains and returns
// its size with the number of rounds used. Every round removes at least one
// nest, so at most len(agents)-1 rounds run.
func (h *HouseHuntOptimizer) converge(agents []*agent, fitness func(*agent, int) float64) (int, int) {
	rounds := 0
	for {
		nests := liveNests(agents)
		if len(nests) <= 1 {
			if len(nests) == 0 {
				return 0, rounds
			}
			return nests[0].Size, rounds
		}
		h.recruitmentRound(agents, fitness)
		rounds++
		if after := liveNests(agents); len(after) == len(nests) {
			absorbWeakest(agents, after, fitness)
		}
	}
}

// recruitmentRound pairs every agent once. Agents are ranked by their
// nest's aggregate fitness, strongest first. Recruiters are drawn with a
// square-root skew toward the top of the ranking, recruits with a square
// skew toward the bottom; the recruit moves into the recruiter's nest and
// both fitness values are recomputed against it.
func (h *HouseHuntOptimizer) recruitmentRound(agents []*agent, fitness func(*agent, int) float64) {
	pool := make([]int, len(agents))
	for i := range pool {
		pool[i] = i
	}
	sort.SliceStable(pool, func(i, j int) bool {
		ni, nj := agents[pool[i]].nest, agents[pool[j]].nest
		if ai, aj := ni.Aggregate(), nj.Aggregate(); ai != aj {
			return ai > aj
		}
		return ni.Size < nj.Size
	})

	for len(pool) >= 2 {
		last := len(pool) - 1
		rank := last - int(math.Sqrt(h.rng.Float64())*float64(last+1))
		recruiter := pool[rank]
		pool = append(pool[:rank], pool[rank+1:]...)

		last = len(pool) - 1
		u := h.rng.Float64()
		rank = last - int(u*u*float64(last+1))
		recruited := pool[rank]
		pool = append(pool[:rank], pool[rank+1:]...)

		moveAgent(agents, recruited, agents[recruiter].nest, fitness)
		target := agents[recruiter].nest
		target.fitness[recruiter] = fitness(agents[recruiter], target.Size)
	}
}

func moveAgent(agents []*agent, idx int, to *Nest, fitness func(*agent, int) float64) {
	ag := agents[idx]
	if ag.nest != to {
		delete(ag.nest.fitness, idx)
		ag.nest = to
	}
	to.fitness[idx] = fitness(ag, to.Size)
}

// absorbWeakest moves every member of the lowest-aggregate nest into the
// highest-aggregate nest.
func absorbWeakest(agents []*agent, nests []*Nest, fitness func(*agent, int) float64) {
	sort.SliceStable(nests, func(i, j int) bool {
		if ai, aj := nests[i].Aggregate(), nests[j].Aggregate(); ai != aj {
			return ai > aj
		}
		return nests[i].Size < nests[j].Size
	})
	strongest, weakest := nests[0], nests[len(nests)-1]
	for idx, ag := range agents {
		if ag.nest == weakest {
			moveAgent(agents, idx, strongest, fitness)
		}
	}
}

// liveNests returns the distinct nests that still have members, ordered by size.
func liveNests(agents []*agent) []*Nest {
	seen := make(map[*Nest]bool)
	out := make([]*Nest, 0)
	for _, ag := range agents {
		if !seen[ag.nest] {
			seen[ag.nest] = true
			out = append(out, ag.nest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out
}
