package colony

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// maxWaitSeconds caps an ant's cooldown regardless of utilization.
const maxWaitSeconds = 60

// visit is what an ant remembers about one server.
type visit struct {
	secondsSinceVisit int
	pheromone         float64
}

// Ant is the agent bound to one server. It deposits pheromone on the server
// it sits on, remembers what it has seen of the rest of the pool, and votes
// on the pool's direction.
//
// State machine: Cooldown (waitCountdown > 0) consumes elapsed time;
// Acting (waitCountdown <= 0) deposits, updates tables, picks the next hop.
type Ant struct {
	uid           int
	cfg           Config
	hopOrder      HopOrder
	ceiling       float64
	rng           *rand.Rand
	waitCountdown float64
	history       *History
	visits        map[ServerID]visit
	nextHop       ServerID
	hasNextHop    bool
}

// NewAnt creates an ant. rng must be non-nil; callers usually pass
// PartitionedRNG.ForSubsystem(SubsystemAnt(uid)).
func NewAnt(uid int, cfg Config, opts Options, rng *rand.Rand) *Ant {
	if rng == nil {
		panic("NewAnt: rng must not be nil")
	}
	return &Ant{
		uid:      uid,
		cfg:      cfg,
		hopOrder: opts.hopOrder(),
		ceiling:  opts.levelCeiling(cfg),
		rng:      rng,
		history:  NewHistory(cfg.AntHistorySize),
		visits:   make(map[ServerID]visit),
	}
}

// UID returns the ant's stable identity.
func (a *Ant) UID() int { return a.uid }

// WaitCountdown returns the seconds left before the ant acts again.
func (a *Ant) WaitCountdown() float64 { return a.waitCountdown }

// History returns the ant's readings, oldest first.
func (a *Ant) History() []float64 { return a.history.Values() }

// NextHop returns the server chosen at the last acting step.
func (a *Ant) NextHop() (ServerID, bool) { return a.nextHop, a.hasNextHop }

// Knows reports whether the ant has a visit record for the server.
func (a *Ant) Knows(s ServerID) bool {
	_, ok := a.visits[s]
	return ok
}

// Reinit forgets history and visit records. Used when the topology is
// rebuilt after a scaling action.
func (a *Ant) Reinit() {
	a.history.Reset()
	clear(a.visits)
	a.hasNextHop = false
	a.waitCountdown = 0
}

// Step advances the ant by elapsed seconds. While cooling down it returns
// false. Otherwise it returns the new pheromone level for current, which is
// the prior level plus this step's deposit, clamped to [0, ceiling].
func (a *Ant) Step(current ServerID, level, utilization float64, known []ServerID, elapsed float64) (float64, bool) {
	if a.waitCountdown > 0 {
		a.waitCountdown -= elapsed
		return 0, false
	}

	newLevel := math.Min(math.Max(a.Deposit(utilization)+level, 0), a.ceiling)
	a.history.Push(newLevel)
	wait := a.updateVisitHistory(current, newLevel, utilization, known)
	a.nextHop = a.chooseNextHop(current, known)
	a.hasNextHop = true
	a.waitCountdown = float64(wait)

	logrus.Tracef("ant %d on server %d: util=%.3f level=%.3f wait=%ds next=%d",
		a.uid, current, utilization, newLevel, wait, a.nextHop)
	return newLevel, true
}

// Deposit returns the pheromone laid for a utilization sample. Balanced
// servers get half the base amount, underloaded servers more, overloaded
// servers less (never below zero).
func (a *Ant) Deposit(utilization float64) float64 {
	lo, hi, base := a.cfg.MinBalanceLevel, a.cfg.MaxBalanceLevel, a.cfg.AntPheromone
	switch {
	case utilization < lo:
		return (0.5 + (lo - utilization)) * base
	case utilization > hi:
		return math.Max(0, (0.5-(utilization-hi))*base)
	default:
		return 0.5 * base
	}
}

// WaitTime returns the cooldown in seconds for a utilization sample:
// ceil(min(60, antWaitTime/(1-u))). Saturated servers get the cap.
func (a *Ant) WaitTime(utilization float64) int {
	if utilization >= 1 {
		return maxWaitSeconds
	}
	return int(math.Ceil(math.Min(maxWaitSeconds, a.cfg.AntWaitTime/(1-utilization))))
}

// updateVisitHistory refreshes the visit table and returns the next cooldown.
func (a *Ant) updateVisitHistory(current ServerID, newLevel, utilization float64, known []ServerID) int {
	wait := a.WaitTime(utilization)

	present := make(map[ServerID]bool, len(known))
	for _, s := range known {
		present[s] = true
	}
	maxKnownWait := 0
	for s, v := range a.visits {
		if !present[s] {
			delete(a.visits, s)
			continue
		}
		if v.secondsSinceVisit > maxKnownWait {
			maxKnownWait = v.secondsSinceVisit
		}
	}

	for s, v := range a.visits {
		switch {
		case s == current:
			a.visits[s] = visit{0, newLevel}
		default:
			v.secondsSinceVisit += wait
			a.visits[s] = v
		}
	}

	for _, s := range known {
		if _, ok := a.visits[s]; ok {
			continue
		}
		if s == current {
			a.visits[s] = visit{0, newLevel}
			continue
		}
		jittered := wait
		if maxKnownWait > 0 {
			jittered += a.rng.Intn(maxKnownWait)
		}
		a.visits[s] = visit{jittered, 0}
	}
	return wait
}

// Morph classifies the average of the ant's history. Averages exactly at a
// morph level are Stable; an empty history is Stable.
func (a *Ant) Morph() Morph {
	avg, ok := a.history.Mean()
	switch {
	case !ok:
		return Stable
	case avg < a.cfg.MinMorphLevel:
		return ScaleUp
	case avg > a.cfg.MaxMorphLevel:
		return ScaleDown
	default:
		return Stable
	}
}

// AveragePheromone returns the mean of the ant's history, 0 when empty.
func (a *Ant) AveragePheromone() float64 {
	avg, _ := a.history.Mean()
	return avg
}

// EvaluateFitness scores how well a pool of nestSize servers would satisfy
// the optimal level, from this ant's readings taken on a pool of
// originalSize servers. See fitnessOf.
func (a *Ant) EvaluateFitness(nestSize, originalSize int, maxPher, optPher float64) float64 {
	return fitnessOf(a.history.Values(), nestSize, originalSize, maxPher, optPher)
}

// fitnessOf rescales readings to a candidate pool size and returns
// 1 - |optPher - scaledAvg| / optPher, which peaks at 1 when the candidate
// size would land the average exactly on optPher.
//
// Rescaling: the reading set is trimmed to its most recent entries when the
// nest is smaller than the original pool and extended by repeating readings
// when larger, in proportion nestSize/originalSize; each reading is then
// multiplied by the same ratio, since spreading the same load over more
// servers leaves each one proportionally more attractive. The scaled
// average is capped at 1.5*maxPher.
func fitnessOf(readings []float64, nestSize, originalSize int, maxPher, optPher float64) float64 {
	if len(readings) == 0 || originalSize < 1 || nestSize < 1 || optPher <= 0 {
		return 0
	}
	ratio := float64(nestSize) / float64(originalSize)
	n := int(math.Ceil(float64(len(readings)) * ratio))
	if n < 1 {
		n = 1
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		var r float64
		if n <= len(readings) {
			r = readings[len(readings)-n+i]
		} else {
			r = readings[i%len(readings)]
		}
		sum += r * ratio
	}
	scaled := sum / float64(n)
	if maxPher > 0 {
		scaled = math.Min(scaled, 1.5*maxPher)
	}
	return 1 - math.Abs(optPher-scaled)/optPher
}
