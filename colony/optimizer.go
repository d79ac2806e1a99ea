package colony

import "fmt"

// Optimizer turns a majority scale vote into a magnitude.
// LoadPopulation is called before each proposal with the current ants and
// the pheromone bounds (minMorphLevel, maxMorphLevel).
type Optimizer interface {
	LoadPopulation(ants []*Ant, minPher, maxPher float64)
	ProposeAddCount() int
	ProposeRemoveCount() int
}

// FixedStepOptimizer always proposes a single server.
type FixedStepOptimizer struct{}

// LoadPopulation implements Optimizer; the population is ignored.
func (FixedStepOptimizer) LoadPopulation([]*Ant, float64, float64) {}

// ProposeAddCount implements Optimizer.
func (FixedStepOptimizer) ProposeAddCount() int { return 1 }

// ProposeRemoveCount implements Optimizer.
func (FixedStepOptimizer) ProposeRemoveCount() int { return 1 }

// Optimizer names accepted by NewOptimizer.
const (
	OptimizerFixedStep  = "fixed-step"
	OptimizerHouseHunt  = "house-hunt"
	DefaultOptimizerKey = OptimizerHouseHunt
)

// ValidOptimizers is the set of recognized optimizer names.
var ValidOptimizers = map[string]bool{"": true, OptimizerFixedStep: true, OptimizerHouseHunt: true}

// NewOptimizer creates an optimizer by name. Empty string defaults to house-hunt.
// The house-hunting optimizer draws from the optimizer subsystem of rng.
func NewOptimizer(name string, rng *PartitionedRNG) (Optimizer, error) {
	switch name {
	case "", OptimizerHouseHunt:
		return NewHouseHuntOptimizer(rng.ForSubsystem(SubsystemOptimizer)), nil
	case OptimizerFixedStep:
		return FixedStepOptimizer{}, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}
