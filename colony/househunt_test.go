package colony

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func antsWithReadings(n int, reading float64) []*Ant {
	ants := make([]*Ant, n)
	for i := range ants {
		ants[i] = newTestAnt(i+1, testConfig(), Options{})
		for j := 0; j < 3; j++ {
			ants[i].history.Push(reading)
		}
	}
	return ants
}

func TestHouseHunt_TerminatesWithinPopulationRounds(t *testing.T) {
	for n := 1; n <= 24; n++ {
		for s := int64(0); s < 5; s++ {
			h := NewHouseHuntOptimizer(rand.New(rand.NewSource(s)))
			h.LoadPopulation(antsWithReadings(n, 1), 2, 8)

			up := h.ProposeAddCount()
			assert.GreaterOrEqual(t, up, 0)
			assert.LessOrEqual(t, h.LastRounds(), n, "n=%d seed=%d add", n, s)

			down := h.ProposeRemoveCount()
			assert.GreaterOrEqual(t, down, 0)
			assert.LessOrEqual(t, down, n-1, "cannot remove the whole pool")
			assert.LessOrEqual(t, h.LastRounds(), n, "n=%d seed=%d remove", n, s)
		}
	}
}

func TestHouseHunt_EmptyPopulation(t *testing.T) {
	h := NewHouseHuntOptimizer(rand.New(rand.NewSource(1)))
	h.LoadPopulation(nil, 2, 8)
	assert.Equal(t, 0, h.ProposeAddCount())
	assert.Equal(t, 0, h.ProposeRemoveCount())
}

func TestHouseHunt_OddPopulationDoesNotLeakPhantom(t *testing.T) {
	// GIVEN three ants
	h := NewHouseHuntOptimizer(rand.New(rand.NewSource(3)))
	ants := antsWithReadings(3, 1)
	h.LoadPopulation(ants, 2, 8)

	// WHEN a proposal runs with a phantom fourth agent
	h.ProposeAddCount()

	// THEN the loaded population is unchanged
	assert.Len(t, h.ants, 3)
	for i, a := range h.ants {
		assert.Equal(t, i+1, a.UID())
	}
}

func TestHouseHunt_SameSeedSameMagnitude(t *testing.T) {
	run := func() int {
		h := NewHouseHuntOptimizer(rand.New(rand.NewSource(11)))
		h.LoadPopulation(antsWithReadings(6, 12), 2, 8)
		return h.ProposeRemoveCount()
	}
	assert.Equal(t, run(), run())
}

func TestHouseHunt_LoadPopulationOrdersByUID(t *testing.T) {
	h := NewHouseHuntOptimizer(rand.New(rand.NewSource(1)))
	ants := antsWithReadings(3, 1)
	h.LoadPopulation([]*Ant{ants[2], ants[0], ants[1]}, 2, 8)
	assert.Equal(t, 1, h.ants[0].UID())
	assert.Equal(t, 3, h.ants[2].UID())
	assert.Equal(t, 5.0, h.optPher)
}

// fourAgentScenario places agents 0,1 in a nest of size 3 with fitness 0.9
// and 0.8, and agents 2,3 in a nest of size 5 with fitness 0.4 and 0.3.
// Fitness follows the agent and the nest size.
func fourAgentScenario() ([]*agent, func(*agent, int) float64) {
	table := map[int]map[int]float64{
		0: {3: 0.9, 5: 0.5},
		1: {3: 0.8, 5: 0.4},
		2: {3: 0.6, 5: 0.4},
		3: {3: 0.5, 5: 0.3},
	}
	three, five := newNest(3), newNest(5)
	agents := []*agent{
		{uid: 0, nest: three},
		{uid: 1, nest: three},
		{uid: 2, nest: five},
		{uid: 3, nest: five},
	}
	fitness := func(ag *agent, size int) float64 { return table[ag.uid][size] }
	for i, ag := range agents {
		ag.nest.fitness[i] = fitness(ag, ag.nest.Size)
	}
	return agents, fitness
}

func TestConverge_FourAgents_SingleRoundToKnownNest(t *testing.T) {
	// GIVEN nests {3,3,5,5} where nest 3 aggregates 1.7 and nest 5 aggregates 0.7
	agents, fitness := fourAgentScenario()
	h := NewHouseHuntOptimizer(rand.New(rand.NewSource(5)))

	// WHEN converged
	final, rounds := h.converge(agents, fitness)

	// THEN one round settles on one of the two sizes
	assert.Contains(t, []int{3, 5}, final)
	assert.Equal(t, 1, rounds)
	for _, ag := range agents {
		assert.Equal(t, final, ag.nest.Size)
	}
}

func TestConverge_FourAgents_FavoursStrongerNest(t *testing.T) {
	counts := map[int]int{}
	for s := int64(0); s < 500; s++ {
		agents, fitness := fourAgentScenario()
		h := NewHouseHuntOptimizer(rand.New(rand.NewSource(s)))
		final, _ := h.converge(agents, fitness)
		counts[final]++
	}
	assert.Greater(t, counts[3], counts[5], "counts=%v", counts)
}

func TestConverge_RecomputesMemberFitness(t *testing.T) {
	agents, fitness := fourAgentScenario()
	h := NewHouseHuntOptimizer(rand.New(rand.NewSource(9)))
	final, _ := h.converge(agents, fitness)

	nest := agents[0].nest
	require.Equal(t, 4, nest.Members())
	for i, ag := range agents {
		assert.Equal(t, fitness(ag, final), nest.fitness[i])
	}
}

func TestPropose_FlooredAtOne(t *testing.T) {
	h := NewHouseHuntOptimizer(rand.New(rand.NewSource(1)))
	h.maxPher = 8
	for i := 0; i < 50; i++ {
		size := h.propose(2, []float64{0}, -1)
		assert.GreaterOrEqual(t, size, 1)
	}
}

func TestPropose_DirectionFollowsSign(t *testing.T) {
	h := NewHouseHuntOptimizer(rand.New(rand.NewSource(1)))
	h.maxPher = 8
	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, h.propose(6, []float64{1}, +1), 6)
		assert.LessOrEqual(t, h.propose(6, []float64{12}, -1), 6)
	}
}

func TestFixedStepOptimizer(t *testing.T) {
	var o FixedStepOptimizer
	o.LoadPopulation(nil, 2, 8)
	assert.Equal(t, 1, o.ProposeAddCount())
	assert.Equal(t, 1, o.ProposeRemoveCount())
}

func TestNewOptimizer(t *testing.T) {
	rng := NewPartitionedRNG(1)
	o, err := NewOptimizer("", rng)
	require.NoError(t, err)
	assert.IsType(t, &HouseHuntOptimizer{}, o)

	o, err = NewOptimizer(OptimizerFixedStep, rng)
	require.NoError(t, err)
	assert.IsType(t, FixedStepOptimizer{}, o)

	_, err = NewOptimizer("annealing", rng)
	assert.Error(t, err)
}
