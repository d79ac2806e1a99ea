package colony

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// === Subsystem Constants ===

const (
	// SubsystemOptimizer is the RNG subsystem for house-hunting consensus.
	SubsystemOptimizer = "optimizer"
)

// SubsystemAnt returns the subsystem name for the ant with the given uid.
// Each ant draws from its own stream so adding an ant never shifts another
// ant's sequence.
func SubsystemAnt(uid int) string {
	return fmt.Sprintf("ant_%d", uid)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// NewPartitionedRNGFromOptions seeds from opts.Seed, or from the wall clock
// when no seed is configured.
func NewPartitionedRNGFromOptions(opts Options) *PartitionedRNG {
	if opts.Seed != nil {
		return NewPartitionedRNG(*opts.Seed)
	}
	return NewPartitionedRNG(time.Now().UnixNano())
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed, so an unseeded run can still be replayed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
