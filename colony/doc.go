// Package colony is the ant-colony autoscaling decision engine.
//
// # Reading Guide
//
//   - ant.go: the agent. Deposits pheromone on the server it sits on,
//     remembers the rest of the pool, votes on the pool's direction.
//   - hop.go: next-hop roulette over time-since-visit and remembered pheromone.
//   - controller.go: one step per ant per tick, vote tally, decay, actuation.
//   - househunt.go: house-hunting consensus turning a vote into a magnitude.
//
// # Ownership
//
// A Controller exclusively owns its PheromoneTable and ant placement map and
// passes them into Ant and Optimizer calls. Several controllers (one per
// application tier, say) can coexist in one process. Nothing here starts
// goroutines or blocks; time only advances through Tick.
//
// # Randomness
//
// All draws come from a PartitionedRNG: each ant has its own stream and the
// optimizer another, so a fixed seed replays a run exactly. Options.Seed nil
// falls back to a time-derived seed, which PartitionedRNG.Seed reports.
package colony
