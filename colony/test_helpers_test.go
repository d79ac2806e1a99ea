package colony

import (
	"errors"
	"math/rand"
)

// testConfig matches the worked examples: antPheromone=10, balance band
// [0.3,0.7], antWaitTime=10, morph levels [2,8].
func testConfig() Config {
	return Config{
		DecayAmount:     1,
		DecayRate:       30,
		AntWaitTime:     10,
		AntPheromone:    10,
		AntHistorySize:  5,
		MinMorphLevel:   2,
		MaxMorphLevel:   8,
		MinBalanceLevel: 0.3,
		MaxBalanceLevel: 0.7,
	}
}

func newTestAnt(uid int, cfg Config, opts Options) *Ant {
	return NewAnt(uid, cfg, opts, rand.New(rand.NewSource(int64(uid)+1)))
}

func seed(v int64) *int64 { return &v }

func ids(xs ...int) []ServerID {
	out := make([]ServerID, len(xs))
	for i, x := range xs {
		out[i] = ServerID(x)
	}
	return out
}

func samples(util float64, xs ...int) []ServerSample {
	out := make([]ServerSample, len(xs))
	for i, x := range xs {
		out[i] = ServerSample{ID: ServerID(x), Utilization: util, Status: StatusRunning}
	}
	return out
}

var errFleetDown = errors.New("fleet unavailable")

// recordingFleet is a FleetManager that records requests.
type recordingFleet struct {
	added   []int
	removed []int
	err     error
}

func (f *recordingFleet) RequestAddServers(n int) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, n)
	return nil
}

func (f *recordingFleet) RequestRemoveServers(n int) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, n)
	return nil
}
