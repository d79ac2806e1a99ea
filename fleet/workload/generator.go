package workload

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator produces session arrival times from a Profile.
//
// At each hour boundary the hour's rate is drawn from Normal(mean, std)
// and truncated at zero; inter-arrival times within the hour are
// exponential at that rate. Exponential gaps are memoryless, so an arrival
// that would cross the boundary is discarded and drawing restarts at the
// boundary with the next hour's rate.
type Generator struct {
	profile *Profile
	src     rand.Source

	clock      float64
	hourEnd    float64
	hourlyRate float64 // sessions per hour for the current period
	rates      []float64
}

// NewGenerator creates a generator seeded from seed. Panics on nil profile.
func NewGenerator(profile *Profile, seed uint64) *Generator {
	if profile == nil {
		panic("NewGenerator: profile must not be nil")
	}
	g := &Generator{
		profile: profile,
		src:     rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
	g.startHour(0)
	return g
}

// Next returns the next arrival time in seconds. Arrival times are strictly
// increasing. Next returns +Inf only when the whole profile is zero.
func (g *Generator) Next() float64 {
	if g.profile.Silent() {
		return math.Inf(1)
	}
	for {
		if g.hourlyRate <= 0 {
			g.startHour(g.hourEnd)
			continue
		}
		gap := distuv.Exponential{Rate: g.hourlyRate / SecondsPerHour, Src: g.src}.Rand()
		if g.clock+gap < g.hourEnd {
			g.clock += gap
			return g.clock
		}
		g.startHour(g.hourEnd)
	}
}

// Rates returns the hourly rates drawn so far, one per started period.
func (g *Generator) Rates() []float64 {
	return append([]float64(nil), g.rates...)
}

func (g *Generator) startHour(at float64) {
	g.clock = at
	g.hourEnd = (math.Floor(at/SecondsPerHour) + 1) * SecondsPerHour
	mean, std := g.profile.RateAt(at), g.profile.StdAt(at)
	rate := mean
	if std > 0 {
		rate = distuv.Normal{Mu: mean, Sigma: std, Src: g.src}.Rand()
	}
	g.hourlyRate = math.Max(0, rate)
	g.rates = append(g.rates, g.hourlyRate)
}
