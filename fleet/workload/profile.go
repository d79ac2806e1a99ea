// Package workload generates session arrivals for the fleet simulator.
//
// A Profile holds 24 hourly {mean, std} session rates (sessions per hour)
// multiplied by a scale factor. The profile repeats daily. A Generator
// draws one rate per hour from a normal distribution truncated at zero and
// emits Poisson arrivals at that rate.
package workload

import "fmt"

// HoursPerDay is the number of hourly periods in a profile.
const HoursPerDay = 24

// SecondsPerHour is the length of one profile period.
const SecondsPerHour = 3600.0

// Hour is the arrival rate specification of one hourly period.
type Hour struct {
	Mean float64 `yaml:"mean"` // sessions per hour, before scaling
	Std  float64 `yaml:"std"`  // standard deviation of the hourly rate
}

// Profile is a daily periodic arrival rate profile.
type Profile struct {
	hours       [HoursPerDay]Hour
	scaleFactor float64
}

// NewProfile validates hourly entries and returns a profile. The scale factor
// multiplies each hour's mean, as in the reference workload definitions; the
// standard deviation is not scaled.
func NewProfile(hours []Hour, scaleFactor float64) (*Profile, error) {
	if len(hours) != HoursPerDay {
		return nil, fmt.Errorf("workload profile needs %d hourly entries, got %d", HoursPerDay, len(hours))
	}
	if scaleFactor <= 0 {
		return nil, fmt.Errorf("workload scale factor must be positive, got %g", scaleFactor)
	}
	p := &Profile{scaleFactor: scaleFactor}
	for i, h := range hours {
		if h.Mean < 0 || h.Std < 0 {
			return nil, fmt.Errorf("workload hour %d: mean and std must be non-negative, got mean=%g std=%g", i, h.Mean, h.Std)
		}
		p.hours[i] = h
	}
	return p, nil
}

// HourOf returns the profile period index for a simulation time in seconds.
func HourOf(t float64) int {
	if t < 0 {
		return 0
	}
	return int(t/SecondsPerHour) % HoursPerDay
}

// RateAt returns the scaled mean rate, in sessions per hour, at time t.
func (p *Profile) RateAt(t float64) float64 {
	return p.hours[HourOf(t)].Mean * p.scaleFactor
}

// StdAt returns the rate standard deviation at time t.
func (p *Profile) StdAt(t float64) float64 {
	return p.hours[HourOf(t)].Std
}

// DailySessions returns the expected number of sessions in one day.
func (p *Profile) DailySessions() float64 {
	total := 0.0
	for _, h := range p.hours {
		total += h.Mean * p.scaleFactor
	}
	return total
}

// Silent reports whether no hour can ever produce an arrival.
func (p *Profile) Silent() bool {
	for _, h := range p.hours {
		if h.Mean > 0 || h.Std > 0 {
			return false
		}
	}
	return true
}
