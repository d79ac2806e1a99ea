package fleet

import (
	"fmt"
	"io"
)

// Results aggregates statistics about one simulation run for final reporting.
type Results struct {
	Policy  string
	Horizon float64 // seconds

	SessionsArrived    int
	SessionsServed     int
	SessionsUnfinished int     // still running or waiting at the horizon
	TotalDelay         float64 // sum over served sessions of finish - (arrival + duration)
	MaxDelay           float64

	ServerSeconds   float64 // integral of live server count over time
	PeakServers     int
	FinalServers    int
	ScaleUps        int
	ScaleDowns      int
	ServersAdded    int
	ServersRemoved  int
	ActuationErrors int
}

// MeanDelay returns the average delay of served sessions.
func (r *Results) MeanDelay() float64 {
	if r.SessionsServed == 0 {
		return 0
	}
	return r.TotalDelay / float64(r.SessionsServed)
}

// MeanServers returns the time-averaged live server count.
func (r *Results) MeanServers() float64 {
	if r.Horizon <= 0 {
		return 0
	}
	return r.ServerSeconds / r.Horizon
}

// Print writes the results table.
func (r *Results) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Simulation Results (%s) ===\n", r.Policy)
	fmt.Fprintf(w, "Sessions Arrived     : %d\n", r.SessionsArrived)
	fmt.Fprintf(w, "Sessions Served      : %d\n", r.SessionsServed)
	fmt.Fprintf(w, "Sessions Unfinished  : %d\n", r.SessionsUnfinished)
	if r.SessionsServed > 0 {
		fmt.Fprintf(w, "Mean Delay           : %.2f s\n", r.MeanDelay())
		fmt.Fprintf(w, "Max Delay            : %.2f s\n", r.MaxDelay)
	}
	fmt.Fprintf(w, "Mean Servers         : %.2f\n", r.MeanServers())
	fmt.Fprintf(w, "Peak Servers         : %d\n", r.PeakServers)
	fmt.Fprintf(w, "Final Servers        : %d\n", r.FinalServers)
	fmt.Fprintf(w, "Scale-Up Actions     : %d (+%d servers)\n", r.ScaleUps, r.ServersAdded)
	fmt.Fprintf(w, "Scale-Down Actions   : %d (-%d servers)\n", r.ScaleDowns, r.ServersRemoved)
	if r.ActuationErrors > 0 {
		fmt.Fprintf(w, "Actuation Errors     : %d\n", r.ActuationErrors)
	}
}
