package fleet

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/selforg/antscale/colony"
	"github.com/selforg/antscale/fleet/workload"
)

func flatHours(mean float64) []workload.Hour {
	hours := make([]workload.Hour, workload.HoursPerDay)
	for i := range hours {
		hours[i] = workload.Hour{Mean: mean}
	}
	return hours
}

// testScenario is a one-hour run on two servers at the given hourly rate.
func testScenario(rate float64) *Scenario {
	sc := &Scenario{
		Cloud: CloudConfig{
			InitialServers: 2,
			MaxServers:     6,
			BootDelay:      30,
			SimDays:        1.0 / 24,
		},
		Workload: WorkloadConfig{Hours: flatHours(rate)},
		Seed:     1,
	}
	sc.ApplyDefaults()
	return sc
}

func testAntConfig() colony.Config {
	return colony.Config{
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

func seed(v int64) *int64 { return &v }

// funcPolicy runs fn on every refresh.
type funcPolicy struct {
	sim       *Simulator
	refreshes int
	fn        func(sim *Simulator, now float64) error
}

func (p *funcPolicy) Name() string        { return "Func-Autoscale" }
func (p *funcPolicy) Bind(sim *Simulator) { p.sim = sim }
func (p *funcPolicy) Refresh(now float64) error {
	p.refreshes++
	if p.fn == nil {
		return nil
	}
	return p.fn(p.sim, now)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func bufferLogger(buf *bytes.Buffer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

func runningServer(id int, loads ...float64) *Server {
	srv := &Server{ID: colony.ServerID(id), Status: colony.StatusRunning}
	for i, l := range loads {
		srv.sessions = append(srv.sessions, &Session{ID: id*100 + i, Load: l, Duration: 100, remaining: 100})
	}
	return srv
}
