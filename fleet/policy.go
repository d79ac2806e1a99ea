package fleet

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/selforg/antscale/colony"
	"github.com/selforg/antscale/colony/trace"
)

// Policy is an autoscaling policy driven by the simulator's refresh events.
type Policy interface {
	// Name tags status lines and results.
	Name() string
	// Bind attaches the policy to the fleet it scales. Called once by NewSimulator.
	Bind(sim *Simulator)
	// Refresh observes the fleet at time now and may actuate it.
	Refresh(now float64) error
}

// LevelReporter is implemented by policies that keep per-server pheromone
// levels; the simulator includes them in status lines.
type LevelReporter interface {
	Level(s colony.ServerID) (float64, bool)
}

// Policy names.
const (
	PolicyAnt       = "ant"
	PolicyThreshold = "threshold"
	PolicyBoth      = "both"
)

// ValidPolicies is the set of recognized --policy values.
var ValidPolicies = map[string]bool{PolicyAnt: true, PolicyThreshold: true, PolicyBoth: true}

// AntPolicy adapts a colony.Controller to the simulator.
type AntPolicy struct {
	cfg           colony.Config
	opts          colony.Options
	optimizerName string
	seed          int64

	sim        *Simulator
	controller *colony.Controller
	decisions  *trace.DecisionTrace
	observers  []func(colony.TickReport)
}

// NewAntPolicy validates the optimizer name and configuration. The
// controller itself is built when the policy is bound to a simulator.
func NewAntPolicy(cfg colony.Config, opts colony.Options, optimizer string) (*AntPolicy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !colony.ValidOptimizers[optimizer] {
		return nil, fmt.Errorf("unknown optimizer %q", optimizer)
	}
	if !colony.IsValidHopOrder(string(opts.HopOrder)) {
		return nil, fmt.Errorf("unknown hop order %q", opts.HopOrder)
	}
	return &AntPolicy{cfg: cfg, opts: opts, optimizerName: optimizer}, nil
}

// SetDecisionTrace records controller ticks into dt. Call before Bind.
func (p *AntPolicy) SetDecisionTrace(dt *trace.DecisionTrace) {
	p.decisions = dt
}

// OnTick registers a callback run after every controller tick.
func (p *AntPolicy) OnTick(fn func(colony.TickReport)) {
	p.observers = append(p.observers, fn)
}

// Name implements Policy.
func (p *AntPolicy) Name() string { return "Ant-Autoscale" }

// Bind implements Policy.
func (p *AntPolicy) Bind(sim *Simulator) {
	rng := colony.NewPartitionedRNGFromOptions(p.opts)
	optimizer, err := colony.NewOptimizer(p.optimizerName, rng)
	if err != nil {
		panic(fmt.Sprintf("AntPolicy.Bind: %v", err)) // validated in NewAntPolicy
	}
	p.sim = sim
	p.controller = colony.NewController(p.cfg, p.opts, rng, optimizer, sim)
	if p.decisions != nil {
		p.controller.SetDecisionTrace(p.decisions)
	}
	p.seed = rng.Seed()
	if p.opts.Seed == nil {
		logrus.Infof("ant policy unseeded: drew colony seed %d", p.seed)
	}
	logrus.Debugf("ant policy bound: optimizer=%s seed=%d", p.optimizerName, p.seed)
}

// Seed returns the colony's master seed once bound. For an unseeded policy
// this is the clock-derived value, so the run can be replayed.
func (p *AntPolicy) Seed() int64 { return p.seed }

// Refresh implements Policy.
func (p *AntPolicy) Refresh(now float64) error {
	if p.controller == nil {
		panic("AntPolicy.Refresh called before Bind")
	}
	report, err := p.controller.Tick(p.sim.Samples(), now)
	for _, fn := range p.observers {
		fn(report)
	}
	return err
}

// Level implements LevelReporter.
func (p *AntPolicy) Level(s colony.ServerID) (float64, bool) {
	if p.controller == nil {
		return 0, false
	}
	return p.controller.Level(s)
}

// Controller returns the bound controller, nil before Bind.
func (p *AntPolicy) Controller() *colony.Controller { return p.controller }

// ThresholdPolicy scales by one server when the average CPU of booting and
// running servers crosses a trigger, then waits out a cooldown.
type ThresholdPolicy struct {
	scaleUp    float64
	scaleDown  float64
	cooldown   float64
	lastAction float64
	sim        *Simulator
}

// NewThresholdPolicy creates the baseline policy. The scale-up trigger must
// not be below the scale-down trigger.
func NewThresholdPolicy(scaleUp, scaleDown, cooldown float64) (*ThresholdPolicy, error) {
	if scaleUp < scaleDown {
		return nil, fmt.Errorf("scale-up trigger should be greater than scale-down, got %g and %g", scaleUp, scaleDown)
	}
	return &ThresholdPolicy{scaleUp: scaleUp, scaleDown: scaleDown, cooldown: cooldown, lastAction: -1}, nil
}

// Name implements Policy.
func (p *ThresholdPolicy) Name() string { return "Simple-Autoscale" }

// Bind implements Policy.
func (p *ThresholdPolicy) Bind(sim *Simulator) { p.sim = sim }

// Refresh implements Policy.
func (p *ThresholdPolicy) Refresh(now float64) error {
	if p.sim == nil {
		panic("ThresholdPolicy.Refresh called before Bind")
	}
	samples := p.sim.Samples()
	avg, count := averageCPU(samples)
	canAct := p.lastAction < 0 || p.lastAction+p.cooldown < now

	switch {
	case canAct && avg > p.scaleUp:
		if err := p.sim.RequestAddServers(1); err != nil {
			return err
		}
		p.lastAction = now
		logrus.Debugf("threshold autoscale scale-up at t=%.0f: avg-cpu=%.2f", now, avg)
	case canAct && avg < p.scaleDown && count > 1:
		if err := p.sim.RequestRemoveServers(1); err != nil {
			return err
		}
		p.lastAction = now
		logrus.Debugf("threshold autoscale scale-down at t=%.0f: avg-cpu=%.2f", now, avg)
	}
	return nil
}

// averageCPU averages utilization over booting and running servers.
func averageCPU(samples []colony.ServerSample) (float64, int) {
	sum, count := 0.0, 0
	for _, s := range samples {
		if s.Status == colony.StatusTerminated {
			continue
		}
		sum += s.Utilization
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}
