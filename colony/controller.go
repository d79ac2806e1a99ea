package colony

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/selforg/antscale/colony/trace"
)

// Action is what the controller asked the fleet to do on a tick.
type Action string

const (
	ActionNone   Action = "none"
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// TickReport describes one controller tick. Levels is a copy taken after
// decay and before any post-actuation reset.
type TickReport struct {
	Clock       float64
	Initialized bool // the tick seeded a fresh population instead of stepping it
	Votes       VoteTally
	Decision    Morph
	Action      Action
	Magnitude   int
	Levels      map[ServerID]float64
}

// Snapshot is the read-only view exported after each tick.
type Snapshot struct {
	Clock  float64
	Levels map[ServerID]float64
	Votes  VoteTally
	Ants   int
}

// Controller drives one step per ant per tick, tallies votes and requests
// actuation on a qualifying majority. It exclusively owns the pheromone
// table and the ant placement map. Not safe for concurrent use.
type Controller struct {
	cfg       Config
	opts      Options
	rng       *PartitionedRNG
	optimizer Optimizer
	fleet     FleetManager
	decisions *trace.DecisionTrace

	ants      map[int]*Ant     // uid -> ant
	placement map[int]ServerID // uid -> server the ant sits on
	table     *PheromoneTable

	lastTime  float64
	nextDecay float64
	last      TickReport
}

// NewController creates a controller. Panics on nil optimizer or fleet.
func NewController(cfg Config, opts Options, rng *PartitionedRNG, optimizer Optimizer, fleet FleetManager) *Controller {
	if optimizer == nil {
		panic("NewController: optimizer must not be nil")
	}
	if fleet == nil {
		panic("NewController: fleet must not be nil")
	}
	if rng == nil {
		rng = NewPartitionedRNGFromOptions(opts)
	}
	return &Controller{
		cfg:       cfg,
		opts:      opts,
		rng:       rng,
		optimizer: optimizer,
		fleet:     fleet,
		ants:      make(map[int]*Ant),
		placement: make(map[int]ServerID),
		table:     NewPheromoneTable(),
	}
}

// SetDecisionTrace records every tick into dt. Nil disables recording.
func (c *Controller) SetDecisionTrace(dt *trace.DecisionTrace) {
	c.decisions = dt
}

// Tick processes one set of samples taken at time now (seconds).
// Terminated servers are ignored. Actuation errors are returned wrapped and
// leave the colony's state untouched.
func (c *Controller) Tick(samples []ServerSample, now float64) (TickReport, error) {
	known, util := liveServers(samples)
	report := TickReport{Clock: now, Action: ActionNone, Decision: Stable}

	if len(c.ants) == 0 {
		c.initialize(known)
		c.lastTime = now
		report.Initialized = true
		report.Levels = c.table.Snapshot()
		c.finish(report)
		return report, nil
	}

	elapsed := now - c.lastTime
	c.lastTime = now
	c.reconcile(known)

	moves := make(map[int]ServerID)
	for _, uid := range c.antUIDs() {
		ant := c.ants[uid]
		server := c.placement[uid]
		level, _ := c.table.Level(server)
		if newLevel, acted := ant.Step(server, level, util[server], known, elapsed); acted {
			c.table.Set(server, newLevel)
			if hop, ok := ant.NextHop(); ok {
				moves[uid] = hop
			}
		}
		report.Votes.Add(ant.Morph())
	}
	// Moves apply after the full pass so no ant sees another's move mid-tick.
	for uid, server := range moves {
		c.placement[uid] = server
	}

	if c.nextDecay <= now {
		c.table.Decay(c.cfg.DecayAmount)
		c.nextDecay = now + c.cfg.DecayRate
	}
	report.Levels = c.table.Snapshot()
	report.Decision = report.Votes.Majority()

	switch report.Decision {
	case ScaleUp:
		c.optimizer.LoadPopulation(c.antList(), c.cfg.MinMorphLevel, c.cfg.MaxMorphLevel)
		n := c.optimizer.ProposeAddCount()
		logrus.Infof("ant autoscale would add servers: count=%d votes=%+v %s", n, report.Votes, formatLevels(report.Levels))
		if n > 0 {
			if err := c.fleet.RequestAddServers(n); err != nil {
				c.finish(report)
				return report, fmt.Errorf("requesting %d new servers: %w", n, err)
			}
			report.Action, report.Magnitude = ActionAdd, n
			c.reset()
		}
	case ScaleDown:
		if len(c.ants) <= 1 {
			logrus.Debugf("ant autoscale scale-down vote ignored: single server")
			break
		}
		c.optimizer.LoadPopulation(c.antList(), c.cfg.MinMorphLevel, c.cfg.MaxMorphLevel)
		n := c.optimizer.ProposeRemoveCount()
		logrus.Infof("ant autoscale would remove servers: count=%d votes=%+v %s", n, report.Votes, formatLevels(report.Levels))
		if n > 0 {
			if err := c.fleet.RequestRemoveServers(n); err != nil {
				c.finish(report)
				return report, fmt.Errorf("requesting removal of %d servers: %w", n, err)
			}
			report.Action, report.Magnitude = ActionRemove, n
			c.reset()
		}
	default:
		logrus.Debugf("ant autoscale no change: votes=%+v %s", report.Votes, formatLevels(report.Levels))
	}

	c.finish(report)
	return report, nil
}

// Snapshot returns the view recorded by the last tick.
func (c *Controller) Snapshot() Snapshot {
	levels := make(map[ServerID]float64, len(c.last.Levels))
	for s, l := range c.last.Levels {
		levels[s] = l
	}
	return Snapshot{Clock: c.last.Clock, Levels: levels, Votes: c.last.Votes, Ants: len(c.ants)}
}

// Level returns the current pheromone level at a server.
func (c *Controller) Level(s ServerID) (float64, bool) {
	return c.table.Level(s)
}

// AntCount returns the number of tracked ants.
func (c *Controller) AntCount() int { return len(c.ants) }

// Placement returns a copy of the ant uid -> server map.
func (c *Controller) Placement() map[int]ServerID {
	out := make(map[int]ServerID, len(c.placement))
	for uid, s := range c.placement {
		out[uid] = s
	}
	return out
}

// initialize creates one ant per server, seated on it, and seeds every
// server at the midpoint level.
func (c *Controller) initialize(known []ServerID) {
	mid := c.cfg.MidpointLevel()
	for _, s := range known {
		c.addAnt(s)
	}
	c.table.Seed(known, mid)
	logrus.Debugf("ant autoscale initialized %d ants at level %.3f", len(known), mid)
}

func (c *Controller) addAnt(s ServerID) {
	uid := int(s)
	c.ants[uid] = NewAnt(uid, c.cfg, c.opts, c.rng.ForSubsystem(SubsystemAnt(uid)))
	c.placement[uid] = s
}

// reconcile applies topology changes that happened outside a scaling
// action: ants whose home server left are destroyed, ants stranded on a
// departed server return home, and joining servers get an ant and the
// midpoint level.
func (c *Controller) reconcile(known []ServerID) {
	present := make(map[ServerID]bool, len(known))
	for _, s := range known {
		present[s] = true
	}
	for _, s := range c.table.Servers() {
		if !present[s] {
			c.table.Remove(s)
		}
	}
	for uid := range c.ants {
		home := ServerID(uid)
		if !present[home] {
			delete(c.ants, uid)
			delete(c.placement, uid)
			continue
		}
		if !present[c.placement[uid]] {
			c.placement[uid] = home
		}
	}
	for _, s := range known {
		if _, ok := c.ants[int(s)]; !ok {
			c.addAnt(s)
		}
		if !c.table.Has(s) {
			c.table.Set(s, c.cfg.MidpointLevel())
		}
	}
}

// reset discards all colony state; the next tick re-initializes against the
// fleet's updated server list.
func (c *Controller) reset() {
	clear(c.ants)
	clear(c.placement)
	c.table.Clear()
}

func (c *Controller) finish(report TickReport) {
	c.last = report
	if c.decisions == nil {
		return
	}
	levels := make(map[int]float64, len(report.Levels))
	for s, l := range report.Levels {
		levels[int(s)] = l
	}
	c.decisions.RecordTick(trace.TickRecord{
		Clock:       report.Clock,
		Initialized: report.Initialized,
		ScaleUp:     report.Votes.ScaleUp,
		ScaleDown:   report.Votes.ScaleDown,
		Stable:      report.Votes.Stable,
		Decision:    report.Decision.String(),
		Action:      string(report.Action),
		Magnitude:   report.Magnitude,
		Levels:      levels,
	})
}

func (c *Controller) antUIDs() []int {
	uids := make([]int, 0, len(c.ants))
	for uid := range c.ants {
		uids = append(uids, uid)
	}
	sort.Ints(uids)
	return uids
}

func (c *Controller) antList() []*Ant {
	out := make([]*Ant, 0, len(c.ants))
	for _, uid := range c.antUIDs() {
		out = append(out, c.ants[uid])
	}
	return out
}

// liveServers returns non-terminated server ids in ascending order and their
// utilization.
func liveServers(samples []ServerSample) ([]ServerID, map[ServerID]float64) {
	known := make([]ServerID, 0, len(samples))
	util := make(map[ServerID]float64, len(samples))
	for _, s := range samples {
		if s.Status == StatusTerminated {
			continue
		}
		known = append(known, s.ID)
		util[s.ID] = s.Utilization
	}
	sort.Slice(known, func(i, j int) bool { return known[i] < known[j] })
	return known, util
}

// formatLevels renders levels as "id=level; " pairs in id order.
func formatLevels(levels map[ServerID]float64) string {
	ids := make([]ServerID, 0, len(levels))
	for s := range levels {
		ids = append(ids, s)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var sb strings.Builder
	for _, s := range ids {
		fmt.Fprintf(&sb, "%d=%.3f; ", s, levels[s])
	}
	return sb.String()
}
