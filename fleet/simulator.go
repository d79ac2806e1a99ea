package fleet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/selforg/antscale/colony"
	"github.com/selforg/antscale/fleet/workload"
)

// Simulator is a discrete-event model of a web application tier: sessions
// arrive from a workload profile, run on servers under processor sharing,
// and an autoscaling Policy resizes the fleet every refresh interval.
// It implements colony.FleetManager. Not safe for concurrent use.
type Simulator struct {
	scenario *Scenario
	policy   Policy
	gen      *workload.Generator
	events   *agenda
	status   *logrus.Logger

	clock   float64
	horizon float64
	done    bool
	hasRun  bool

	servers       []*Server // live servers in id order
	nextServerID  colony.ServerID
	nextSessionID int
	backlog       []*Session

	results Results
}

var _ colony.FleetManager = (*Simulator)(nil)

// NewSimulator creates a simulator for the scenario and binds the policy to
// it. status receives one line per refresh; nil uses the standard logger.
// Panics on nil scenario or policy.
func NewSimulator(scenario *Scenario, policy Policy, status *logrus.Logger) *Simulator {
	if scenario == nil {
		panic("NewSimulator: scenario must not be nil")
	}
	if policy == nil {
		panic("NewSimulator: policy must not be nil")
	}
	profile, err := scenario.Profile()
	if err != nil {
		panic(fmt.Sprintf("NewSimulator: scenario not validated: %v", err))
	}
	if status == nil {
		status = logrus.StandardLogger()
	}
	s := &Simulator{
		scenario: scenario,
		policy:   policy,
		gen:      workload.NewGenerator(profile, uint64(scenario.Seed)),
		events:   newAgenda(scenario.Horizon()),
		status:   status,
		horizon:  scenario.Horizon(),
		results:  Results{Policy: policy.Name(), Horizon: scenario.Horizon()},
	}
	policy.Bind(s)
	return s
}

// Run executes the simulation to the horizon and returns its results.
// Panics if called more than once.
func (s *Simulator) Run() *Results {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true

	for i := 0; i < s.scenario.Cloud.InitialServers; i++ {
		srv := s.newServer()
		srv.Status = colony.StatusRunning
	}
	s.results.PeakServers = len(s.servers)

	s.events.schedule(NewSessionArrivalEvent(s.gen.Next()))
	s.events.schedule(NewRefreshEvent(s.scenario.Cloud.RefreshInterval))
	s.events.schedule(NewHorizonEvent(s.horizon))

	for !s.done && s.events.len() > 0 {
		ev := s.events.next()
		s.advanceTo(ev.Timestamp())
		ev.Execute(s)
	}
	s.finalize()
	return &s.results
}

// Clock returns the current simulation time in seconds.
func (s *Simulator) Clock() float64 { return s.clock }

// Servers returns the live servers in id order.
func (s *Simulator) Servers() []*Server {
	return append([]*Server(nil), s.servers...)
}

// Backlog returns the number of sessions waiting for a running server.
func (s *Simulator) Backlog() int { return len(s.backlog) }

// Samples returns one utilization sample per live server.
func (s *Simulator) Samples() []colony.ServerSample {
	out := make([]colony.ServerSample, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, colony.ServerSample{ID: srv.ID, Utilization: srv.Utilization(), Status: srv.Status})
	}
	return out
}

// RequestAddServers implements colony.FleetManager. New servers boot for
// the scenario's boot delay. Requests beyond max servers are trimmed; a
// request that can add nothing fails with ErrAtCapacity.
func (s *Simulator) RequestAddServers(n int) error {
	if n < 1 {
		return nil
	}
	room := s.scenario.Cloud.MaxServers - len(s.servers)
	if room <= 0 {
		return fmt.Errorf("adding %d servers: %w", n, ErrAtCapacity)
	}
	if n > room {
		logrus.Debugf("fleet: trimming add request from %d to %d servers", n, room)
		n = room
	}
	for i := 0; i < n; i++ {
		srv := s.newServer()
		srv.ReadyAt = s.clock + s.scenario.Cloud.BootDelay
		s.events.schedule(NewServerReadyEvent(srv.ReadyAt, srv))
	}
	s.results.ScaleUps++
	s.results.ServersAdded += n
	if len(s.servers) > s.results.PeakServers {
		s.results.PeakServers = len(s.servers)
	}
	logrus.Debugf("fleet: t=%.0f added %d servers, now %d", s.clock, n, len(s.servers))
	return nil
}

// RequestRemoveServers implements colony.FleetManager. The newest servers
// go first and their sessions are dispatched again. The last server is
// never removed; a request that can remove nothing fails with ErrLastServer.
func (s *Simulator) RequestRemoveServers(n int) error {
	if n < 1 {
		return nil
	}
	removable := len(s.servers) - 1
	if removable <= 0 {
		return fmt.Errorf("removing %d servers: %w", n, ErrLastServer)
	}
	if n > removable {
		logrus.Debugf("fleet: trimming remove request from %d to %d servers", n, removable)
		n = removable
	}
	cut := len(s.servers) - n
	victims := s.servers[cut:]
	s.servers = append([]*Server(nil), s.servers[:cut]...)

	var orphans []*Session
	for _, srv := range victims {
		srv.Status = colony.StatusTerminated
		orphans = append(orphans, srv.sessions...)
		srv.sessions = nil
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	for _, sess := range orphans {
		s.dispatch(sess)
	}
	s.results.ScaleDowns++
	s.results.ServersRemoved += n
	logrus.Debugf("fleet: t=%.0f removed %d servers, %d sessions moved, now %d", s.clock, n, len(orphans), len(s.servers))
	return nil
}

func (s *Simulator) newServer() *Server {
	s.nextServerID++
	srv := &Server{ID: s.nextServerID, Status: colony.StatusInitialising, CreatedAt: s.clock}
	s.servers = append(s.servers, srv)
	return srv
}

func (s *Simulator) handleServerReady(e *ServerReadyEvent) {
	if e.Server.Status != colony.StatusInitialising {
		return // destroyed while booting
	}
	e.Server.Status = colony.StatusRunning
	waiting := s.backlog
	s.backlog = nil
	for _, sess := range waiting {
		s.dispatch(sess)
	}
}

func (s *Simulator) handleSessionArrival(e *SessionArrivalEvent) {
	s.nextSessionID++
	sess := &Session{
		ID:        s.nextSessionID,
		Arrival:   e.Timestamp(),
		Load:      s.scenario.Session.Load,
		Duration:  s.scenario.Session.Duration,
		remaining: s.scenario.Session.Duration,
	}
	s.results.SessionsArrived++
	s.dispatch(sess)

	s.events.schedule(NewSessionArrivalEvent(s.gen.Next()))
}

func (s *Simulator) handleRefresh(e *RefreshEvent) {
	s.logStatus()
	if err := s.policy.Refresh(s.clock); err != nil {
		s.results.ActuationErrors++
		logrus.Warnf("%s at t=%.0f: %v", s.policy.Name(), s.clock, err)
	}
	s.events.schedule(NewRefreshEvent(e.Timestamp() + s.scenario.Cloud.RefreshInterval))
}

// dispatch places a session on the least-utilized running server, lowest
// id first on ties, or parks it in the backlog when none is running.
func (s *Simulator) dispatch(sess *Session) {
	var target *Server
	for _, srv := range s.servers {
		if srv.Status != colony.StatusRunning {
			continue
		}
		if target == nil || srv.Demand() < target.Demand() {
			target = srv
		}
	}
	if target == nil {
		s.backlog = append(s.backlog, sess)
		return
	}
	sess.server = target.ID
	target.sessions = append(target.sessions, sess)
}

// advanceTo moves every server's sessions forward to t.
func (s *Simulator) advanceTo(t float64) {
	if t <= s.clock {
		return
	}
	dt := t - s.clock
	s.results.ServerSeconds += float64(len(s.servers)) * dt
	for _, srv := range s.servers {
		if srv.Status == colony.StatusRunning {
			srv.advance(s.clock, dt, s.complete)
		}
	}
	s.clock = t
}

func (s *Simulator) complete(sess *Session) {
	s.results.SessionsServed++
	d := sess.Delay()
	s.results.TotalDelay += d
	if d > s.results.MaxDelay {
		s.results.MaxDelay = d
	}
}

func (s *Simulator) finalize() {
	s.advanceTo(s.horizon)
	unfinished := len(s.backlog)
	for _, srv := range s.servers {
		unfinished += len(srv.sessions)
	}
	s.results.SessionsUnfinished = unfinished
	s.results.FinalServers = len(s.servers)
}

// logStatus writes one status line in the format read back by logparse:
// "<id>[<STATUS>] sessions(<n>) cpu(<u>) pheromone(<id>=<level>); " per server.
func (s *Simulator) logStatus() {
	levels, _ := s.policy.(LevelReporter)
	var sb strings.Builder
	for _, srv := range s.servers {
		fmt.Fprintf(&sb, "%d[%s] sessions(%d) cpu(%.4f)", srv.ID, srv.Status, srv.Sessions(), srv.Utilization())
		if levels != nil {
			if l, ok := levels.Level(srv.ID); ok {
				fmt.Fprintf(&sb, " pheromone(%d=%.4f)", srv.ID, l)
			}
		}
		sb.WriteString("; ")
	}
	s.status.WithFields(logrus.Fields{
		"policy": s.policy.Name(),
		"clock":  fmt.Sprintf("%.3f", s.clock),
	}).Info(sb.String())
}
