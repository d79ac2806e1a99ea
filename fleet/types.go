package fleet

import (
	"errors"
	"math"

	"github.com/selforg/antscale/colony"
)

// Actuation failures reported by Simulator's FleetManager methods.
var (
	ErrAtCapacity = errors.New("fleet at max servers")
	ErrLastServer = errors.New("cannot remove the last server")
)

// Session is one user session. Load is the CPU share it consumes while it
// runs alone; it needs Duration seconds of unimpeded execution to finish.
type Session struct {
	ID       int
	Arrival  float64
	Load     float64
	Duration float64

	remaining float64 // seconds of unimpeded execution left
	server    colony.ServerID
	finished  float64
}

// Delay returns how much later than an unimpeded run the session finished.
func (s *Session) Delay() float64 {
	return math.Max(0, s.finished-(s.Arrival+s.Duration))
}

// Server is one application server VM. Its CPU is shared by its sessions:
// while total demand stays at or below 1 every session progresses in real
// time, above 1 all sessions slow down by the same factor.
type Server struct {
	ID        colony.ServerID
	Status    colony.ServerStatus
	CreatedAt float64
	ReadyAt   float64

	sessions []*Session
}

// Sessions returns the number of sessions on the server.
func (s *Server) Sessions() int { return len(s.sessions) }

// Demand returns the summed load of the server's sessions.
func (s *Server) Demand() float64 {
	d := 0.0
	for _, sess := range s.sessions {
		d += sess.Load
	}
	return d
}

// Utilization returns CPU utilization in [0,1]. Servers that are still
// booting report zero.
func (s *Server) Utilization() float64 {
	if s.Status != colony.StatusRunning {
		return 0
	}
	return math.Min(1, s.Demand())
}

// speed is the fraction of real time each session progresses at.
func (s *Server) speed() float64 {
	if d := s.Demand(); d > 1 {
		return 1 / d
	}
	return 1
}

// advance runs the server's sessions from now for dt seconds under
// processor sharing. Finished sessions are removed and passed to done
// with their exact finish time set.
func (s *Server) advance(now, dt float64, done func(*Session)) {
	const eps = 1e-9
	for dt > 0 && len(s.sessions) > 0 {
		speed := s.speed()
		minRemaining := math.Inf(1)
		for _, sess := range s.sessions {
			minRemaining = math.Min(minRemaining, sess.remaining)
		}
		step := math.Min(dt, minRemaining/speed)
		for _, sess := range s.sessions {
			sess.remaining -= step * speed
		}
		now += step
		dt -= step

		kept := s.sessions[:0]
		for _, sess := range s.sessions {
			if sess.remaining <= eps {
				sess.finished = now
				done(sess)
				continue
			}
			kept = append(kept, sess)
		}
		s.sessions = kept
	}
}
