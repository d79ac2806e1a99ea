package fleet

// EventType names a simulator event kind.
type EventType string

const (
	EventTypeServerReady    EventType = "ServerReady"
	EventTypeSessionArrival EventType = "SessionArrival"
	EventTypeRefresh        EventType = "Refresh"
	EventTypeHorizon        EventType = "Horizon"
)

// Event is a simulator event. Timestamps are in seconds.
type Event interface {
	Timestamp() float64
	EventID() uint64
	Type() EventType
	Execute(sim *Simulator)
	setEventID(id uint64)
}

// BaseEvent provides common event fields
type BaseEvent struct {
	timestamp float64
	eventID   uint64
	eventType EventType
}

func newBaseEvent(timestamp float64, eventType EventType) BaseEvent {
	return BaseEvent{timestamp: timestamp, eventType: eventType}
}

func (e *BaseEvent) Timestamp() float64 { return e.timestamp }

func (e *BaseEvent) EventID() uint64 { return e.eventID }

func (e *BaseEvent) Type() EventType { return e.eventType }

func (e *BaseEvent) setEventID(id uint64) { e.eventID = id }

// ServerReadyEvent marks the end of a server's boot delay.
type ServerReadyEvent struct {
	BaseEvent
	Server *Server
}

func NewServerReadyEvent(timestamp float64, s *Server) *ServerReadyEvent {
	return &ServerReadyEvent{BaseEvent: newBaseEvent(timestamp, EventTypeServerReady), Server: s}
}

func (e *ServerReadyEvent) Execute(sim *Simulator) {
	sim.handleServerReady(e)
}

// SessionArrivalEvent brings a new session into the fleet.
type SessionArrivalEvent struct {
	BaseEvent
}

func NewSessionArrivalEvent(timestamp float64) *SessionArrivalEvent {
	return &SessionArrivalEvent{BaseEvent: newBaseEvent(timestamp, EventTypeSessionArrival)}
}

func (e *SessionArrivalEvent) Execute(sim *Simulator) {
	sim.handleSessionArrival(e)
}

// RefreshEvent runs the autoscaling policy.
type RefreshEvent struct {
	BaseEvent
}

func NewRefreshEvent(timestamp float64) *RefreshEvent {
	return &RefreshEvent{BaseEvent: newBaseEvent(timestamp, EventTypeRefresh)}
}

func (e *RefreshEvent) Execute(sim *Simulator) {
	sim.handleRefresh(e)
}

// HorizonEvent ends the run.
type HorizonEvent struct {
	BaseEvent
}

func NewHorizonEvent(timestamp float64) *HorizonEvent {
	return &HorizonEvent{BaseEvent: newBaseEvent(timestamp, EventTypeHorizon)}
}

func (e *HorizonEvent) Execute(sim *Simulator) {
	sim.done = true
}
