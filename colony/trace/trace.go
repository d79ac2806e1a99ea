package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions records only ticks that requested actuation.
	TraceLevelDecisions TraceLevel = "decisions"
	// TraceLevelTicks records every tick.
	TraceLevelTicks TraceLevel = "ticks"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	TraceLevelTicks:     true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// DecisionTrace collects tick records during a run.
type DecisionTrace struct {
	Level TraceLevel
	Ticks []TickRecord
}

// NewDecisionTrace creates a DecisionTrace ready for recording.
func NewDecisionTrace(level TraceLevel) *DecisionTrace {
	return &DecisionTrace{
		Level: level,
		Ticks: make([]TickRecord, 0),
	}
}

// RecordTick appends a tick record if the trace level admits it.
func (dt *DecisionTrace) RecordTick(record TickRecord) {
	switch dt.Level {
	case TraceLevelTicks:
	case TraceLevelDecisions:
		if record.Action == "" || record.Action == "none" {
			return
		}
	default:
		return
	}
	dt.Ticks = append(dt.Ticks, record)
}
