package trace

// TraceSummary aggregates statistics from a DecisionTrace.
type TraceSummary struct {
	TotalTicks       int
	Initializations  int
	ScaleUpTicks     int
	ScaleDownTicks   int
	NoActionTicks    int
	ServersAdded     int
	ServersRemoved   int
	MeanLevel        float64 // mean over every recorded level
	DecisionsByVotes map[string]int
}

// Summarize computes aggregate statistics from a DecisionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DecisionTrace) *TraceSummary {
	summary := &TraceSummary{
		DecisionsByVotes: make(map[string]int),
	}
	if dt == nil {
		return summary
	}

	summary.TotalTicks = len(dt.Ticks)
	levelSum, levelCount := 0.0, 0
	for _, t := range dt.Ticks {
		if t.Initialized {
			summary.Initializations++
		}
		if t.Decision != "" {
			summary.DecisionsByVotes[t.Decision]++
		}
		switch t.Action {
		case "add":
			summary.ScaleUpTicks++
			summary.ServersAdded += t.Magnitude
		case "remove":
			summary.ScaleDownTicks++
			summary.ServersRemoved += t.Magnitude
		default:
			summary.NoActionTicks++
		}
		for _, l := range t.Levels {
			levelSum += l
			levelCount++
		}
	}
	if levelCount > 0 {
		summary.MeanLevel = levelSum / float64(levelCount)
	}
	return summary
}
