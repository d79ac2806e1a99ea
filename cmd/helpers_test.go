package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testAntProperties = `decayAmount=1
decayRate=30
antWaitTime=10
antPheromone=10
antHistorySize=5
minMorphLevel=2
maxMorphLevel=8
minBalanceLevel=0.3
maxBalanceLevel=0.7
`

// writeScenario writes a 45-minute scenario and its ant config into dir and
// returns the scenario path. antConfig may be "" to omit ant_config.
func writeScenario(t *testing.T, dir, antConfig string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ant.properties"), []byte(testAntProperties), 0o644))

	hours := make([]string, 24)
	for i := range hours {
		hours[i] = "{mean: 720, std: 0}"
	}
	var b strings.Builder
	b.WriteString("cloud:\n  initial_servers: 2\n  max_servers: 8\n  boot_delay: 30\n  sim_days: 0.03125\n")
	b.WriteString("workload:\n  hours: [" + strings.Join(hours, ", ") + "]\n")
	if antConfig != "" {
		fmt.Fprintf(&b, "ant_config: %s\n", antConfig)
	}
	b.WriteString("seed: 7\n")

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func baseOptions(scenario string) runOptions {
	return runOptions{
		scenarioPath: scenario,
		policy:       "ant",
		optimizer:    "house-hunt",
		hopOrder:     "ascending",
		traceLevel:   "none",
	}
}
