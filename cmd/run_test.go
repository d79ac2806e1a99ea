package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selforg/antscale/fleet"
)

func TestRunSimulations_BothPolicies_PrintsResultsAndWritesTwoLogs(t *testing.T) {
	// GIVEN a scenario with an ant config and --policy both
	dir := t.TempDir()
	o := baseOptions(writeScenario(t, dir, "ant.properties"))
	o.policy = "both"
	o.statusLog = filepath.Join(dir, "status.log")

	// WHEN the run subcommand executes
	var out bytes.Buffer
	require.NoError(t, runSimulations(o, &out))

	// THEN both result blocks are printed, threshold first
	s := out.String()
	thresholdAt := strings.Index(s, "=== Simulation Results (Simple-Autoscale) ===")
	antAt := strings.Index(s, "=== Simulation Results (Ant-Autoscale) ===")
	require.GreaterOrEqual(t, thresholdAt, 0)
	require.Greater(t, antAt, thresholdAt)

	// AND each policy writes its own status log
	for _, name := range []string{"status-ant.log", "status-threshold.log"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "sessions(", name)
	}
	_, err := os.Stat(o.statusLog)
	assert.True(t, os.IsNotExist(err), "unsuffixed log must not be created")
}

func TestRunSimulations_SameSeed_IdenticalOutput(t *testing.T) {
	dir := t.TempDir()
	o := baseOptions(writeScenario(t, dir, "ant.properties"))
	o.statusLog = filepath.Join(dir, "status.log")

	var first, second bytes.Buffer
	require.NoError(t, runSimulations(o, &first))
	require.NoError(t, runSimulations(o, &second))

	assert.Equal(t, first.String(), second.String())
}

func TestRunSimulations_AntConfigFlag_OverridesScenario(t *testing.T) {
	// GIVEN a scenario without ant_config
	dir := t.TempDir()
	o := baseOptions(writeScenario(t, dir, ""))
	o.statusLog = filepath.Join(dir, "status.log")

	// WHEN no --ant-config is given THEN the ant run is refused
	var out bytes.Buffer
	err := runSimulations(o, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ant configuration")

	// WHEN --ant-config points at the properties file THEN it runs
	o.antConfigPath = filepath.Join(dir, "ant.properties")
	require.NoError(t, runSimulations(o, &out))
	assert.Contains(t, out.String(), "(Ant-Autoscale)")
}

func TestRunSimulations_TraceAndMetrics(t *testing.T) {
	dir := t.TempDir()
	o := baseOptions(writeScenario(t, dir, "ant.properties"))
	o.statusLog = filepath.Join(dir, "status.log")
	o.traceLevel = "ticks"
	o.metricsOut = filepath.Join(dir, "antscale.prom")

	var out bytes.Buffer
	require.NoError(t, runSimulations(o, &out))

	assert.Contains(t, out.String(), "=== Decision Trace Summary ===")
	// 2700 s horizon at a 4 s refresh interval
	assert.Contains(t, out.String(), "Ticks                : 675")

	data, err := os.ReadFile(o.metricsOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "antscale_ticks_total 675")
	assert.Contains(t, string(data), "antscale_pool_servers")
}

func TestRunSimulations_InvalidOptions(t *testing.T) {
	dir := t.TempDir()
	scenario := writeScenario(t, dir, "ant.properties")

	tests := []struct {
		name   string
		mutate func(o *runOptions)
		want   string
	}{
		{"unknown policy", func(o *runOptions) { o.policy = "random" }, "unknown policy"},
		{"unknown trace level", func(o *runOptions) { o.traceLevel = "verbose" }, "unknown trace level"},
		{"missing scenario flag", func(o *runOptions) { o.scenarioPath = "" }, "--scenario is required"},
		{"missing scenario file", func(o *runOptions) { o.scenarioPath = filepath.Join(dir, "nope.yaml") }, "reading scenario"},
		{"unknown optimizer", func(o *runOptions) { o.optimizer = "simplex" }, "optimizer"},
		{"unknown hop order", func(o *runOptions) { o.hopOrder = "sideways" }, "hop"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := baseOptions(scenario)
			o.statusLog = filepath.Join(dir, "status.log")
			tc.mutate(&o)
			err := runSimulations(o, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestOpenStatusLog(t *testing.T) {
	dir := t.TempDir()

	logger, closeFn, err := openStatusLog(filepath.Join(dir, "run.log"), "ant", true)
	require.NoError(t, err)
	logger.Info("hello")
	closeFn()

	data, err := os.ReadFile(filepath.Join(dir, "run-ant.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")

	_, _, err = openStatusLog(filepath.Join(dir, "missing", "run.log"), "ant", false)
	assert.Error(t, err)
}

func TestResolveSeeds(t *testing.T) {
	tests := []struct {
		name         string
		o            runOptions
		wantWorkload int64 // -1: drawn from the clock
		wantColony   *int64
	}{
		{"scenario seed", runOptions{}, 7, ptr(7)},
		{"seed flag overrides", runOptions{seed: 3, seedSet: true}, 3, ptr(3)},
		{"colony seed flag", runOptions{seed: 3, seedSet: true, colonySeed: 11, colonySeedSet: true}, 3, ptr(11)},
		{"unseeded", runOptions{seed: unseeded, seedSet: true}, -1, nil},
		{"unseeded workload, pinned colony", runOptions{seed: unseeded, seedSet: true, colonySeed: 5, colonySeedSet: true}, -1, ptr(5)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := &fleet.Scenario{Seed: 7}
			got := resolveSeeds(sc, tc.o)
			if tc.wantWorkload == -1 {
				assert.NotEqual(t, int64(7), sc.Seed)
			} else {
				assert.Equal(t, tc.wantWorkload, sc.Seed)
			}
			assert.Equal(t, tc.wantColony, got)
		})
	}
}

func TestRunSimulations_Unseeded(t *testing.T) {
	// GIVEN --seed -1
	dir := t.TempDir()
	o := baseOptions(writeScenario(t, dir, "ant.properties"))
	o.statusLog = filepath.Join(dir, "status.log")
	o.seed, o.seedSet = unseeded, true

	// WHEN the ant policy runs THEN the clock-seeded run completes
	var out bytes.Buffer
	require.NoError(t, runSimulations(o, &out))
	assert.Contains(t, out.String(), "(Ant-Autoscale)")
}

func ptr(v int64) *int64 { return &v }
