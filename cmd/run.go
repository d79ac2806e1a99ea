package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/selforg/antscale/colony"
	"github.com/selforg/antscale/colony/trace"
	"github.com/selforg/antscale/fleet"
	"github.com/selforg/antscale/metrics"
)

// runOptions holds the run subcommand's flags.
type runOptions struct {
	scenarioPath  string
	antConfigPath string // overrides the scenario's ant_config
	policy        string
	optimizer     string
	seed          int64
	seedSet       bool // --seed given explicitly; overrides the scenario seed
	colonySeed    int64
	colonySeedSet bool
	hopOrder      string
	levelCeiling  float64
	traceLevel    string
	statusLog     string // status log path; "" writes to stderr
	metricsOut    string
}

var runFlags runOptions

// runCmd executes the scenario with one or both autoscaling policies
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a scenario under the ant policy, the threshold baseline, or both",
	Run: func(cmd *cobra.Command, args []string) {
		runFlags.seedSet = cmd.Flags().Changed("seed")
		runFlags.colonySeedSet = cmd.Flags().Changed("colony-seed")
		startTime := time.Now()
		if err := runSimulations(runFlags, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

func runSimulations(o runOptions, out io.Writer) error {
	if !fleet.ValidPolicies[o.policy] {
		return fmt.Errorf("unknown policy %q; valid: ant, threshold, both", o.policy)
	}
	if !trace.IsValidTraceLevel(o.traceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, decisions, ticks", o.traceLevel)
	}
	if o.scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}
	sc, err := fleet.LoadScenario(o.scenarioPath)
	if err != nil {
		return err
	}
	colonySeed := resolveSeeds(sc, o)
	logrus.Infof("Starting %s run: servers=%d max=%d days=%g seed=%d",
		o.policy, sc.Cloud.InitialServers, sc.Cloud.MaxServers, sc.Cloud.SimDays, sc.Seed)

	if o.policy == fleet.PolicyThreshold || o.policy == fleet.PolicyBoth {
		if err := runThreshold(sc, o, out); err != nil {
			return err
		}
	}
	if o.policy == fleet.PolicyAnt || o.policy == fleet.PolicyBoth {
		if err := runAnt(sc, colonySeed, o, out); err != nil {
			return err
		}
	}
	return nil
}

// unseeded, passed as --seed, draws the workload seed from the clock and leaves the
// colony unseeded.
const unseeded = -1

// resolveSeeds applies --seed to the scenario and returns the colony seed.
// A nil colony seed makes the controller draw a clock-derived one.
func resolveSeeds(sc *fleet.Scenario, o runOptions) *int64 {
	switch {
	case o.seedSet && o.seed == unseeded:
		sc.Seed = time.Now().UnixNano()
		logrus.Infof("Unseeded run: drew workload seed %d", sc.Seed)
	case o.seedSet:
		sc.Seed = o.seed
	}
	if o.colonySeedSet {
		seed := o.colonySeed
		return &seed
	}
	if o.seedSet && o.seed == unseeded {
		return nil
	}
	seed := sc.Seed
	return &seed
}

func runThreshold(sc *fleet.Scenario, o runOptions, out io.Writer) error {
	policy, err := fleet.NewThresholdPolicy(sc.Threshold.ScaleUp, sc.Threshold.ScaleDown, sc.Threshold.Cooldown)
	if err != nil {
		return err
	}
	status, closeStatus, err := openStatusLog(o.statusLog, "threshold", o.policy == fleet.PolicyBoth)
	if err != nil {
		return err
	}
	defer closeStatus()

	fleet.NewSimulator(sc, policy, status).Run().Print(out)
	return nil
}

func runAnt(sc *fleet.Scenario, colonySeed *int64, o runOptions, out io.Writer) error {
	cfgPath := o.antConfigPath
	if cfgPath == "" {
		cfgPath = sc.AntConfig
	}
	if cfgPath == "" {
		return fmt.Errorf("no ant configuration: set ant_config in the scenario or pass --ant-config")
	}
	cfg, err := colony.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	opts := colony.Options{
		Seed:               colonySeed,
		HopOrder:           colony.HopOrder(o.hopOrder),
		LevelCeilingFactor: o.levelCeiling,
	}
	policy, err := fleet.NewAntPolicy(cfg, opts, o.optimizer)
	if err != nil {
		return err
	}

	var decisions *trace.DecisionTrace
	if trace.TraceLevel(o.traceLevel) != trace.TraceLevelNone {
		decisions = trace.NewDecisionTrace(trace.TraceLevel(o.traceLevel))
		policy.SetDecisionTrace(decisions)
	}
	var reg *prometheus.Registry
	if o.metricsOut != "" {
		reg = prometheus.NewRegistry()
		exporter, err := metrics.NewExporter(reg)
		if err != nil {
			return err
		}
		policy.OnTick(exporter.Observe)
	}

	status, closeStatus, err := openStatusLog(o.statusLog, "ant", o.policy == fleet.PolicyBoth)
	if err != nil {
		return err
	}
	defer closeStatus()

	fleet.NewSimulator(sc, policy, status).Run().Print(out)
	logrus.Infof("Ant run replayable with --seed %d --colony-seed %d", sc.Seed, policy.Seed())
	if decisions != nil {
		printTraceSummary(out, trace.Summarize(decisions))
	}
	if reg != nil {
		if err := metrics.WriteTextfile(o.metricsOut, reg); err != nil {
			return err
		}
		logrus.Infof("Metrics written to %s", o.metricsOut)
	}
	return nil
}

// openStatusLog returns the logger receiving simulator status lines. When
// both policies run into one path, each gets "<base>-<kind><ext>".
func openStatusLog(path, kind string, suffix bool) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if path == "" {
		logger.SetOutput(os.Stderr)
		return logger, func() {}, nil
	}
	if suffix {
		ext := filepath.Ext(path)
		path = strings.TrimSuffix(path, ext) + "-" + kind + ext
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating status log: %w", err)
	}
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return logger, func() { _ = f.Close() }, nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace Summary ===")
	fmt.Fprintf(w, "Ticks                : %d\n", s.TotalTicks)
	fmt.Fprintf(w, "Initializations      : %d\n", s.Initializations)
	fmt.Fprintf(w, "Scale-Up Ticks       : %d (%d servers)\n", s.ScaleUpTicks, s.ServersAdded)
	fmt.Fprintf(w, "Scale-Down Ticks     : %d (%d servers)\n", s.ScaleDownTicks, s.ServersRemoved)
	fmt.Fprintf(w, "No-Action Ticks      : %d\n", s.NoActionTicks)
	fmt.Fprintf(w, "Mean Pheromone Level : %.3f\n", s.MeanLevel)
}

func init() {
	runCmd.Flags().StringVar(&runFlags.scenarioPath, "scenario", "", "Scenario YAML file")
	runCmd.Flags().StringVar(&runFlags.antConfigPath, "ant-config", "", "Ant system config (.properties, .yaml or .json); overrides the scenario's ant_config")
	runCmd.Flags().StringVar(&runFlags.policy, "policy", fleet.PolicyBoth, "Autoscaling policy: ant, threshold, both")
	runCmd.Flags().StringVar(&runFlags.optimizer, "optimizer", colony.DefaultOptimizerKey, "Ant scale-magnitude optimizer: house-hunt, fixed-step")
	runCmd.Flags().Int64Var(&runFlags.seed, "seed", 42, "Seed for workload and colony randomness (overrides the scenario seed); -1 draws both from the clock")
	runCmd.Flags().Int64Var(&runFlags.colonySeed, "colony-seed", 0, "Seed for colony randomness only (default: the workload seed)")
	runCmd.Flags().StringVar(&runFlags.hopOrder, "hop-order", string(colony.HopOrderAscending), "Next-hop candidate order: ascending, descending")
	runCmd.Flags().Float64Var(&runFlags.levelCeiling, "level-ceiling", colony.DefaultLevelCeilingFactor, "Pheromone ceiling as a multiple of maxMorphLevel")
	runCmd.Flags().StringVar(&runFlags.traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level: none, decisions, ticks")
	runCmd.Flags().StringVar(&runFlags.statusLog, "log-file", "", "Status log destination (default stderr); with --policy both, -ant/-threshold suffixes are added")
	runCmd.Flags().StringVar(&runFlags.metricsOut, "metrics-out", "", "Write ant controller metrics in Prometheus text format to this file")

	rootCmd.AddCommand(runCmd)
}
