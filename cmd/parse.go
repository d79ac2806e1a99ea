package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/selforg/antscale/logparse"
)

var parseOutDir string // Output directory for CSV files; "" writes next to each log

// parseCmd converts simulator status logs into CSV time series
var parseCmd = &cobra.Command{
	Use:   "parse <status.log>...",
	Short: "Convert simulator status logs into CSV (Time,Servers,AverageCPU,Sessions,Pheromone)",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, path := range args {
			out, n, err := parseLogFile(path, parseOutDir)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			fmt.Printf("%s: %d rows -> %s\n", path, n, out)
		}
	},
}

// parseLogFile writes <base>.csv for the log at path and returns the output
// path and row count.
func parseLogFile(path, outDir string) (string, int, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening status log: %w", err)
	}
	defer in.Close()

	rows, err := logparse.ParseStatusLog(in)
	if err != nil {
		return "", 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		logrus.Warnf("%s: no status lines found", path)
	}

	dir := filepath.Dir(path)
	if outDir != "" {
		dir = outDir
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(dir, base+".csv")

	out, err := os.Create(outPath)
	if err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := logparse.WriteCSV(out, rows); err != nil {
		_ = out.Close()
		return "", 0, err
	}
	if err := out.Close(); err != nil {
		return "", 0, err
	}
	return outPath, len(rows), nil
}

func init() {
	parseCmd.Flags().StringVar(&parseOutDir, "out-dir", "", "Directory for CSV output (default: alongside each log)")
	rootCmd.AddCommand(parseCmd)
}
