package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/selforg/antscale/logparse"
)

// statsCmd aggregates parsed CSV series into per-hour-of-day statistics
var statsCmd = &cobra.Command{
	Use:   "stats <series.csv>...",
	Short: "Print per-hour-of-day averages of CPU, sessions and servers from parsed CSV",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, path := range args {
			if err := hourlyStatsForFile(path, os.Stdout); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	},
}

func hourlyStatsForFile(path string, w io.Writer) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening series: %w", err)
	}
	defer in.Close()

	rows, err := logparse.ReadCSV(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	fmt.Fprintf(w, "# %s\n", path)
	return logparse.WriteHourlyStats(w, logparse.HourlyStats(rows))
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
