// Package logparse turns simulator status logs into per-refresh CSV rows and
// hourly averages.
//
// A status line is any log line carrying a policy field ending in
// "-Autoscale" and a clock field, with one entry per server of the form
// "<id>[<STATUS>] sessions(<n>) cpu(<u>) pheromone(<id>=<level>);".
package logparse

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

var (
	policyPattern    = regexp.MustCompile(`\bpolicy="?([A-Za-z]+-Autoscale)"?`)
	clockPattern     = regexp.MustCompile(`\bclock="?(-?\d+(?:\.\d+)?)"?`)
	cpuPattern       = regexp.MustCompile(`\bcpu\((-?\d*\.?\d+)\)`)
	sessionsPattern  = regexp.MustCompile(`\bsessions\((\d+)\)`)
	pheromonePattern = regexp.MustCompile(`\bpheromone\(\d+=(-?\d*\.?\d+)\)`)
)

// Row is one parsed status line.
type Row struct {
	Policy     string
	Time       float64 // simulation clock, seconds
	Servers    int     // number of cpu entries
	AverageCPU float64
	Sessions   int
	Pheromone  float64 // mean over servers that report a level; 0 when none do
}

// ParseLine parses one log line. ok is false for lines that are not status
// lines.
func ParseLine(line string) (row Row, ok bool, err error) {
	policy := policyPattern.FindStringSubmatch(line)
	clock := clockPattern.FindStringSubmatch(line)
	if policy == nil || clock == nil {
		return Row{}, false, nil
	}
	row.Policy = policy[1]
	if row.Time, err = strconv.ParseFloat(clock[1], 64); err != nil {
		return Row{}, false, fmt.Errorf("parsing clock %q: %w", clock[1], err)
	}

	cpus, err := floats(cpuPattern, line)
	if err != nil {
		return Row{}, false, fmt.Errorf("parsing cpu: %w", err)
	}
	row.Servers = len(cpus)
	row.AverageCPU = mean(cpus)

	for _, m := range sessionsPattern.FindAllStringSubmatch(line, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Row{}, false, fmt.Errorf("parsing sessions %q: %w", m[1], err)
		}
		row.Sessions += n
	}

	levels, err := floats(pheromonePattern, line)
	if err != nil {
		return Row{}, false, fmt.Errorf("parsing pheromone: %w", err)
	}
	row.Pheromone = mean(levels)
	return row, true, nil
}

// ParseStatusLog reads a log and returns its status rows in order. Lines
// that are not status lines are skipped.
func ParseStatusLog(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var rows []Row
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		row, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading status log: %w", err)
	}
	return rows, nil
}

func floats(re *regexp.Regexp, line string) ([]float64, error) {
	matches := re.FindAllStringSubmatch(line, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
