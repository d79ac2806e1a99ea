package logparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

const secondsPerHour = 3600.0

// HourStat holds the averages of one hour of status rows.
type HourStat struct {
	Hour       int
	Samples    int
	AverageCPU float64
	Sessions   float64
	Servers    float64
}

// HourlyStats averages rows per simulated hour (time / 3600). Hours between
// the first and last row that have no samples are reported with zeros.
func HourlyStats(rows []Row) []HourStat {
	if len(rows) == 0 {
		return nil
	}
	type bucket struct{ cpu, sessions, servers []float64 }
	maxHour := 0
	buckets := make(map[int]*bucket)
	for _, r := range rows {
		h := int(r.Time / secondsPerHour)
		if h < 0 {
			h = 0
		}
		if h > maxHour {
			maxHour = h
		}
		b, ok := buckets[h]
		if !ok {
			b = &bucket{}
			buckets[h] = b
		}
		b.cpu = append(b.cpu, r.AverageCPU)
		b.sessions = append(b.sessions, float64(r.Sessions))
		b.servers = append(b.servers, float64(r.Servers))
	}

	out := make([]HourStat, 0, maxHour+1)
	for h := 0; h <= maxHour; h++ {
		hs := HourStat{Hour: h}
		if b, ok := buckets[h]; ok {
			hs.Samples = len(b.cpu)
			hs.AverageCPU = stat.Mean(b.cpu, nil)
			hs.Sessions = stat.Mean(b.sessions, nil)
			hs.Servers = stat.Mean(b.servers, nil)
		}
		out = append(out, hs)
	}
	return out
}

// WriteHourlyStats writes one CSV line per hour.
func WriteHourlyStats(w io.Writer, stats []HourStat) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Hour", "AverageCPU", "Sessions", "Servers"}); err != nil {
		return fmt.Errorf("writing stats header: %w", err)
	}
	for _, s := range stats {
		record := []string{
			strconv.Itoa(s.Hour),
			strconv.FormatFloat(s.AverageCPU, 'f', 4, 64),
			strconv.FormatFloat(s.Sessions, 'f', 2, 64),
			strconv.FormatFloat(s.Servers, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing stats row for hour %d: %w", s.Hour, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
