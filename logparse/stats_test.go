package logparse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyStats_AveragesPerHour(t *testing.T) {
	// GIVEN two rows in hour 0, none in hour 1, one in hour 2
	rows := []Row{
		{Time: 4, Servers: 2, AverageCPU: 0.2, Sessions: 10},
		{Time: 3596, Servers: 4, AverageCPU: 0.4, Sessions: 20},
		{Time: 7300, Servers: 1, AverageCPU: 0.9, Sessions: 3},
	}

	// WHEN aggregated
	stats := HourlyStats(rows)

	// THEN every hour up to the last is present
	require.Len(t, stats, 3)
	assert.Equal(t, 2, stats[0].Samples)
	assert.InDelta(t, 0.3, stats[0].AverageCPU, 1e-12)
	assert.Equal(t, 15.0, stats[0].Sessions)
	assert.Equal(t, 3.0, stats[0].Servers)
	assert.Equal(t, HourStat{Hour: 1}, stats[1])
	assert.Equal(t, 2, stats[2].Hour)
	assert.InDelta(t, 0.9, stats[2].AverageCPU, 1e-12)
}

func TestHourlyStats_Empty(t *testing.T) {
	assert.Nil(t, HourlyStats(nil))
}

func TestWriteHourlyStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHourlyStats(&buf, []HourStat{{Hour: 0, Samples: 1, AverageCPU: 0.5, Sessions: 12, Servers: 2}}))
	assert.Equal(t, "Hour,AverageCPU,Sessions,Servers\n0,0.5000,12.00,2.00\n", buf.String())
}
