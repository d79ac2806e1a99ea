package logparse

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const antLine = `level=info msg="1[RUNNING] sessions(3) cpu(0.1500) pheromone(1=4.0000); 2[RUNNING] sessions(5) cpu(0.2500) pheromone(2=6.0000); 3[INITIALISING] sessions(0) cpu(0.0000); " clock=4.000 policy=Ant-Autoscale`

func TestParseLine_AntStatusLine(t *testing.T) {
	row, ok, err := ParseLine(antLine)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "Ant-Autoscale", row.Policy)
	assert.Equal(t, 4.0, row.Time)
	assert.Equal(t, 3, row.Servers)
	assert.InDelta(t, 0.4/3, row.AverageCPU, 1e-9)
	assert.Equal(t, 8, row.Sessions)
	assert.InDelta(t, 5.0, row.Pheromone, 1e-9, "mean over servers that report a level")
}

func TestParseLine_ThresholdLineHasNoPheromone(t *testing.T) {
	line := `level=info msg="1[RUNNING] sessions(2) cpu(0.9000); " clock=3600.000 policy=Simple-Autoscale`
	row, ok, err := ParseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Simple-Autoscale", row.Policy)
	assert.Equal(t, 3600.0, row.Time)
	assert.Equal(t, 0.0, row.Pheromone)
}

func TestParseLine_SkipsOtherLines(t *testing.T) {
	for _, line := range []string{
		"",
		`level=info msg="ant autoscale would add servers: count=2"`,
		`level=warning msg="Ant-Autoscale at t=40: fleet at max servers"`,
	} {
		_, ok, err := ParseLine(line)
		assert.NoError(t, err)
		assert.False(t, ok, line)
	}
}

func TestParseLine_QuotedFields(t *testing.T) {
	line := `time="2026-01-01T00:00:00Z" level=info msg="1[RUNNING] sessions(1) cpu(0.5000); " clock="8.000" policy="Ant-Autoscale"`
	row, ok, err := ParseLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8.0, row.Time)
}

func TestParseStatusLog_FromLogrusOutput(t *testing.T) {
	// GIVEN status lines written through logrus' text formatter
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.Info("starting")
	for _, clock := range []string{"4.000", "8.000"} {
		logger.WithFields(logrus.Fields{"policy": "Ant-Autoscale", "clock": clock}).
			Info("1[RUNNING] sessions(2) cpu(0.2000) pheromone(1=5.0000); ")
	}

	// WHEN parsed
	rows, err := ParseStatusLog(&buf)

	// THEN both status lines come back in order
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4.0, rows[0].Time)
	assert.Equal(t, 8.0, rows[1].Time)
	assert.Equal(t, 1, rows[1].Servers)
	assert.Equal(t, 2, rows[1].Sessions)
}

func TestCSV_WriteThenRead(t *testing.T) {
	rows := []Row{
		{Time: 4, Servers: 2, AverageCPU: 0.25, Sessions: 7, Pheromone: 5.5},
		{Time: 8, Servers: 3, AverageCPU: 0.125, Sessions: 9},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	assert.True(t, strings.HasPrefix(buf.String(), "Time,Servers,AverageCPU,Sessions,Pheromone\n"))
	assert.Contains(t, buf.String(), "4,2,0.2500,7,5.5000\n")

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestReadCSV_RejectsBadRows(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Time,Servers,AverageCPU,Sessions,Pheromone\n4,two,0.1,1,0\n"))
	assert.ErrorContains(t, err, "servers")

	_, err = ReadCSV(strings.NewReader("Time,Servers,AverageCPU,Sessions,Pheromone\n4,2,0.1\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "header")
}
