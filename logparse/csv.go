package logparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Columns is the CSV header written by WriteCSV.
var Columns = []string{"Time", "Servers", "AverageCPU", "Sessions", "Pheromone"}

// WriteCSV writes rows with the Columns header.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, r := range rows {
		record := []string{
			strconv.FormatFloat(r.Time, 'f', -1, 64),
			strconv.Itoa(r.Servers),
			strconv.FormatFloat(r.AverageCPU, 'f', 4, 64),
			strconv.Itoa(r.Sessions),
			strconv.FormatFloat(r.Pheromone, 'f', 4, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV reads rows written by WriteCSV. Policy is left empty.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Columns)

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(record []string) (Row, error) {
	var row Row
	var err error
	if row.Time, err = strconv.ParseFloat(record[0], 64); err != nil {
		return Row{}, fmt.Errorf("time: %w", err)
	}
	if row.Servers, err = strconv.Atoi(record[1]); err != nil {
		return Row{}, fmt.Errorf("servers: %w", err)
	}
	if row.AverageCPU, err = strconv.ParseFloat(record[2], 64); err != nil {
		return Row{}, fmt.Errorf("average cpu: %w", err)
	}
	if row.Sessions, err = strconv.Atoi(record[3]); err != nil {
		return Row{}, fmt.Errorf("sessions: %w", err)
	}
	if row.Pheromone, err = strconv.ParseFloat(record[4], 64); err != nil {
		return Row{}, fmt.Errorf("pheromone: %w", err)
	}
	return row, nil
}
