package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// WriteCSV writes the header row followed by rows. No index column is written.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads a file produced by WriteCSV back into its headers and rows.
func ParseCSV(r io.Reader) ([]string, []Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Headers)

	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("csv: missing header row")
		}
		return nil, nil, fmt.Errorf("csv header: %w", err)
	}

	rows := []Row{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv row: %w", err)
		}
		rows = append(rows, rowFromValues(record))
	}
	return headers, rows, nil
}
