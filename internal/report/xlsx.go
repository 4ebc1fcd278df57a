package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/chethana369/Auto-resume-checker/internal/scoring"
)

// SheetName is the worksheet holding the results table.
const SheetName = "Results"

var columnWidths = []float64{40, 12, 16, 60}

// WriteXLSX writes rows as a single-sheet workbook with a styled header.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	relevantStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("relevant style: %w", err)
	}
	notRelevantStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("not relevant style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if err := writeSheetRow(f, 1, Headers); err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		rowNum := i + 2
		if err := writeSheetRow(f, rowNum, row.Values()); err != nil {
			return err
		}
		style := notRelevantStyle
		if row.Verdict == scoring.Relevant.String() {
			style = relevantStyle
		}
		cell, _ := excelize.CoordinatesToCellName(3, rowNum)
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("style verdict: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads the results sheet of a workbook produced by WriteXLSX.
func ReadXLSX(r io.Reader) ([]string, []Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	records, err := f.GetRows(SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("xlsx: missing header row")
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		// GetRows trims trailing empty cells.
		rows = append(rows, rowFromValues(record))
	}
	return records[0], rows, nil
}

func writeSheetRow(f *excelize.File, rowNum int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, value); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}
