package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Barcodes"

// WriteXLSX writes the same table as WriteCSV as an Excel workbook.
func WriteXLSX(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	write := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(xlsxSheet, cell, v)
	}

	for i, h := range csvHeader {
		if err := write(i+1, 1, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r, row := range rows(entries) {
		for c, v := range row {
			if err := write(c+1, r+2, v); err != nil {
				return fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}

	_ = f.SetColWidth(xlsxSheet, "A", "B", 32)
	_ = f.SetColWidth(xlsxSheet, "C", "C", 40)
	_ = f.SetColWidth(xlsxSheet, "G", "G", 40)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
