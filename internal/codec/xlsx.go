package codec

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bilancio/internal/core"
)

const defaultSheet = "Sheet1"

// WriteXLSX writes records as a workbook with one sheet named after the
// month, using the same columns as the CSV export.
func WriteXLSX(w io.Writer, month string, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := month
	if sheet == "" || sheet == defaultSheet {
		sheet = "Records"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet(defaultSheet)

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell for row %d: %w", i+2, err)
		}
		row := []any{r.ID, string(r.Kind), r.Title, r.Amount.InexactFloat64(), r.Category, r.Method, r.Date, r.Note}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
