package handy

import (
	"log"

	"github.com/xuri/excelize/v2"

	"dashkit/internal/errors"
)

const defaultSheet = "Sheet1"

// ReadExcel loads one sheet into a frame; the first row is the header. An empty sheet
// name reads the first sheet.
func ReadExcel(path, sheet string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open Excel file %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	if len(rows) == 0 {
		return NewFrame(), nil
	}

	frame := NewFrame(rows[0]...)
	width := len(rows[0])
	for _, raw := range rows[1:] {
		row := make([]any, width)
		// excelize trims trailing empty cells, so short rows are padded with nil
		for i := 0; i < width && i < len(raw); i++ {
			row[i] = parseCell(raw[i])
		}
		frame.Rows = append(frame.Rows, row)
	}

	log.Printf("[ReadExcel] Loaded %d rows x %d columns from %s!%s", frame.Len(), width, path, sheet)
	return frame, nil
}

// WriteExcel saves the frame to a new workbook with a header row
func WriteExcel(frame *Frame, path, sheet string) error {
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return errors.Wrapf(err, "failed to name sheet %s", sheet)
		}
	}

	header := make([]any, len(frame.Columns))
	for i, c := range frame.Columns {
		header[i] = c
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range frame.Rows {
		values := append([]any(nil), row...)
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "failed to address row")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "failed to write row %d", row)
	}
	return nil
}
