package xlsx

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsplit/internal/table"
)

// ErrNoSheets is returned when asked to encode a workbook without sheets.
var ErrNoSheets = errors.New("workbook has no sheets to write")

// ErrDuplicateSheet is returned when two sheets would share one worksheet.
// Sheet names are matched case-insensitively.
var ErrDuplicateSheet = errors.New("duplicate sheet name")

// Encode builds a workbook with one worksheet per sheet, in order, and
// returns its bytes. Row 1 of each worksheet is the sheet's column header.
func Encode(sheets []table.Sheet) ([]byte, error) {
	f, err := build(sheets)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes sheets and saves the workbook at path.
func WriteFile(sheets []table.Sheet, path string) error {
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

func build(sheets []table.Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	f := excelize.NewFile()
	for i, sheet := range sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			// Rename default sheet
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				f.Close()
				return nil, fmt.Errorf("could not rename sheet to %q: %w", name, err)
			}
		} else {
			idx, err := f.GetSheetIndex(name)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("could not create sheet %q: %w", name, err)
			}
			if idx != -1 {
				f.Close()
				return nil, fmt.Errorf("could not create sheet %q: %w", name, ErrDuplicateSheet)
			}
			if _, err := f.NewSheet(name); err != nil {
				f.Close()
				return nil, fmt.Errorf("could not create sheet %q: %w", name, err)
			}
		}

		if err := writeSheet(f, name, sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, name string, sheet table.Sheet) error {
	for c, col := range sheet.Columns {
		if err := setCell(f, name, c+1, 1, col); err != nil {
			return err
		}
	}

	for r, row := range sheet.Rows {
		for c, col := range sheet.Columns {
			v := row.Get(col)
			if v == nil {
				continue
			}
			if err := setCell(f, name, c+1, r+2, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v table.Value) error {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell coordinates: %w", err)
	}
	if err := f.SetCellValue(sheet, cellName, v); err != nil {
		return fmt.Errorf("could not set cell %s!%s: %w", sheet, cellName, err)
	}
	return nil
}
