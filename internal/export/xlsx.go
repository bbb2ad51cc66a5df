package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/christopherklint97/mybtp/internal/format"
	"github.com/christopherklint97/mybtp/internal/planning"
)

const sheetName = "Planning"

// WriteXLSX lays the grid out as one sheet: a line per row with its totals,
// then a line per sub-row with the slot hours of each day.
func WriteXLSX(w io.Writer, g planning.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	primary, secondary := "Employé", "Chantier"
	if g.View == planning.Sites {
		primary, secondary = "Chantier", "Employé"
	}
	header := []any{primary, secondary}
	for _, d := range g.Days {
		header = append(header, format.DayHeader(d.Time))
	}
	header = append(header, "Heures", "Coût")

	line := 1
	if err := setRow(f, line, header); err != nil {
		return err
	}
	lastCol := len(header)
	if err := styleRow(f, line, lastCol, bold); err != nil {
		return err
	}

	for _, row := range g.Rows {
		line++
		values := make([]any, lastCol)
		values[0] = row.Label
		values[lastCol-2] = row.Hours.InexactFloat64()
		values[lastCol-1] = row.Cost.InexactFloat64()
		if err := setRow(f, line, values); err != nil {
			return err
		}
		if err := styleRow(f, line, lastCol, bold); err != nil {
			return err
		}

		for _, sub := range row.SubRows {
			line++
			values := make([]any, lastCol)
			values[1] = sub.Label
			for i, cell := range sub.Cells {
				if cell.Empty() {
					continue
				}
				values[2+i] = format.Time(cell.Slot.StartHour) + "-" + format.Time(cell.Slot.EndHour)
			}
			values[lastCol-2] = sub.Hours.InexactFloat64()
			values[lastCol-1] = sub.Cost.InexactFloat64()
			if err := setRow(f, line, values); err != nil {
				return err
			}
		}
	}

	line++
	totals := make([]any, lastCol)
	totals[0] = "Total"
	totals[lastCol-2] = g.Hours.InexactFloat64()
	totals[lastCol-1] = g.Cost.InexactFloat64()
	if err := setRow(f, line, totals); err != nil {
		return err
	}
	if err := styleRow(f, line, lastCol, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(sheetName, "A", "B", 24); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, line int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", line, err)
	}
	return nil
}

func styleRow(f *excelize.File, line, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, line)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, first, last, style)
}
