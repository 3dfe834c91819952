// Package csvio persists a Sheet's raw cell text to and from CSV, the same
// storage format the reference terminal grid used for its flat cell map.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/sheet"
)

// Save writes every occupied cell's text (formulas spelled with their
// leading '=') to filename as CSV, row-major over the sheet's printable
// rectangle.
func Save(s *sheet.Sheet, filename string) error {
	size := s.GetPrintableSize()
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for r := 0; r < size.Rows; r++ {
		record := make([]string, size.Cols)
		for c := 0; c < size.Cols; c++ {
			text, err := s.GetText(position.Position{Row: r, Col: c})
			if err != nil {
				return err
			}
			record[c] = text
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csvio: writing row %d: %w", r, err)
		}
	}
	w.Flush()
	return w.Error()
}

// Load reads filename as CSV and applies every non-empty field to s via
// SetCell, so formula text is parsed and the reference graph is rebuilt as
// it loads rather than restored verbatim.
func Load(s *sheet.Sheet, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("csvio: reading %s: %w", filename, err)
	}

	for rowIdx, row := range records {
		for colIdx, field := range row {
			if field == "" {
				continue
			}
			pos := position.Position{Row: rowIdx, Col: colIdx}
			if err := s.SetCell(pos, field); err != nil {
				return fmt.Errorf("csvio: %s at %s: %w", filename, pos.ToString(), err)
			}
		}
	}
	return nil
}
