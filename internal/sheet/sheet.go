// Package sheet implements the reactive core's top-level surface: a sparse
// grid of cells addressed by position, the forward/back reference graph
// that keeps their values coherent, and the structural edits (row/column
// insert and delete) that rewrite formulas in place.
package sheet

import (
	"io"
	"strings"

	"github.com/jazkii/black-spreadsheet/internal/cell"
	"github.com/jazkii/black-spreadsheet/internal/formula"
	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/value"
)

// Sheet is a sparse, jagged grid: only touched positions occupy an entry,
// keyed directly by Position rather than by nested row/column slices, the
// same tradeoff the reference terminal grid makes with its own map-backed
// storage.
type Sheet struct {
	cells map[position.Position]*cell.Cell
}

// New returns an empty sheet.
func New() *Sheet {
	return &Sheet{cells: make(map[position.Position]*cell.Cell)}
}

// ValidatePosition reports an InvalidPositionError if pos falls outside
// [0, MaxRows) x [0, MaxCols).
func (s *Sheet) ValidatePosition(pos position.Position) error {
	if !pos.IsValid() {
		return &value.InvalidPositionError{Detail: pos.ToString()}
	}
	return nil
}

// GetCell returns the cell at pos, or nil if the position is untouched. It
// fails with InvalidPosition if pos itself is out of bounds.
func (s *Sheet) GetCell(pos position.Position) (*cell.Cell, error) {
	if err := s.ValidatePosition(pos); err != nil {
		return nil, err
	}
	return s.cells[pos], nil
}

// CellValue implements exprtree.CellLookup for formula evaluation.
func (s *Sheet) CellValue(pos position.Position) (value.Value, bool) {
	c, ok := s.cells[pos]
	if !ok {
		return value.Value{}, false
	}
	return c.GetValue(s), true
}

// ReferencedCellsAt implements cell.ReferenceGraph for circular-dependency
// detection.
func (s *Sheet) ReferencedCellsAt(pos position.Position) []position.Position {
	c, ok := s.cells[pos]
	if !ok {
		return nil
	}
	return c.GetReferencedCells()
}

func (s *Sheet) ensureCell(pos position.Position) *cell.Cell {
	c, ok := s.cells[pos]
	if !ok {
		c = cell.New()
		s.cells[pos] = c
	}
	return c
}

// GetText returns the raw text (or "=formula" spelling) at pos.
func (s *Sheet) GetText(pos position.Position) (string, error) {
	if err := s.ValidatePosition(pos); err != nil {
		return "", err
	}
	c, ok := s.cells[pos]
	if !ok {
		return "", nil
	}
	return c.GetText(), nil
}

// GetValue returns the evaluated value at pos. An untouched position
// evaluates to Number(0), matching the coercion a formula reference to the
// same empty position would see.
func (s *Sheet) GetValue(pos position.Position) (value.Value, error) {
	if err := s.ValidatePosition(pos); err != nil {
		return value.Value{}, err
	}
	c, ok := s.cells[pos]
	if !ok {
		return value.Number(0), nil
	}
	return c.GetValue(s), nil
}

// SetCell parses text and installs it at pos. An empty string clears the
// cell. Text beginning with the formula sign (and not the escape sign) is
// parsed as a formula; a syntax error or a circular dependency is returned
// without mutating the sheet.
func (s *Sheet) SetCell(pos position.Position, text string) error {
	if err := s.ValidatePosition(pos); err != nil {
		return err
	}
	if existing, ok := s.cells[pos]; ok && existing.GetText() == text {
		return nil
	}
	if text == "" {
		return s.ClearCell(pos)
	}

	// The escape sign takes precedence over the formula sign: text starting
	// with it is always literal, even if the next character looks like a
	// formula. GetValue strips the escape sign later; SetCell keeps it raw
	// so GetText can still show it.
	var newFormula *formula.Formula
	if text[0] != cell.EscapeSign && text[0] == cell.FormulaSign {
		f, err := formula.Parse(text[1:])
		if err != nil {
			return err
		}
		newFormula = f
	}

	if newFormula != nil {
		refs := newFormula.GetReferencedCells()
		existing, existed := s.cells[pos]
		hasIncoming := existed && existing.HasIncomingRefs()
		if cell.CheckForCircularDependency(s, pos, hasIncoming, refs) {
			return &value.CircularDependencyError{Detail: pos.ToString()}
		}
	}

	if old, existed := s.cells[pos]; existed && old.IsFormula() {
		for _, r := range old.GetReferencedCells() {
			if target, ok := s.cells[r]; ok {
				target.RemoveIncomingRef(pos)
			}
		}
	}

	target := s.ensureCell(pos)
	if newFormula != nil {
		target.SetFormula(newFormula)
		for _, r := range newFormula.GetReferencedCells() {
			s.ensureCell(r).AddIncomingRef(pos)
		}
	} else {
		target.SetText(text)
	}

	cell.CascadeInvalidate(s, pos)
	return nil
}

// ClearCell empties the cell at pos. If nothing referenced it, its storage
// entry is dropped entirely; otherwise it's kept alive, blank, since
// dependents still need to look it up.
func (s *Sheet) ClearCell(pos position.Position) error {
	if err := s.ValidatePosition(pos); err != nil {
		return err
	}
	old, existed := s.cells[pos]
	if !existed {
		return nil
	}
	if old.IsFormula() {
		for _, r := range old.GetReferencedCells() {
			if target, ok := s.cells[r]; ok {
				target.RemoveIncomingRef(pos)
			}
		}
	}
	old.Clear()
	cell.CascadeInvalidate(s, pos)
	if old.Empty() && !old.HasIncomingRefs() {
		delete(s.cells, pos)
	}
	return nil
}

// GetPrintableSize returns the smallest rectangle, anchored at (0,0),
// covering every occupied position.
func (s *Sheet) GetPrintableSize() position.Size {
	rows, cols := 0, 0
	for pos := range s.cells {
		if pos.Row+1 > rows {
			rows = pos.Row + 1
		}
		if pos.Col+1 > cols {
			cols = pos.Col + 1
		}
	}
	return position.Size{Rows: rows, Cols: cols}
}

// PrintValues writes the sheet's evaluated values, tab-separated within a
// row and newline-terminated, over the printable rectangle.
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *cell.Cell) string { return c.GetValue(s).String() })
}

// PrintTexts writes the sheet's raw cell text (formulas spelled with their
// leading '='), tab-separated within a row and newline-terminated.
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, func(c *cell.Cell) string { return c.GetText() })
}

func (s *Sheet) print(w io.Writer, render func(*cell.Cell) string) error {
	size := s.GetPrintableSize()
	for r := 0; r < size.Rows; r++ {
		cellsInRow := make([]string, size.Cols)
		for c := 0; c < size.Cols; c++ {
			if cl, ok := s.cells[position.Position{Row: r, Col: c}]; ok {
				cellsInRow[c] = render(cl)
			}
		}
		if _, err := io.WriteString(w, strings.Join(cellsInRow, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// InsertRows inserts count blank rows before row before, shifting every
// cell at or below it down and rewriting every formula's row references.
// When before falls past every occupied row, nothing actually shifts; the
// candidate size is still before+count, since that's how far the table
// would have to grow to hold a write at before.
func (s *Sheet) InsertRows(before, count int) error {
	size := s.GetPrintableSize()
	if before < 0 || count <= 0 {
		return &value.InvalidPositionError{Detail: "insert-rows: before/count out of range"}
	}
	insertInTheMiddle := size.Rows > before
	newRows := before + count
	if insertInTheMiddle {
		newRows = size.Rows + count
	}
	if newRows > position.MaxRows {
		return &value.TableTooBigError{Detail: "insert-rows would exceed the row limit"}
	}
	if !insertInTheMiddle {
		return nil
	}
	s.unregisterAllOutgoing()
	newCells := make(map[position.Position]*cell.Cell, len(s.cells))
	for pos, c := range s.cells {
		if c.IsFormula() {
			c.HandleInsertedRows(before, count)
		}
		newPos := pos
		if pos.Row >= before {
			newPos = position.Position{Row: pos.Row + count, Col: pos.Col}
		}
		newCells[newPos] = c
	}
	s.cells = newCells
	s.reregisterAllOutgoing()
	return nil
}

// InsertCols is the column analogue of InsertRows.
func (s *Sheet) InsertCols(before, count int) error {
	size := s.GetPrintableSize()
	if before < 0 || count <= 0 {
		return &value.InvalidPositionError{Detail: "insert-cols: before/count out of range"}
	}
	insertInTheMiddle := size.Cols > before
	newCols := before + count
	if insertInTheMiddle {
		newCols = size.Cols + count
	}
	if newCols > position.MaxCols {
		return &value.TableTooBigError{Detail: "insert-cols would exceed the column limit"}
	}
	if !insertInTheMiddle {
		return nil
	}
	s.unregisterAllOutgoing()
	newCells := make(map[position.Position]*cell.Cell, len(s.cells))
	for pos, c := range s.cells {
		if c.IsFormula() {
			c.HandleInsertedCols(before, count)
		}
		newPos := pos
		if pos.Col >= before {
			newPos = position.Position{Row: pos.Row, Col: pos.Col + count}
		}
		newCells[newPos] = c
	}
	s.cells = newCells
	s.reregisterAllOutgoing()
	return nil
}

// DeleteRows removes count rows starting at first, shifting later rows up
// and turning any reference into the deleted range into #REF!.
func (s *Sheet) DeleteRows(first, count int) error {
	if first < 0 || count <= 0 || first >= position.MaxRows {
		return &value.InvalidPositionError{Detail: "delete-rows: first/count out of range"}
	}
	s.unregisterAllOutgoing()
	newCells := make(map[position.Position]*cell.Cell, len(s.cells))
	for pos, c := range s.cells {
		if pos.Row >= first && pos.Row < first+count {
			continue
		}
		if c.IsFormula() {
			c.HandleDeletedRows(first, count)
		}
		newPos := pos
		if pos.Row >= first+count {
			newPos = position.Position{Row: pos.Row - count, Col: pos.Col}
		}
		newCells[newPos] = c
	}
	s.cells = newCells
	s.reregisterAllOutgoing()
	s.pruneEmpty()
	return nil
}

// DeleteCols is the column analogue of DeleteRows.
func (s *Sheet) DeleteCols(first, count int) error {
	if first < 0 || count <= 0 || first >= position.MaxCols {
		return &value.InvalidPositionError{Detail: "delete-cols: first/count out of range"}
	}
	s.unregisterAllOutgoing()
	newCells := make(map[position.Position]*cell.Cell, len(s.cells))
	for pos, c := range s.cells {
		if pos.Col >= first && pos.Col < first+count {
			continue
		}
		if c.IsFormula() {
			c.HandleDeletedCols(first, count)
		}
		newPos := pos
		if pos.Col >= first+count {
			newPos = position.Position{Row: pos.Row, Col: pos.Col - count}
		}
		newCells[newPos] = c
	}
	s.cells = newCells
	s.reregisterAllOutgoing()
	s.pruneEmpty()
	return nil
}

// unregisterAllOutgoing drops every formula's back-edge registration on its
// targets, ahead of a structural edit that will move positions and rewrite
// formulas. reregisterAllOutgoing rebuilds them afterward from the (now
// current) positions and (possibly rewritten) reference sets. Rebuilding
// wholesale rather than diffing keeps the edit logic itself a plain
// position-arithmetic pass, at the cost of a full sheet scan per edit.
func (s *Sheet) unregisterAllOutgoing() {
	for pos, c := range s.cells {
		if !c.IsFormula() {
			continue
		}
		for _, r := range c.GetReferencedCells() {
			if target, ok := s.cells[r]; ok {
				target.RemoveIncomingRef(pos)
			}
		}
	}
}

func (s *Sheet) reregisterAllOutgoing() {
	for pos, c := range s.cells {
		if !c.IsFormula() {
			continue
		}
		for _, r := range c.GetReferencedCells() {
			s.ensureCell(r).AddIncomingRef(pos)
		}
	}
}

func (s *Sheet) pruneEmpty() {
	for pos, c := range s.cells {
		if c.Empty() && !c.HasIncomingRefs() {
			delete(s.cells, pos)
		}
	}
}
