// Package cell implements a single spreadsheet cell: either plain text or a
// formula, a cached value, and the sorted list of cells that reference it
// (used both to cascade cache invalidation and to detect circular
// dependencies before a new formula is accepted).
package cell

import (
	"sort"
	"strconv"

	"github.com/jazkii/black-spreadsheet/internal/exprtree"
	"github.com/jazkii/black-spreadsheet/internal/formula"
	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/value"
)

// EscapeSign marks a text cell whose leading character would otherwise look
// like the formula sign; GetText keeps it, GetValue strips it.
const EscapeSign = '\''

// FormulaSign marks text that should be parsed as a formula. The escape
// sign takes precedence over it.
const FormulaSign = '='

// Cell holds either literal text or a formula, plus the positions of cells
// whose formulas reference this one (its incoming edges).
type Cell struct {
	text    string
	formula *formula.Formula

	// incomingRefs is kept sorted so AddIncomingRef/RemoveIncomingRef can
	// use binary search.
	incomingRefs []position.Position
}

// New returns an empty cell.
func New() *Cell {
	return &Cell{}
}

// NewText returns a cell holding literal text (not a formula).
func NewText(text string) *Cell {
	return &Cell{text: text}
}

// NewFormula returns a cell holding a parsed formula.
func NewFormula(f *formula.Formula) *Cell {
	return &Cell{formula: f}
}

// IsFormula reports whether the cell holds a formula rather than literal text.
func (c *Cell) IsFormula() bool { return c.formula != nil }

// Formula returns the cell's formula, or nil if it holds plain text.
func (c *Cell) Formula() *formula.Formula { return c.formula }

// Empty reports whether the cell has no text and no formula. An empty cell
// is still kept alive in storage as long as other cells reference it.
func (c *Cell) Empty() bool { return c.text == "" && c.formula == nil }

// Clear resets the cell to empty without touching its incoming-reference
// list: cells that reference this position must still see it go blank
// rather than disappear.
func (c *Cell) Clear() {
	c.text = ""
	c.formula = nil
}

// SetText replaces the cell's content with literal text, discarding any
// previous formula. The caller is responsible for unregistering the old
// formula's outgoing references first.
func (c *Cell) SetText(text string) {
	c.formula = nil
	c.text = text
}

// SetFormula replaces the cell's content with a formula, discarding any
// previous text. The caller is responsible for unregistering the old
// formula's outgoing references first and registering the new ones after.
func (c *Cell) SetFormula(f *formula.Formula) {
	c.formula = f
	c.text = ""
}

// GetText returns the cell's literal text, or its formula source prefixed
// with '=' if it holds a formula.
func (c *Cell) GetText() string {
	if c.formula != nil {
		return "=" + c.formula.GetExpression()
	}
	return c.text
}

// GetValue evaluates the cell against sheet: a formula cell delegates to its
// Formula, a text cell that parses as a number is numeric, and anything
// else is text (including the empty cell, per the sheet's blank-as-zero
// convention applied only inside formula evaluation, not here).
func (c *Cell) GetValue(sheet exprtree.CellLookup) value.Value {
	if c.formula != nil {
		return c.formula.Evaluate(sheet)
	}
	text := c.text
	if len(text) > 0 && text[0] == EscapeSign {
		text = text[1:]
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil && text != "" {
		return value.Number(n)
	}
	return value.Text(text)
}

// GetReferencedCells returns the positions the cell's formula reads, or nil
// for a text cell.
func (c *Cell) GetReferencedCells() []position.Position {
	if c.formula == nil {
		return nil
	}
	return c.formula.GetReferencedCells()
}

// InvalidateCache drops the cell's own cached value. It does not cascade to
// dependents; callers use CascadeInvalidate for that.
func (c *Cell) InvalidateCache() {
	if c.formula != nil {
		c.formula.InvalidateCache()
	}
}

// HasIncomingRefs reports whether any cell currently references this one.
func (c *Cell) HasIncomingRefs() bool { return len(c.incomingRefs) > 0 }

// IncomingRefs returns the sorted list of cells that reference this one.
// The caller must not mutate the returned slice.
func (c *Cell) IncomingRefs() []position.Position { return c.incomingRefs }

// AddIncomingRef records that pos references this cell.
func (c *Cell) AddIncomingRef(pos position.Position) {
	idx, found := c.searchIncoming(pos)
	if found {
		return
	}
	c.incomingRefs = append(c.incomingRefs, position.Position{})
	copy(c.incomingRefs[idx+1:], c.incomingRefs[idx:])
	c.incomingRefs[idx] = pos
}

// RemoveIncomingRef removes pos from the incoming-reference list, if present.
func (c *Cell) RemoveIncomingRef(pos position.Position) {
	idx, found := c.searchIncoming(pos)
	if !found {
		return
	}
	c.incomingRefs = append(c.incomingRefs[:idx], c.incomingRefs[idx+1:]...)
}

func (c *Cell) searchIncoming(pos position.Position) (int, bool) {
	idx := sort.Search(len(c.incomingRefs), func(i int) bool {
		return !c.incomingRefs[i].Less(pos)
	})
	return idx, idx < len(c.incomingRefs) && c.incomingRefs[idx] == pos
}

// HandleInsertedRows rewrites the cell's own formula (if any) for count rows
// inserted before row before, and reports the resulting severity.
func (c *Cell) HandleInsertedRows(before, count int) exprtree.HandlingResult {
	if c.formula == nil {
		return exprtree.NothingChanged
	}
	return c.formula.HandleInsertedRows(before, count)
}

// HandleInsertedCols is the column analogue of HandleInsertedRows.
func (c *Cell) HandleInsertedCols(before, count int) exprtree.HandlingResult {
	if c.formula == nil {
		return exprtree.NothingChanged
	}
	return c.formula.HandleInsertedCols(before, count)
}

// HandleDeletedRows rewrites the cell's own formula (if any) for count rows
// deleted starting at first, and reports the resulting severity.
func (c *Cell) HandleDeletedRows(first, count int) exprtree.HandlingResult {
	if c.formula == nil {
		return exprtree.NothingChanged
	}
	return c.formula.HandleDeletedRows(first, count)
}

// HandleDeletedCols is the column analogue of HandleDeletedRows.
func (c *Cell) HandleDeletedCols(first, count int) exprtree.HandlingResult {
	if c.formula == nil {
		return exprtree.NothingChanged
	}
	return c.formula.HandleDeletedCols(first, count)
}

// ReferenceGraph is the forward-edge view a full circular-dependency search
// walks: what does the cell at pos reference. It is satisfied by the sheet
// package without this package importing it back.
type ReferenceGraph interface {
	ReferencedCellsAt(pos position.Position) []position.Position
}

// CheckForCircularDependency reports whether accepting a formula at self
// with the given (sorted) referenced cells would create a cycle.
//
// This is a two-tier check. When self has no incoming references yet,
// nothing in the graph currently depends on it, so the only way a cycle can
// appear immediately is a direct self-reference among newRefs — a binary
// search suffices. Once something depends on self, a cycle can also form
// through a longer chain, so the fallback walks the forward-reference graph
// from every new ref looking for a path back to self.
func CheckForCircularDependency(graph ReferenceGraph, self position.Position, hasIncomingRefs bool, newRefs []position.Position) bool {
	if !hasIncomingRefs {
		idx := sort.Search(len(newRefs), func(i int) bool { return !newRefs[i].Less(self) })
		return idx < len(newRefs) && newRefs[idx] == self
	}

	visited := make(map[position.Position]bool)
	var reaches func(pos position.Position) bool
	reaches = func(pos position.Position) bool {
		if pos == self {
			return true
		}
		if visited[pos] {
			return false
		}
		visited[pos] = true
		for _, ref := range graph.ReferencedCellsAt(pos) {
			if reaches(ref) {
				return true
			}
		}
		return false
	}

	for _, ref := range newRefs {
		if reaches(ref) {
			return true
		}
	}
	return false
}

// Host is the sheet-side lookup CascadeInvalidate needs to walk dependents.
type Host interface {
	GetCell(pos position.Position) (*Cell, error)
}

// CascadeInvalidate clears the cached value of the cell at start and every
// cell that transitively depends on it, following incoming-reference edges.
// The visited set guards against revisiting a cell reached through more
// than one diamond path; the reference graph itself is guaranteed acyclic.
func CascadeInvalidate(host Host, start position.Position) {
	visited := make(map[position.Position]bool)
	var walk func(pos position.Position)
	walk = func(pos position.Position) {
		if visited[pos] {
			return
		}
		visited[pos] = true
		c, err := host.GetCell(pos)
		if err != nil || c == nil {
			return
		}
		c.InvalidateCache()
		for _, dependent := range c.IncomingRefs() {
			walk(dependent)
		}
	}
	walk(start)
}
