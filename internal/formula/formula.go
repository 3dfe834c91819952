// Package formula wraps a parsed expression tree with the three memoized
// caches (value, serialized text, referenced cells) and the invalidation
// policy that keeps them coherent across evaluation and structural edits.
package formula

import (
	"github.com/jazkii/black-spreadsheet/internal/exprtree"
	"github.com/jazkii/black-spreadsheet/internal/formulaparser"
	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/value"
)

// Formula owns one expression-tree root and caches its three derived views.
// None of the cache fields are safe for concurrent use; a Formula belongs to
// exactly one Cell.
type Formula struct {
	root *exprtree.Node

	hasValue bool
	value    value.Value

	hasSerialized bool
	serialized    string

	hasReferenced bool
	referenced    []position.Position
}

// Parse builds a Formula from source text (without the leading '=' formula
// sign, which Sheet.SetCell strips before calling in here).
func Parse(expression string) (*Formula, error) {
	root, err := formulaparser.Parse(expression)
	if err != nil {
		return nil, err
	}
	return &Formula{root: root}, nil
}

// Evaluate returns the formula's value against sheet, filling the value
// cache on first use.
func (f *Formula) Evaluate(sheet exprtree.CellLookup) value.Value {
	if !f.hasValue {
		f.value = exprtree.Evaluate(f.root, sheet)
		f.hasValue = true
	}
	return f.value
}

// GetExpression returns the formula's canonical source text, filling the
// serialized-text cache on first use.
func (f *Formula) GetExpression() string {
	if !f.hasSerialized {
		f.serialized = exprtree.Serialize(f.root)
		f.hasSerialized = true
	}
	return f.serialized
}

// GetReferencedCells returns the sorted, deduplicated positions the formula
// reads, filling the referenced-cells cache on first use.
func (f *Formula) GetReferencedCells() []position.Position {
	if !f.hasReferenced {
		f.referenced = exprtree.ReferencedCells(f.root)
		f.hasReferenced = true
	}
	return f.referenced
}

// InvalidateCache drops all three caches unconditionally. Callers use this
// when a referenced cell's value changed, since that has no effect on the
// text/reference caches but this keeps the contract simple: any external
// invalidation clears everything.
func (f *Formula) InvalidateCache() {
	f.hasValue = false
	f.hasSerialized = false
	f.hasReferenced = false
}

// HandleInsertedRows rewrites the tree in place for count rows inserted
// before row before, and drops caches according to the resulting severity.
func (f *Formula) HandleInsertedRows(before, count int) exprtree.HandlingResult {
	return f.applyShift(exprtree.HandleInsertedRows(f.root, before, count))
}

// HandleInsertedCols is the column analogue of HandleInsertedRows.
func (f *Formula) HandleInsertedCols(before, count int) exprtree.HandlingResult {
	return f.applyShift(exprtree.HandleInsertedCols(f.root, before, count))
}

// HandleDeletedRows rewrites the tree in place for count rows deleted
// starting at first, and drops caches according to the resulting severity.
func (f *Formula) HandleDeletedRows(first, count int) exprtree.HandlingResult {
	return f.applyShift(exprtree.HandleDeletedRows(f.root, first, count))
}

// HandleDeletedCols is the column analogue of HandleDeletedRows.
func (f *Formula) HandleDeletedCols(first, count int) exprtree.HandlingResult {
	return f.applyShift(exprtree.HandleDeletedCols(f.root, first, count))
}

// applyShift enforces the cache-invalidation matrix: a rename-only edit
// clears the text and reference caches but leaves the value cache alone
// (row/col shifts don't change what a formula evaluates to), a full
// reference change clears all three caches, and nothing-changed clears none.
func (f *Formula) applyShift(result exprtree.HandlingResult) exprtree.HandlingResult {
	switch result {
	case exprtree.ReferencesRenamedOnly:
		f.hasSerialized = false
		f.hasReferenced = false
	case exprtree.ReferencesChanged:
		f.hasValue = false
		f.hasSerialized = false
		f.hasReferenced = false
	case exprtree.NothingChanged:
		// no cache is stale
	}
	return result
}
