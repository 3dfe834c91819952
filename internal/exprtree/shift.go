package exprtree

import "github.com/jazkii/black-spreadsheet/internal/position"

// HandleInsertedRows rewrites row-referencing CellRef nodes when count rows
// are inserted before row before.
func HandleInsertedRows(n *Node, before, count int) HandlingResult {
	switch n.Kind {
	case KindNumber:
		return NothingChanged
	case KindCellRef:
		if !n.Pos.IsValid() {
			return NothingChanged
		}
		return handleInserted(&n.Pos.Row, before, count)
	case KindUnary:
		return HandleInsertedRows(n.Child, before, count)
	case KindBinary:
		return joinResult(
			HandleInsertedRows(n.Left, before, count),
			HandleInsertedRows(n.Right, before, count),
		)
	default:
		panic("exprtree: unknown node kind")
	}
}

// HandleInsertedCols is the column analogue of HandleInsertedRows.
func HandleInsertedCols(n *Node, before, count int) HandlingResult {
	switch n.Kind {
	case KindNumber:
		return NothingChanged
	case KindCellRef:
		if !n.Pos.IsValid() {
			return NothingChanged
		}
		return handleInserted(&n.Pos.Col, before, count)
	case KindUnary:
		return HandleInsertedCols(n.Child, before, count)
	case KindBinary:
		return joinResult(
			HandleInsertedCols(n.Left, before, count),
			HandleInsertedCols(n.Right, before, count),
		)
	default:
		panic("exprtree: unknown node kind")
	}
}

// HandleDeletedRows rewrites row-referencing CellRef nodes when count rows
// starting at first are deleted, invalidating references that fell inside
// the deleted range.
func HandleDeletedRows(n *Node, first, count int) HandlingResult {
	switch n.Kind {
	case KindNumber:
		return NothingChanged
	case KindCellRef:
		if !n.Pos.IsValid() {
			return NothingChanged
		}
		return handleDeleted(n, &n.Pos.Row, first, count)
	case KindUnary:
		return HandleDeletedRows(n.Child, first, count)
	case KindBinary:
		return joinResult(
			HandleDeletedRows(n.Left, first, count),
			HandleDeletedRows(n.Right, first, count),
		)
	default:
		panic("exprtree: unknown node kind")
	}
}

// HandleDeletedCols is the column analogue of HandleDeletedRows.
func HandleDeletedCols(n *Node, first, count int) HandlingResult {
	switch n.Kind {
	case KindNumber:
		return NothingChanged
	case KindCellRef:
		if !n.Pos.IsValid() {
			return NothingChanged
		}
		return handleDeleted(n, &n.Pos.Col, first, count)
	case KindUnary:
		return HandleDeletedCols(n.Child, first, count)
	case KindBinary:
		return joinResult(
			HandleDeletedCols(n.Left, first, count),
			HandleDeletedCols(n.Right, first, count),
		)
	default:
		panic("exprtree: unknown node kind")
	}
}

func handleInserted(dim *int, before, count int) HandlingResult {
	if *dim >= before {
		*dim += count
		return ReferencesRenamedOnly
	}
	return NothingChanged
}

// handleDeleted mutates n.Pos to the invalid sentinel (both coordinates) if
// dim falls inside the deleted range, since a CellRef's validity is
// all-or-nothing even though rows and columns are shifted independently.
func handleDeleted(n *Node, dim *int, first, count int) HandlingResult {
	if *dim < first {
		return NothingChanged
	}
	if *dim < first+count {
		n.Pos = position.Invalid()
		return ReferencesChanged
	}
	*dim -= count
	return ReferencesRenamedOnly
}
