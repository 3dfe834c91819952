// Package exprtree implements the formula expression tree: a small tagged
// sum type over four node kinds (Number, CellRef, Unary, Binary), each
// evaluated, serialized, and rewritten by pattern matching rather than by
// virtual dispatch, per the reference implementation's structuring notes.
package exprtree

import (
	"math"
	"strconv"

	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/value"
)

// Kind tags which variant a Node holds.
type Kind int

const (
	KindNumber Kind = iota
	KindCellRef
	KindUnary
	KindBinary
)

// UnaryOp is the operator carried by a Unary node.
type UnaryOp int

const (
	OpUnaryPlus UnaryOp = iota
	OpUnaryMinus
)

// BinaryOp is the operator carried by a Binary node.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

// Node is a single expression-tree node. Exactly one group of fields is
// meaningful, selected by Kind; children are owned exclusively (Left/Right/
// Child are never shared between nodes).
type Node struct {
	Kind Kind

	// KindNumber
	NumValue   float64
	NumLiteral string

	// KindCellRef. Pos may become Invalid() after a delete shifts it out
	// of the sheet.
	Pos position.Position

	// KindUnary
	UnaryOp UnaryOp
	Child   *Node

	// KindBinary
	BinaryOp    BinaryOp
	Left, Right *Node
}

// NewNumber builds a Number node, preserving the exact spelling parsed.
func NewNumber(v float64, literal string) *Node {
	return &Node{Kind: KindNumber, NumValue: v, NumLiteral: literal}
}

// NewCellRef builds a CellRef node.
func NewCellRef(pos position.Position) *Node {
	return &Node{Kind: KindCellRef, Pos: pos}
}

// NewUnary builds a Unary node.
func NewUnary(op UnaryOp, child *Node) *Node {
	return &Node{Kind: KindUnary, UnaryOp: op, Child: child}
}

// NewBinary builds a Binary node.
func NewBinary(op BinaryOp, left, right *Node) *Node {
	return &Node{Kind: KindBinary, BinaryOp: op, Left: left, Right: right}
}

// HandlingResult is the severity a structural-edit handler reports, ordered
// NothingChanged < ReferencesRenamedOnly < ReferencesChanged so composite
// nodes can join their children's results with max.
type HandlingResult int

const (
	NothingChanged HandlingResult = iota
	ReferencesRenamedOnly
	ReferencesChanged
)

func joinResult(a, b HandlingResult) HandlingResult {
	if a > b {
		return a
	}
	return b
}

// CellLookup is the read-only view of a sheet that CellRef evaluation
// needs. It is satisfied by the sheet package without exprtree importing it
// back, avoiding an import cycle.
type CellLookup interface {
	// CellValue returns the value at pos and whether a cell is present
	// there at all. pos is guaranteed valid by the caller.
	CellValue(pos position.Position) (value.Value, bool)
}

// Evaluate computes the node's value against sheet, per the coercion and
// error-propagation rules in the spec.
func Evaluate(n *Node, sheet CellLookup) value.Value {
	switch n.Kind {
	case KindNumber:
		return value.Number(n.NumValue)

	case KindCellRef:
		if !n.Pos.IsValid() {
			return value.Error(value.ErrRef)
		}
		cellVal, ok := sheet.CellValue(n.Pos)
		if !ok {
			return value.Number(0)
		}
		return coerceToNumeric(cellVal)

	case KindUnary:
		v := Evaluate(n.Child, sheet)
		if v.IsError() {
			return v
		}
		num := v.AsNumber()
		if n.UnaryOp == OpUnaryMinus {
			num = -num
		}
		return value.Number(num)

	case KindBinary:
		left := Evaluate(n.Left, sheet)
		right := Evaluate(n.Right, sheet)
		if left.IsError() {
			return left
		}
		if right.IsError() {
			return right
		}
		result := applyBinary(n.BinaryOp, left.AsNumber(), right.AsNumber())
		if math.IsNaN(result) || math.IsInf(result, 0) {
			return value.Error(value.ErrDiv0)
		}
		return value.Number(result)

	default:
		panic("exprtree: unknown node kind")
	}
}

// coerceToNumeric implements the CellRef -> Value coercion: a cached
// number passes through, an error passes through, and text becomes 0.0 if
// empty or a #VALUE! error unless it parses as a number in full.
func coerceToNumeric(v value.Value) value.Value {
	switch {
	case v.IsNumber():
		return v
	case v.IsError():
		return v
	case v.IsText():
		text := v.AsText()
		if text == "" {
			return value.Number(0)
		}
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Error(value.ErrValue)
		}
		return value.Number(parsed)
	default:
		return value.Error(value.ErrValue)
	}
}

func applyBinary(op BinaryOp, left, right float64) float64 {
	switch op {
	case OpAdd:
		return left + right
	case OpSub:
		return left - right
	case OpMul:
		return left * right
	case OpDiv:
		return left / right
	default:
		panic("exprtree: unknown binary op")
	}
}

// Serialize re-renders the node to a formula-source fragment, adding
// parentheses only where operator precedence and associativity require it,
// producing a stable fixed point under reparse+reserialize.
func Serialize(n *Node) string {
	switch n.Kind {
	case KindNumber:
		return n.NumLiteral

	case KindCellRef:
		if n.Pos.IsValid() {
			return n.Pos.ToString()
		}
		return value.FormulaError{Kind: value.ErrRef}.String()

	case KindUnary:
		sym := unarySymbol(n.UnaryOp)
		child := Serialize(n.Child)
		if n.Child.Kind == KindBinary && (n.Child.BinaryOp == OpAdd || n.Child.BinaryOp == OpSub) {
			child = "(" + child + ")"
		}
		return sym + child

	case KindBinary:
		left := Serialize(n.Left)
		if needsParens(n.BinaryOp, n.Left, true) {
			left = "(" + left + ")"
		}
		right := Serialize(n.Right)
		if needsParens(n.BinaryOp, n.Right, false) {
			right = "(" + right + ")"
		}
		return left + binarySymbol(n.BinaryOp) + right

	default:
		panic("exprtree: unknown node kind")
	}
}

func needsParens(parent BinaryOp, child *Node, isLeft bool) bool {
	if child.Kind != KindBinary {
		return false
	}
	childIsAddSub := child.BinaryOp == OpAdd || child.BinaryOp == OpSub
	childIsMulDiv := child.BinaryOp == OpMul || child.BinaryOp == OpDiv

	switch parent {
	case OpSub:
		return childIsAddSub && !isLeft
	case OpMul:
		return childIsAddSub
	case OpDiv:
		if childIsAddSub {
			return true
		}
		return childIsMulDiv && !isLeft
	default: // OpAdd
		return false
	}
}

func unarySymbol(op UnaryOp) string {
	if op == OpUnaryMinus {
		return "-"
	}
	return "+"
}

func binarySymbol(op BinaryOp) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		panic("exprtree: unknown binary op")
	}
}

// ReferencedCells returns the sorted, deduplicated list of positions the
// node reads when evaluated.
func ReferencedCells(n *Node) []position.Position {
	switch n.Kind {
	case KindNumber:
		return nil

	case KindCellRef:
		if n.Pos.IsValid() {
			return []position.Position{n.Pos}
		}
		return nil

	case KindUnary:
		return ReferencedCells(n.Child)

	case KindBinary:
		left := ReferencedCells(n.Left)
		right := ReferencedCells(n.Right)
		return mergeSortedUnique(left, right)

	default:
		panic("exprtree: unknown node kind")
	}
}

func mergeSortedUnique(a, b []position.Position) []position.Position {
	merged := make([]position.Position, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Less(b[j]):
			merged = append(merged, a[i])
			i++
		case b[j].Less(a[i]):
			merged = append(merged, b[j])
			j++
		default:
			merged = append(merged, a[i])
			i++
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return dedupeAdjacent(merged)
}

func dedupeAdjacent(sorted []position.Position) []position.Position {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
