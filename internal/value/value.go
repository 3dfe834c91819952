// Package value holds the data model shared across the expression tree,
// formula, cell, and sheet layers: cell values, formula-level errors, and
// the operation-level error types raised out of the sheet's public API.
package value

import "fmt"

// ErrorKind tags the three value-level formula errors.
type ErrorKind int

const (
	// ErrRef marks a reference to an out-of-bounds position.
	ErrRef ErrorKind = iota
	// ErrValue marks a referenced cell whose text cannot be coerced to a number.
	ErrValue
	// ErrDiv0 marks an arithmetic result that is not finite.
	ErrDiv0
)

// FormulaError is a tagged value-level error, carried through arithmetic
// rather than raised. It satisfies the error interface so it can also be
// returned as a plain Go error from helpers that need to.
type FormulaError struct {
	Kind ErrorKind
}

func (e FormulaError) Error() string {
	return e.String()
}

// String renders the spreadsheet-visible spelling of the error.
func (e FormulaError) String() string {
	switch e.Kind {
	case ErrRef:
		return "#REF!"
	case ErrValue:
		return "#VALUE!"
	case ErrDiv0:
		return "#DIV/0!"
	default:
		return ""
	}
}

// Value is a cell's computed value: exactly one of a float64, a string, or
// a FormulaError is set, selected by Kind.
type Value struct {
	kind valueKind
	num  float64
	str  string
	err  FormulaError
}

type valueKind int

const (
	kindNumber valueKind = iota
	kindString
	kindError
)

// Number wraps a numeric value.
func Number(v float64) Value { return Value{kind: kindNumber, num: v} }

// Text wraps a string value.
func Text(v string) Value { return Value{kind: kindString, str: v} }

// Error wraps a formula-error value.
func Error(kind ErrorKind) Value { return Value{kind: kindError, err: FormulaError{Kind: kind}} }

// IsNumber reports whether the value holds a float64.
func (v Value) IsNumber() bool { return v.kind == kindNumber }

// IsText reports whether the value holds a string.
func (v Value) IsText() bool { return v.kind == kindString }

// IsError reports whether the value holds a FormulaError.
func (v Value) IsError() bool { return v.kind == kindError }

// AsNumber returns the numeric payload; only meaningful when IsNumber is true.
func (v Value) AsNumber() float64 { return v.num }

// AsText returns the string payload; only meaningful when IsText is true.
func (v Value) AsText() string { return v.str }

// AsError returns the error payload; only meaningful when IsError is true.
func (v Value) AsError() FormulaError { return v.err }

// String renders the value the way PrintValues renders it: the locale
// independent double spelling, the raw string, or the error spelling.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return formatNumber(v.num)
	case kindString:
		return v.str
	case kindError:
		return v.err.String()
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}

// InvalidPositionError is raised by sheet operations given an out-of-bounds
// Position.
type InvalidPositionError struct {
	Detail string
}

func (e *InvalidPositionError) Error() string {
	if e.Detail == "" {
		return "invalid position"
	}
	return "invalid position: " + e.Detail
}

// TableTooBigError is raised when a structural edit would push the sheet
// past MaxRows/MaxCols.
type TableTooBigError struct {
	Detail string
}

func (e *TableTooBigError) Error() string {
	if e.Detail == "" {
		return "table too big"
	}
	return "table too big: " + e.Detail
}

// CircularDependencyError is raised when a formula's reference graph would
// include its own cell.
type CircularDependencyError struct {
	Detail string
}

func (e *CircularDependencyError) Error() string {
	if e.Detail == "" {
		return "circular dependency"
	}
	return "circular dependency: " + e.Detail
}

// FormulaSyntaxError is raised when formula source fails to parse: syntax
// error, invalid cell literal, or non-finite number literal.
type FormulaSyntaxError struct {
	Expression string
	Detail     string
}

func (e *FormulaSyntaxError) Error() string {
	return fmt.Sprintf("formula error in %q: %s", e.Expression, e.Detail)
}
