package formulaparser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazkii/black-spreadsheet/internal/exprtree"
	"github.com/jazkii/black-spreadsheet/internal/formulaparser"
	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/value"
)

func mustParse(t *testing.T, expr string) *exprtree.Node {
	t.Helper()
	n, err := formulaparser.Parse(expr)
	require.NoError(t, err)
	return n
}

func TestParse_Number(t *testing.T) {
	n := mustParse(t, "42")
	v := exprtree.Evaluate(n, fakeSheet{})
	assert.Equal(t, 42.0, v.AsNumber())
}

func TestParse_CellRef(t *testing.T) {
	n := mustParse(t, "A1")
	require.Equal(t, exprtree.KindCellRef, n.Kind)
	assert.Equal(t, position.FromString("A1"), n.Pos)
}

func TestParse_RoundTripsThroughSerialize(t *testing.T) {
	cases := []string{
		"1+2",
		"(1+2)*3",
		"1-(2-3)",
		"1/(2*3)",
		"A1+B2",
		"-A1",
		"--1",
	}
	for _, expr := range cases {
		expr := expr
		t.Run(expr, func(t *testing.T) {
			n := mustParse(t, expr)
			assert.Equal(t, expr, exprtree.Serialize(n))
		})
	}
}

func TestParse_OperatorPrecedence(t *testing.T) {
	n := mustParse(t, "1+2*3")
	v := exprtree.Evaluate(n, fakeSheet{})
	assert.Equal(t, 7.0, v.AsNumber())
}

func TestParse_LeftAssociativity(t *testing.T) {
	n := mustParse(t, "10-2-3")
	v := exprtree.Evaluate(n, fakeSheet{})
	assert.Equal(t, 5.0, v.AsNumber())
}

func TestParse_UnaryMinus(t *testing.T) {
	n := mustParse(t, "-5+2")
	v := exprtree.Evaluate(n, fakeSheet{})
	assert.Equal(t, -3.0, v.AsNumber())
}

func TestParse_RejectsMultiCellRange(t *testing.T) {
	_, err := formulaparser.Parse("A1:B2")
	require.Error(t, err)
	var syntaxErr *value.FormulaSyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestParse_RejectsFunctionCall(t *testing.T) {
	_, err := formulaparser.Parse("SUM(A1,A2)")
	require.Error(t, err)
	var syntaxErr *value.FormulaSyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestParse_RejectsUnmatchedParen(t *testing.T) {
	_, err := formulaparser.Parse("(1+2")
	require.Error(t, err)
}

func TestParse_RejectsTrailingGarbage(t *testing.T) {
	_, err := formulaparser.Parse("1+2)")
	require.Error(t, err)
}

func TestParse_RejectsInvalidCellPosition(t *testing.T) {
	_, err := formulaparser.Parse("ZZZZZZZZZZ1")
	require.Error(t, err)
}

type fakeSheet map[position.Position]value.Value

func (s fakeSheet) CellValue(pos position.Position) (value.Value, bool) {
	v, ok := s[pos]
	return v, ok
}
