package sheet_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/sheet"
	"github.com/jazkii/black-spreadsheet/internal/value"
)

func pos(a1 string) position.Position { return position.FromString(a1) }

func TestSheet_SetAndGetPlainText(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "hello"))
	v, err := s.GetValue(pos("A1"))
	require.NoError(t, err)
	assert.True(t, v.IsText())
	assert.Equal(t, "hello", v.AsText())
}

func TestSheet_SetAndGetNumericText(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "42"))
	v, err := s.GetValue(pos("A1"))
	require.NoError(t, err)
	assert.True(t, v.IsNumber())
	assert.Equal(t, 42.0, v.AsNumber())
}

func TestSheet_FormulaReferencesAnotherCell(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "5"))
	require.NoError(t, s.SetCell(pos("B1"), "=A1*2"))
	v, err := s.GetValue(pos("B1"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, v.AsNumber())
}

func TestSheet_UpdatingDependencyInvalidatesDependent(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "5"))
	require.NoError(t, s.SetCell(pos("B1"), "=A1*2"))
	v, _ := s.GetValue(pos("B1"))
	require.Equal(t, 10.0, v.AsNumber())

	require.NoError(t, s.SetCell(pos("A1"), "100"))
	v, _ = s.GetValue(pos("B1"))
	assert.Equal(t, 200.0, v.AsNumber())
}

func TestSheet_DirectCircularDependencyRejected(t *testing.T) {
	s := sheet.New()
	err := s.SetCell(pos("A1"), "=A1+1")
	require.Error(t, err)
	var circ *value.CircularDependencyError
	require.ErrorAs(t, err, &circ)
	v, _ := s.GetValue(pos("A1"))
	assert.Equal(t, 0.0, v.AsNumber(), "rejected formula must leave the cell unset")
}

func TestSheet_TransitiveCircularDependencyRejected(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "=B1+1"))
	err := s.SetCell(pos("B1"), "=A1+1")
	require.Error(t, err)
	var circ *value.CircularDependencyError
	require.ErrorAs(t, err, &circ)
}

func TestSheet_ReferenceToEmptyCellIsZero(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "=B1+1"))
	v, err := s.GetValue(pos("A1"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())
}

func TestSheet_ClearCellDropsUnreferencedEntry(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "hi"))
	require.NoError(t, s.ClearCell(pos("A1")))
	c, err := s.GetCell(pos("A1"))
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSheet_ClearCellKeepsReferencedEntryAlive(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "hi"))
	require.NoError(t, s.SetCell(pos("B1"), "=A1"))
	require.NoError(t, s.ClearCell(pos("A1")))
	c, err := s.GetCell(pos("A1"))
	require.NoError(t, err)
	assert.NotNil(t, c, "A1 must stay alive because B1 references it")
	v, _ := s.GetValue(pos("B1"))
	assert.Equal(t, 0.0, v.AsNumber())
}

func TestSheet_EscapeSignTakesPrecedenceOverFormulaSign(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "'=1+2"))

	text, err := s.GetText(pos("A1"))
	require.NoError(t, err)
	assert.Equal(t, "'=1+2", text, "escape sign must survive in the raw text")

	v, err := s.GetValue(pos("A1"))
	require.NoError(t, err)
	assert.True(t, v.IsText())
	assert.Equal(t, "=1+2", v.AsText(), "escape sign is stripped only when computing the value")
}

func TestSheet_EmptyFormulaIsASyntaxError(t *testing.T) {
	s := sheet.New()
	err := s.SetCell(pos("A1"), "=")
	require.Error(t, err)
	var syntaxErr *value.FormulaSyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestSheet_InvalidPositionRejected(t *testing.T) {
	s := sheet.New()
	err := s.SetCell(position.Invalid(), "x")
	require.Error(t, err)
	var invalid *value.InvalidPositionError
	require.ErrorAs(t, err, &invalid)
}

func TestSheet_GetCellRejectsInvalidPosition(t *testing.T) {
	s := sheet.New()
	_, err := s.GetCell(position.Invalid())
	require.Error(t, err)
	var invalid *value.InvalidPositionError
	require.ErrorAs(t, err, &invalid)
}

func TestSheet_GetCellOnUntouchedPositionIsNilNoError(t *testing.T) {
	s := sheet.New()
	c, err := s.GetCell(pos("A1"))
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSheet_SetCellWithUnchangedTextIsANoOp(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "5"))
	require.NoError(t, s.SetCell(pos("B1"), "=A1*2"))
	v, err := s.GetValue(pos("B1"))
	require.NoError(t, err)
	require.Equal(t, 10.0, v.AsNumber())

	// Re-setting A1 to the exact text it already has must take the no-op
	// path rather than reparsing and cascading an invalidation for nothing.
	require.NoError(t, s.SetCell(pos("A1"), "5"))
	v, err = s.GetValue(pos("B1"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, v.AsNumber())
}

func TestSheet_InsertRowsShiftsReferencesDown(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A5"), "10"))
	require.NoError(t, s.SetCell(pos("A10"), "=A5+1"))

	require.NoError(t, s.InsertRows(2, 3))

	// A5 (row index 4) moves to row index 7 (A8); the formula that used to
	// live at A10 (row index 9) moves to row index 12 (A13) and its
	// reference is rewritten to track A5's new address.
	text, err := s.GetText(pos("A13"))
	require.NoError(t, err)
	assert.Equal(t, "=A8+1", text)

	v, err := s.GetValue(pos("A13"))
	require.NoError(t, err)
	assert.Equal(t, 11.0, v.AsNumber())
}

func TestSheet_DeleteRowsInvalidatesReferenceIntoRange(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A5"), "10"))
	require.NoError(t, s.SetCell(pos("A10"), "=A5+1"))

	require.NoError(t, s.DeleteRows(3, 4))

	text, err := s.GetText(pos("A6"))
	require.NoError(t, err)
	assert.Equal(t, "=#REF!+1", text)
}

func TestSheet_DeleteRowsShiftsSurvivingReference(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A10"), "10"))
	require.NoError(t, s.SetCell(pos("A20"), "=A10+1"))

	require.NoError(t, s.DeleteRows(0, 5))

	text, err := s.GetText(pos("A15"))
	require.NoError(t, err)
	assert.Equal(t, "=A5+1", text)

	v, err := s.GetValue(pos("A15"))
	require.NoError(t, err)
	assert.Equal(t, 11.0, v.AsNumber())
}

func TestSheet_InsertRowsPastOccupiedExtentStillEnforcesLimit(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "1"))

	// before (16380) is well past the one occupied row, so nothing shifts,
	// but before+count (16390) still exceeds MaxRows (16384) and must fail.
	err := s.InsertRows(position.MaxRows-4, 10)
	require.Error(t, err)
	var tooBig *value.TableTooBigError
	require.ErrorAs(t, err, &tooBig)
}

func TestSheet_InsertColsPastOccupiedExtentStillEnforcesLimit(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "1"))

	err := s.InsertCols(position.MaxCols-4, 10)
	require.Error(t, err)
	var tooBig *value.TableTooBigError
	require.ErrorAs(t, err, &tooBig)
}

func TestSheet_InsertColsExceedingLimitFails(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "1"))
	err := s.InsertCols(0, position.MaxCols)
	require.Error(t, err)
	var tooBig *value.TableTooBigError
	require.ErrorAs(t, err, &tooBig)
}

func TestSheet_PrintValues(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "1"))
	require.NoError(t, s.SetCell(pos("B1"), "=A1+1"))
	require.NoError(t, s.SetCell(pos("A2"), "hello"))

	var buf strings.Builder
	require.NoError(t, s.PrintValues(&buf))
	assert.Equal(t, "1\t2\nhello\t\n", buf.String())
}

func TestSheet_PrintTexts(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "1"))
	require.NoError(t, s.SetCell(pos("B1"), "=A1+1"))

	var buf strings.Builder
	require.NoError(t, s.PrintTexts(&buf))
	assert.Equal(t, "1\t=A1+1\n", buf.String())
}

func TestSheet_FormulaSyntaxErrorLeavesSheetUnchanged(t *testing.T) {
	s := sheet.New()
	require.NoError(t, s.SetCell(pos("A1"), "old"))
	err := s.SetCell(pos("A1"), "=1+")
	require.Error(t, err)
	var syntaxErr *value.FormulaSyntaxError
	require.ErrorAs(t, err, &syntaxErr)

	v, _ := s.GetValue(pos("A1"))
	assert.Equal(t, "old", v.AsText())
}
