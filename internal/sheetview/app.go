// Package sheetview implements a read/write terminal grid over
// internal/sheet.Sheet: arrow keys move the cursor, Enter edits the
// current cell's raw text, and the status line shows the selected cell's
// text and evaluated value. It is a substantial trim of the reference
// terminal grid's app package (no popups, no command mode, no per-column
// resize) adapted to drive the reactive core instead of a bare cell map.
package sheetview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/sheet"
	"github.com/jazkii/black-spreadsheet/internal/value"
)

// App is the terminal grid's mutable UI state, layered over a Sheet it
// does not own the lifetime of (the caller loads/saves it).
type App struct {
	Sheet *sheet.Sheet

	LeftGutter  int
	StatusLines int
	ColWidth    int

	CurRow  int
	CurCol  int
	ViewRow int
	ViewCol int

	Mode     string // "normal" | "insert"
	InputBuf string
	Message  string // transient status line message (edit errors)

	Quit bool
}

// NewApp returns an App ready to drive s from the top-left cell.
func NewApp(s *sheet.Sheet) *App {
	return &App{
		Sheet:       s,
		LeftGutter:  5,
		StatusLines: 2,
		ColWidth:    12,
		Mode:        "normal",
	}
}

// HandleKeyEvent applies one key event to the UI state, mutating Sheet
// through its public API (SetCell, InsertRows/Cols, DeleteRows/Cols) so
// every invariant the core enforces still holds after an edit.
func (a *App) HandleKeyEvent(ev *tcell.EventKey) {
	if a.Mode == "insert" {
		a.handleInsertKey(ev)
		return
	}
	a.handleNormalKey(ev)
}

func (a *App) handleInsertKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEsc:
		a.Mode = "normal"
		a.InputBuf = ""
	case tcell.KeyEnter:
		a.commitEdit()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.InputBuf) > 0 {
			a.InputBuf = a.InputBuf[:len(a.InputBuf)-1]
		}
	default:
		if r := ev.Rune(); r != 0 {
			a.InputBuf += string(r)
		}
	}
}

func (a *App) commitEdit() {
	pos := position.Position{Row: a.CurRow, Col: a.CurCol}
	if err := a.Sheet.SetCell(pos, a.InputBuf); err != nil {
		a.Message = describeError(err)
		return
	}
	a.Mode = "normal"
	a.InputBuf = ""
	a.Message = ""
}

func (a *App) handleNormalKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		a.Quit = true
	case tcell.KeyUp:
		if a.CurRow > 0 {
			a.CurRow--
		}
	case tcell.KeyDown:
		a.CurRow++
	case tcell.KeyLeft:
		if a.CurCol > 0 {
			a.CurCol--
		}
	case tcell.KeyRight:
		a.CurCol++
	case tcell.KeyHome:
		a.CurRow, a.CurCol = 0, 0
	case tcell.KeyEnter:
		a.startEdit()
	case tcell.KeyDelete:
		a.clearCurrent()
	case tcell.KeyF2:
		a.runEdit(func() error { return a.Sheet.InsertRows(a.CurRow, 1) })
	case tcell.KeyF3:
		a.runEdit(func() error { return a.Sheet.InsertCols(a.CurCol, 1) })
	case tcell.KeyF4:
		a.runEdit(func() error { return a.Sheet.DeleteRows(a.CurRow, 1) })
	case tcell.KeyF5:
		a.runEdit(func() error { return a.Sheet.DeleteCols(a.CurCol, 1) })
	default:
		if r := ev.Rune(); r == 'q' {
			a.Quit = true
		}
	}
}

func (a *App) startEdit() {
	pos := position.Position{Row: a.CurRow, Col: a.CurCol}
	text, err := a.Sheet.GetText(pos)
	if err != nil {
		a.Message = describeError(err)
		return
	}
	a.Mode = "insert"
	a.InputBuf = text
	a.Message = ""
}

func (a *App) clearCurrent() {
	a.runEdit(func() error {
		return a.Sheet.ClearCell(position.Position{Row: a.CurRow, Col: a.CurCol})
	})
}

func (a *App) runEdit(edit func() error) {
	if err := edit(); err != nil {
		a.Message = describeError(err)
		return
	}
	a.Message = ""
}

func describeError(err error) string {
	var tooBig *value.TableTooBigError
	var circ *value.CircularDependencyError
	var invalid *value.InvalidPositionError
	var syntaxErr *value.FormulaSyntaxError
	switch {
	case errors.As(err, &tooBig):
		return "table too big: " + tooBig.Error()
	case errors.As(err, &circ):
		return "circular dependency: " + circ.Error()
	case errors.As(err, &invalid):
		return "invalid position: " + invalid.Error()
	case errors.As(err, &syntaxErr):
		return "formula error: " + syntaxErr.Error()
	default:
		return err.Error()
	}
}

// Draw renders the grid, the cursor's cell highlighted, and a two-line
// status area: the current mode/position/message, and the edit buffer or
// the selected cell's text/value when not editing.
func (a *App) Draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()

	a.drawHeader(s, w)
	r := a.drawRows(s, w, h)
	a.drawStatus(s, w, h, r)
	s.Show()
}

func (a *App) drawHeader(s tcell.Screen, w int) {
	x := a.LeftGutter
	for c := a.ViewCol; x < w; c++ {
		style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if c == a.CurCol {
			style = style.Background(tcell.ColorDarkSlateGray)
		}
		printFixedWidth(s, x, 0, position.ColumnLetters(c), style, a.ColWidth)
		x += a.ColWidth
	}
}

func (a *App) drawRows(s tcell.Screen, w, h int) int {
	y := 1
	r := a.ViewRow
	for ; y < h-a.StatusLines; y, r = y+1, r+1 {
		gutterStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if r == a.CurRow {
			gutterStyle = gutterStyle.Background(tcell.ColorDarkSlateGray)
		}
		printFixedWidth(s, 0, y, fmt.Sprintf("%d", r+1), gutterStyle, a.LeftGutter-1)

		x := a.LeftGutter
		for c := a.ViewCol; x < w; c++ {
			text := a.cellText(r, c)
			style := tcell.StyleDefault
			if r == a.CurRow && c == a.CurCol {
				style = style.Background(tcell.ColorLightGray).Foreground(tcell.ColorBlack)
				if a.Mode == "insert" {
					text = a.InputBuf
				}
			}
			printFixedWidth(s, x, y, text, style, a.ColWidth)
			x += a.ColWidth
		}
	}
	return r
}

func (a *App) cellText(r, c int) string {
	pos := position.Position{Row: r, Col: c}
	cl, err := a.Sheet.GetCell(pos)
	if err != nil || cl == nil {
		return ""
	}
	return cl.GetValue(a.Sheet).String()
}

func (a *App) drawStatus(s tcell.Screen, w, h, _ int) {
	statusY := h - a.StatusLines
	style := tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorWhite)

	pos := position.Position{Row: a.CurRow, Col: a.CurCol}
	line := fmt.Sprintf("Mode:%s  Cell:%s", a.Mode, pos.ToString())
	if a.Message != "" {
		line += "  " + a.Message
	}
	printFixedWidth(s, 0, statusY, line, style, w)

	second := ""
	switch {
	case a.Mode == "insert":
		second = "EDIT: " + a.InputBuf
	default:
		if text, err := a.Sheet.GetText(pos); err == nil {
			if v, verr := a.Sheet.GetValue(pos); verr == nil {
				second = fmt.Sprintf("Text: %s  Value: %s", text, v.String())
			}
		}
	}
	printFixedWidth(s, 0, statusY+1, second, style, w)
}

func printFixedWidth(s tcell.Screen, x, y int, text string, style tcell.Style, width int) {
	runes := []rune(strings.TrimRight(text, "\n"))
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(runes) {
			ch = runes[i]
		}
		s.SetContent(x+i, y, ch, nil, style)
	}
}

// EnsureCursorVisible scrolls the viewport so the cursor's row/column stays
// on screen, mirroring the reference terminal grid's viewport bookkeeping.
func (a *App) EnsureCursorVisible(s tcell.Screen) {
	w, h := s.Size()
	visibleCols := maxInt(1, (w-a.LeftGutter)/a.ColWidth)
	visibleRows := maxInt(1, h-a.StatusLines-1)

	if a.CurCol < a.ViewCol {
		a.ViewCol = a.CurCol
	} else if a.CurCol >= a.ViewCol+visibleCols {
		a.ViewCol = a.CurCol - visibleCols + 1
	}
	if a.CurRow < a.ViewRow {
		a.ViewRow = a.CurRow
	} else if a.CurRow >= a.ViewRow+visibleRows {
		a.ViewRow = a.CurRow - visibleRows + 1
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
