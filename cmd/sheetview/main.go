// Command sheetview is a terminal grid viewer/editor for the spreadsheet
// engine, adapted from the reference terminal grid's tcell event loop.
package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/jazkii/black-spreadsheet/internal/csvio"
	"github.com/jazkii/black-spreadsheet/internal/sheet"
	"github.com/jazkii/black-spreadsheet/internal/sheetview"
)

func main() {
	var file string
	if len(os.Args) > 1 {
		file = os.Args[1]
	}

	s := sheet.New()
	if file != "" {
		if _, err := os.Stat(file); err == nil {
			if err := csvio.Load(s, file); err != nil {
				fmt.Fprintf(os.Stderr, "cannot load %s: %v\n", file, err)
				os.Exit(1)
			}
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot init screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.Clear()

	a := sheetview.NewApp(s)
	for !a.Quit {
		a.EnsureCursorVisible(screen)
		a.Draw(screen)
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			a.HandleKeyEvent(ev)
		case *tcell.EventResize:
			screen.Sync()
		}
	}

	if file != "" {
		if err := csvio.Save(s, file); err != nil {
			fmt.Fprintf(os.Stderr, "cannot save %s: %v\n", file, err)
			os.Exit(1)
		}
	}
}
