// Command sheetctl is a scriptable command-line front end for the
// spreadsheet engine: load a CSV workbook, apply one edit, save it back.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jazkii/black-spreadsheet/internal/csvio"
	"github.com/jazkii/black-spreadsheet/internal/position"
	"github.com/jazkii/black-spreadsheet/internal/sheet"
)

var file string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetctl",
		Short: "Inspect and edit a CSV-backed spreadsheet from the command line",
	}
	rootCmd.PersistentFlags().StringVarP(&file, "file", "f", "", "path to the CSV workbook")
	rootCmd.MarkPersistentFlagRequired("file")

	rootCmd.AddCommand(
		newGetCmd(),
		newSetCmd(),
		newPrintCmd(),
		newInsertRowsCmd(),
		newInsertColsCmd(),
		newDeleteRowsCmd(),
		newDeleteColsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadSheet() (*sheet.Sheet, error) {
	s := sheet.New()
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return s, nil
	}
	if err := csvio.Load(s, file); err != nil {
		return nil, fmt.Errorf("loading %s: %w", file, err)
	}
	return s, nil
}

func saveSheet(s *sheet.Sheet) error {
	if err := csvio.Save(s, file); err != nil {
		return fmt.Errorf("saving %s: %w", file, err)
	}
	return nil
}

func parsePosition(a1 string) (position.Position, error) {
	pos := position.FromString(a1)
	if !pos.IsValid() {
		return position.Position{}, fmt.Errorf("invalid cell reference %q", a1)
	}
	return pos, nil
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <cell>",
		Short: "Print a cell's evaluated value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSheet()
			if err != nil {
				return err
			}
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			v, err := s.GetValue(pos)
			if err != nil {
				return err
			}
			fmt.Println(v.String())
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <cell> <text>",
		Short: "Set a cell's text or formula",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSheet()
			if err != nil {
				return err
			}
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			if err := s.SetCell(pos, args[1]); err != nil {
				return err
			}
			return saveSheet(s)
		},
	}
}

func newPrintCmd() *cobra.Command {
	var showFormulas bool
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the whole sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSheet()
			if err != nil {
				return err
			}
			if showFormulas {
				return s.PrintTexts(os.Stdout)
			}
			return s.PrintValues(os.Stdout)
		},
	}
	cmd.Flags().BoolVar(&showFormulas, "formulas", false, "print raw text/formulas instead of evaluated values")
	return cmd
}

func newInsertRowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert-rows <before> <count>",
		Short: "Insert blank rows before the given row index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRangeArgs(args, func(s *sheet.Sheet, before, count int) error {
				return s.InsertRows(before, count)
			})
		},
	}
}

func newInsertColsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert-cols <before> <count>",
		Short: "Insert blank columns before the given column index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRangeArgs(args, func(s *sheet.Sheet, before, count int) error {
				return s.InsertCols(before, count)
			})
		},
	}
}

func newDeleteRowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-rows <first> <count>",
		Short: "Delete rows starting at the given row index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRangeArgs(args, func(s *sheet.Sheet, first, count int) error {
				return s.DeleteRows(first, count)
			})
		},
	}
}

func newDeleteColsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-cols <first> <count>",
		Short: "Delete columns starting at the given column index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRangeArgs(args, func(s *sheet.Sheet, first, count int) error {
				return s.DeleteCols(first, count)
			})
		},
	}
}

func withRangeArgs(args []string, edit func(*sheet.Sheet, int, int) error) error {
	first, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[0], err)
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", args[1], err)
	}
	s, err := loadSheet()
	if err != nil {
		return err
	}
	if err := edit(s, first, count); err != nil {
		return err
	}
	return saveSheet(s)
}
