// Command sgpa computes a semester GPA offline from a JSON file of course
// rows, without a database or server.
//
//	sgpa [-xlsx out.xlsx] [rows.json]
//
// The input is either a JSON array of rows or an object with a "rows" array.
// With no file argument, rows are read from stdin.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/semester"
	"github.com/stemsi/sgpa-planner/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sgpa:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("sgpa", flag.ContinueOnError)
	fs.SetOutput(stdout)
	xlsxPath := fs.String("xlsx", "", "also write the sheet to this .xlsx file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	rows, err := readRows(in)
	if err != nil {
		return err
	}

	printSheet(stdout, rows)

	if *xlsxPath != "" {
		overview := &model.PlannerOverview{
			Semesters: []model.SemesterSummary{{
				Number:       1,
				SGPA:         semester.ComputeSGPA(rows),
				TotalCredits: rows.TotalCredits(),
				RowCount:     len(rows),
			}},
			CGPA:         semester.ComputeSGPA(rows),
			TotalCredits: rows.TotalCredits(),
		}
		data, err := service.BuildWorkbook(overview, map[int]semester.Rows{1: rows})
		if err != nil {
			return err
		}
		if err := os.WriteFile(*xlsxPath, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func readRows(r io.Reader) (semester.Rows, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("no input rows")
	}

	var rows semester.Rows
	if raw[0] == '[' {
		err = json.Unmarshal(raw, &rows)
	} else {
		var wrapped struct {
			Rows semester.Rows `json:"rows"`
		}
		err = json.Unmarshal(raw, &wrapped)
		rows = wrapped.Rows
	}
	if err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows.Normalize(), nil
}

func printSheet(w io.Writer, rows semester.Rows) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMODULE\tCODE\tCREDIT\tGRADE\tCREDIT POINT\t")
	for i, r := range rows {
		mark := ""
		if !r.Complete() {
			mark = "(incomplete)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%s\t%.2f\t%s\n", i+1, r.ModuleName, r.ModuleCode, r.Credit, r.Grade, r.CreditPoint, mark)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nTotal credits: %g\n", rows.TotalCredits())
	fmt.Fprintf(w, "SGPA: %.4f\n", semester.ComputeSGPA(rows))
}
