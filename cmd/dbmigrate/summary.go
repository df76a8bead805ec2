package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/baderkha/db-migrate/pkg/migrate/report"
	"github.com/lensesio/tableprinter"
)

type summaryRow struct {
	Table    string `header:"table"`
	Status   string `header:"status"`
	Rows     int64  `header:"rows"`
	Chunks   int    `header:"chunks"`
	Attempts int    `header:"attempts"`
	Source   string `header:"source count"`
	Target   string `header:"target count"`
	Verified string `header:"verified"`
	Took     string `header:"took"`
}

func summaryRows(r *report.Report) []summaryRow {
	validations := make(map[string]report.ValidationOutcome, len(r.Validations))
	for _, v := range r.Validations {
		validations[v.Table] = v
	}

	rows := make([]summaryRow, 0, len(r.Transfers))
	for _, t := range r.Transfers {
		row := summaryRow{
			Table:    t.Table,
			Status:   string(t.Status),
			Rows:     t.RowsTransferred,
			Chunks:   t.Chunks,
			Attempts: t.Attempts,
			Source:   "-",
			Target:   "-",
			Verified: "-",
			Took:     t.Duration.Round(time.Millisecond).String(),
		}
		if v, ok := validations[t.Table]; ok {
			row.Source = strconv.FormatInt(v.SourceRows, 10)
			row.Target = strconv.FormatInt(v.TargetRows, 10)
			row.Verified = strconv.FormatBool(v.Matched)
		}
		rows = append(rows, row)
	}
	return rows
}

func printSummary(w io.Writer, r *report.Report) {
	fmt.Fprintf(w, "Run %s : %s -> %s\n", r.RunID, r.Source, r.Target)
	if rows := summaryRows(r); len(rows) > 0 {
		tableprinter.Print(w, rows)
	}
	fmt.Fprintf(w, "Tables migrated: %d/%d\n", r.TablesMigrated, len(r.Transfers))
	fmt.Fprintf(w, "Rows migrated: %d\n", r.RowsMigrated)
	fmt.Fprintf(w, "Time taken: %s\n", r.Duration().Round(time.Millisecond))
	if mm := r.Mismatches(); len(mm) > 0 {
		fmt.Fprintf(w, "Row count mismatches: %d\n", len(mm))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "Errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if r.Succeeded() {
		fmt.Fprintln(w, "Result: SUCCEEDED")
	} else {
		fmt.Fprintln(w, "Result: FAILED")
	}
}
