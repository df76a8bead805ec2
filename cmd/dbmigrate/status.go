package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/baderkha/db-migrate/pkg/migrate/state"
	"github.com/lensesio/tableprinter"
	"github.com/spf13/cobra"
)

var statusRunID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest run, or --run-id, from the run log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StateDB == "" {
			return errors.New("no run log configured, set state_db or --state-db")
		}
		mgr, err := state.NewSqliteGormManager(cfg.StateDB, log)
		if err != nil {
			return err
		}
		defer mgr.Close()
		return printStatus(cmd.OutOrStdout(), mgr, statusRunID)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run-id", "", "run to show, default is the most recent")
}

type tableStatusRow struct {
	Table    string `header:"table"`
	Status   string `header:"status"`
	Rows     int64  `header:"rows"`
	Chunks   int    `header:"chunks"`
	Attempts int    `header:"attempts"`
	Matched  string `header:"verified"`
	Error    string `header:"error"`
}

func printStatus(w io.Writer, mgr state.Manager, runID string) error {
	var (
		run *state.RunLog
		err error
	)
	if runID == "" {
		run, err = mgr.GetLastRun()
	} else {
		run, err = mgr.GetRunLog(runID)
	}
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	fmt.Fprintf(w, "Run %s : %s\n", run.RunID, run.Status)
	fmt.Fprintf(w, "%s -> %s\n", run.Source, run.Target)
	fmt.Fprintf(w, "Started: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Tables migrated: %d/%d, rows migrated: %d\n", run.TablesMigrated, run.TotalTablesForThisRun, run.RowsMigrated)

	tables, err := mgr.GetTableRunLogs(run.RunID)
	if err != nil {
		return err
	}
	rows := make([]tableStatusRow, 0, len(tables))
	for _, t := range tables {
		matched := "-"
		if t.Validated {
			matched = fmt.Sprint(t.Matched)
		}
		rows = append(rows, tableStatusRow{
			Table:    t.TableName,
			Status:   string(t.Status),
			Rows:     t.RowWritten,
			Chunks:   t.Chunks,
			Attempts: t.Attempts,
			Matched:  matched,
			Error:    t.ErrMsg,
		})
	}
	if len(rows) > 0 {
		tableprinter.Print(w, rows)
	}
	return nil
}
