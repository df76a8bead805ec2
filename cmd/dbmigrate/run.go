package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/baderkha/db-migrate/pkg/migrate"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/connection"
	"github.com/baderkha/db-migrate/pkg/migrate/report"
	"github.com/baderkha/db-migrate/pkg/migrate/state"
	"github.com/spf13/cobra"
)

var (
	runTables      []string
	runChunkSize   int
	runConcurrency int
	runMaxRetry    int
	runOutput      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Migrate tables from the source to the target",
	Long: `Copies each table in chunks, replacing the destination table on the first
chunk and appending the rest, then compares source and target row counts.
Without --tables every table found at the source is migrated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runMigration(cmd, cfg)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runTables, "tables", nil, "comma separated tables to migrate, default is every source table")
	f.IntVar(&runChunkSize, "chunk-size", 0, "rows per chunk")
	f.IntVar(&runConcurrency, "concurrency", 0, "tables migrated at once")
	f.IntVar(&runMaxRetry, "max-retry", 0, "times a failed table is retried from scratch")
	f.StringVar(&runOutput, "output", "", "write the report to a file (.json, .yaml) or s3://bucket/key")
}

func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("tables") {
		c.Tables = c.Tables[:0]
		for _, name := range runTables {
			if name = strings.TrimSpace(name); name != "" {
				c.Tables = append(c.Tables, config.TableConfig{Name: name})
			}
		}
	}
	if cmd.Flags().Changed("chunk-size") {
		c.BatchRecordSize = runChunkSize
	}
	if cmd.Flags().Changed("concurrency") {
		c.MaxConcurrency = runConcurrency
	}
	if cmd.Flags().Changed("max-retry") {
		c.MaxRetry = runMaxRetry
	}
	if cmd.Flags().Changed("output") {
		c.Output = runOutput
	}
}

func runMigration(cmd *cobra.Command, c *config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		rec migrate.Recorder
		mgr *state.GormManager
		err error
	)
	if c.StateDB != "" {
		mgr, err = state.NewSqliteGormManager(c.StateDB, log)
		if err != nil {
			return err
		}
		defer mgr.Close()
		// a previous process that died mid run never finished its log
		if err := mgr.OnShutDownEv(); err != nil {
			log.Warn().Err(err).Msg("could not settle the previous run")
		}
		rec = mgr
	}

	connector := connection.NewConnector(connection.Options{Logger: log})
	orch := migrate.NewOrchestrator(connector, migrate.OptionsFromConfig(c, log, rec))
	r, runErr := migrate.RunConfig(ctx, orch, c)

	if ctx.Err() != nil {
		log.Warn().Msg("Interrupt received. Stopped gracefully")
		if mgr != nil && r != nil {
			if err := mgr.AbortRun(r.RunID); err != nil {
				log.Warn().Err(err).Msg("could not mark the run aborted")
			}
		}
	}
	if r == nil {
		return runErr
	}

	if c.Output != "" {
		if err := saveReport(c, r); err != nil {
			log.Error().Err(err).Str("output", c.Output).Msg("could not save report")
		} else {
			log.Info().Str("output", c.Output).Msg("report saved")
		}
	}
	printSummary(cmd.OutOrStdout(), r)

	if runErr != nil {
		return runErr
	}
	if !r.Succeeded() {
		return errRunFailed
	}
	return nil
}

// saveReport runs outside the run context so an interrupted run still
// leaves its report behind.
func saveReport(c *config.Config, r *report.Report) error {
	var up *report.Uploader
	if strings.HasPrefix(c.Output, "s3://") {
		var err error
		up, err = report.NewS3Uploader(c.MaxRetry)
		if err != nil {
			return err
		}
	}
	return report.Save(context.Background(), fs, up, c.Output, r)
}
