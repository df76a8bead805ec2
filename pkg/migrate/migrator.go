package migrate

import (
	"context"

	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/report"
	"github.com/baderkha/db-migrate/pkg/migrate/table"
	"github.com/rs/zerolog"
)

// Runner : runs a migration between a source and a target
type Runner interface {
	Run(ctx context.Context, source, target config.Endpoint, tables []table.Spec) (*report.Report, error)
}

var _ Runner = (*Orchestrator)(nil)

// TableSpecs turns the job file's table list into specs. No tables key gives
// nil, which makes a run discover the source tables.
func TableSpecs(cfg *config.Config) []table.Spec {
	if cfg.Tables == nil {
		return nil
	}
	specs := make([]table.Spec, 0, len(cfg.Tables))
	for _, t := range cfg.Tables {
		specs = append(specs, table.Spec{Name: t.Name, ChunkSize: t.ChunkSize})
	}
	return specs
}

// OptionsFromConfig maps the job's run settings onto orchestrator options.
func OptionsFromConfig(cfg *config.Config, log zerolog.Logger, rec Recorder) Options {
	return Options{
		ChunkSize:   cfg.BatchRecordSize,
		Concurrency: cfg.MaxConcurrency,
		MaxRetry:    cfg.MaxRetry,
		Logger:      log,
		Recorder:    rec,
	}
}

// RunConfig runs the migration a job file describes.
func RunConfig(ctx context.Context, r Runner, cfg *config.Config) (*report.Report, error) {
	return r.Run(ctx, cfg.Source, cfg.Target, TableSpecs(cfg))
}
