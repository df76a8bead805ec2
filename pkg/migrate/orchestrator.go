package migrate

import (
	"context"
	"sync"
	"time"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
	"github.com/baderkha/db-migrate/pkg/migrate/report"
	"github.com/baderkha/db-migrate/pkg/migrate/table"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Recorder is told about run progress, typically to keep a state log.
// Its errors are logged and never stop a run. Calls are serialized.
type Recorder interface {
	RunStarted(runID, source, target string) error
	TableStarted(runID, tableName string) error
	TableFinished(runID string, t report.TransferOutcome, v *report.ValidationOutcome) error
	RunFinished(r *report.Report) error
}

type Options struct {
	// ChunkSize is the run default for tables that do not set one.
	ChunkSize int
	// Concurrency is the number of tables migrated at once, each worker
	// owning its own source/target connection pair.
	Concurrency int
	// MaxRetry re-runs a failed table transfer from scratch.
	MaxRetry int
	Logger   zerolog.Logger
	Recorder Recorder
	Now      func() time.Time
}

// Orchestrator drives a whole migration run.
type Orchestrator struct {
	connector adapter.Connector
	opts      Options
	locks     tableLocks
	recMu     sync.Mutex
}

func NewOrchestrator(c adapter.Connector, opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetry < 0 {
		opts.MaxRetry = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{connector: c, opts: opts}
}

// tableResult : everything one table contributes to the report
type tableResult struct {
	transfer      report.TransferOutcome
	transferErr   error
	validation    *report.ValidationOutcome
	validationErr error
}

// Run migrates tables and returns the frozen report. A nil tables means every
// table found at the source; an empty, non nil list migrates nothing. Only
// connect and discovery failures are returned as errors; everything per table
// is in the report.
func (o *Orchestrator) Run(ctx context.Context, source, target config.Endpoint, tables []table.Spec) (*report.Report, error) {
	var (
		runID = uuid.Must(uuid.NewV4()).String()
		b     = report.NewBuilder(runID, source.String(), target.String(), o.opts.Now())
		log   = o.opts.Logger.With().Str("run_id", runID).Logger()
	)
	o.record(log, func(r Recorder) error { return r.RunStarted(runID, source.String(), target.String()) })
	log.Info().Str("source", source.String()).Str("target", target.String()).Msg("migration run started")

	discover := tables == nil
	var resolved []table.Spec
	if !discover {
		resolved = table.Resolve(tables, o.opts.ChunkSize)
	}

	p := newPool(o.opts.Concurrency)
	defer o.closePool(log, p)
	// discovery needs a single pair, the rest wait until the table count is known
	if err := p.grow(ctx, o.connector, source, target, o.workers(discover, resolved)); err != nil {
		return o.abort(log, b, err)
	}

	if discover {
		pr := p.acquire()
		names, err := pr.src.ListTables(ctx)
		p.release(pr)
		if err != nil {
			return o.abort(log, b, &fault.DiscoveryError{Endpoint: source.String(), Err: err})
		}
		resolved = table.Resolve(table.Specs(names...), o.opts.ChunkSize)
		log.Info().Int("tables", len(resolved)).Msg("discovered source tables")
		if err := p.grow(ctx, o.connector, source, target, o.workers(false, resolved)); err != nil {
			return o.abort(log, b, err)
		}
	}

	f := &folder{b: b, results: make([]*tableResult, len(resolved))}
	var wg errgroup.Group
	wg.SetLimit(p.size())
	for i, spec := range resolved {
		i, spec := i, spec
		wg.Go(func() error {
			f.done(i, o.migrateTable(ctx, log, p, runID, target, spec))
			return nil
		})
	}
	_ = wg.Wait()

	r, err := b.Finish(o.opts.Now())
	if err != nil {
		return nil, err
	}
	o.record(log, func(rec Recorder) error { return rec.RunFinished(r) })
	log.Info().
		Int("tables_migrated", r.TablesMigrated).
		Int64("rows_migrated", r.RowsMigrated).
		Int("errors", len(r.Errors)).
		Dur("took", r.Duration()).
		Msg("migration run finished")
	return r, nil
}

// workers : connection pairs needed, one per table up to Concurrency
func (o *Orchestrator) workers(discover bool, resolved []table.Spec) int {
	n := o.opts.Concurrency
	if !discover && len(resolved) < n {
		n = len(resolved)
	}
	if discover || n < 1 {
		n = 1
	}
	return n
}

func (o *Orchestrator) migrateTable(ctx context.Context, log zerolog.Logger, p *pool, runID string, target config.Endpoint, spec table.Spec) *tableResult {
	tlog := log.With().Str("table", spec.Name).Logger()
	res := &tableResult{}

	if ctx.Err() != nil {
		err := &fault.TransferError{Table: spec.Name, Phase: fault.PhaseStart, Err: context.Cause(ctx)}
		res.transfer = report.TransferOutcome{Table: spec.Name, Status: report.Failed, Error: err.Error()}
		res.transferErr = err
		o.record(tlog, func(r Recorder) error { return r.TableFinished(runID, res.transfer, nil) })
		return res
	}

	pr := p.acquire()
	defer p.release(pr)
	unlock := o.locks.lock(target.String() + "/" + spec.Name)
	defer unlock()

	o.record(tlog, func(r Recorder) error { return r.TableStarted(runID, spec.Name) })
	tlog.Info().Int("chunk_size", spec.ChunkSize).Msg("transferring table")

	var (
		start    = time.Now()
		attempts []string
	)
	for attempt := 1; ; attempt++ {
		res.transfer, res.transferErr = Transfer(ctx, pr.src, pr.dst, spec.Name, spec.ChunkSize)
		res.transfer.Attempts = attempt
		if res.transferErr == nil || attempt > o.opts.MaxRetry || ctx.Err() != nil {
			break
		}
		attempts = append(attempts, res.transferErr.Error())
		tlog.Warn().Err(res.transferErr).Int("attempt", attempt).Msg("transfer failed, retrying table")
	}
	res.transfer.AttemptErrors = attempts
	res.transfer.Duration = time.Since(start)

	if res.transferErr != nil {
		tlog.Error().Err(res.transferErr).
			Int64("rows", res.transfer.RowsTransferred).
			Int("chunks", res.transfer.Chunks).
			Msg("table transfer failed")
	} else {
		v, err := Validate(ctx, pr.src, pr.dst, spec.Name)
		if err != nil {
			res.validationErr = err
			tlog.Error().Err(err).Msg("table validation failed")
		} else {
			res.validation = &v
			ev := tlog.Info()
			if !v.Matched {
				ev = tlog.Warn()
			}
			ev.Int64("source_rows", v.SourceRows).
				Int64("target_rows", v.TargetRows).
				Bool("matched", v.Matched).
				Int("chunks", res.transfer.Chunks).
				Msg("table migrated")
		}
	}

	o.record(tlog, func(r Recorder) error { return r.TableFinished(runID, res.transfer, res.validation) })
	return res
}

// abort finishes a run that never reached its tables.
func (o *Orchestrator) abort(log zerolog.Logger, b *report.Builder, cause error) (*report.Report, error) {
	log.Error().Err(cause).Msg("migration run aborted")
	_ = b.AddError(cause)
	r, err := b.Finish(o.opts.Now())
	if err != nil {
		return nil, err
	}
	o.record(log, func(rec Recorder) error { return rec.RunFinished(r) })
	return r, cause
}

func (o *Orchestrator) closePool(log zerolog.Logger, p *pool) {
	if err := p.close(); err != nil {
		log.Warn().Err(err).Msg("could not close all connections")
	}
}

func (o *Orchestrator) record(log zerolog.Logger, fn func(Recorder) error) {
	if o.opts.Recorder == nil {
		return
	}
	o.recMu.Lock()
	defer o.recMu.Unlock()
	if err := fn(o.opts.Recorder); err != nil {
		log.Warn().Err(err).Msg("could not record run state")
	}
}

// folder adds results to the report in resolved order, whatever order the
// workers finish in.
type folder struct {
	mu      sync.Mutex
	b       *report.Builder
	results []*tableResult
	next    int
}

func (f *folder) done(i int, res *tableResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[i] = res
	for f.next < len(f.results) && f.results[f.next] != nil {
		r := f.results[f.next]
		_ = f.b.AddTransfer(r.transfer)
		_ = f.b.AddError(r.transferErr)
		if r.validation != nil {
			_ = f.b.AddValidation(*r.validation)
		}
		_ = f.b.AddError(r.validationErr)
		f.next++
	}
}
