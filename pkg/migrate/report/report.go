// Package report holds the outcome of a migration run.
//
// A Builder accumulates outcomes while the run is in flight and is owned by
// the orchestrator alone. Finish freezes it into a Report, which callers
// persist or print.
package report

import (
	"errors"
	"sync"
	"time"
)

type Status string

const (
	Succeeded Status = "SUCCEEDED"
	Failed    Status = "FAILED"
)

// TransferOutcome : terminal record of one table's transfer. AttemptErrors
// holds why each earlier attempt failed when the table was retried.
type TransferOutcome struct {
	Table           string        `json:"table" yaml:"table"`
	RowsTransferred int64         `json:"rows_transferred" yaml:"rows_transferred"`
	Chunks          int           `json:"chunks" yaml:"chunks"`
	Status          Status        `json:"status" yaml:"status"`
	Error           string        `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts        int           `json:"attempts" yaml:"attempts"`
	AttemptErrors   []string      `json:"attempt_errors,omitempty" yaml:"attempt_errors,omitempty"`
	Duration        time.Duration `json:"duration_ns" yaml:"duration"`
}

func (o TransferOutcome) Succeeded() bool { return o.Status == Succeeded }

// ValidationOutcome : row count comparison for a transferred table
type ValidationOutcome struct {
	Table      string `json:"table" yaml:"table"`
	SourceRows int64  `json:"source_rows" yaml:"source_rows"`
	TargetRows int64  `json:"target_rows" yaml:"target_rows"`
	Matched    bool   `json:"matched" yaml:"matched"`
}

type Report struct {
	RunID          string              `json:"run_id" yaml:"run_id"`
	Source         string              `json:"source" yaml:"source"`
	Target         string              `json:"target" yaml:"target"`
	StartedAt      time.Time           `json:"started_at" yaml:"started_at"`
	EndedAt        *time.Time          `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
	Transfers      []TransferOutcome   `json:"transfers" yaml:"transfers"`
	Validations    []ValidationOutcome `json:"validations" yaml:"validations"`
	TablesMigrated int                 `json:"tables_migrated" yaml:"tables_migrated"`
	RowsMigrated   int64               `json:"rows_migrated" yaml:"rows_migrated"`
	Errors         []string            `json:"errors" yaml:"errors"`
}

// Succeeded : no errors and every validation matched
func (r *Report) Succeeded() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, v := range r.Validations {
		if !v.Matched {
			return false
		}
	}
	return true
}

func (r *Report) Duration() time.Duration {
	if r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Mismatches lists validations whose counts differ.
func (r *Report) Mismatches() []ValidationOutcome {
	var out []ValidationOutcome
	for _, v := range r.Validations {
		if !v.Matched {
			out = append(out, v)
		}
	}
	return out
}

func (r *Report) clone() *Report {
	c := *r
	c.Transfers = append([]TransferOutcome(nil), r.Transfers...)
	c.Validations = append([]ValidationOutcome(nil), r.Validations...)
	c.Errors = append([]string(nil), r.Errors...)
	if r.EndedAt != nil {
		end := *r.EndedAt
		c.EndedAt = &end
	}
	return &c
}

// ErrFinalized : the builder was already finished
var ErrFinalized = errors.New("report: already finalized")

// Builder : append-only accumulator for one run
type Builder struct {
	mu       sync.Mutex
	r        Report
	finished bool
}

func NewBuilder(runID, source, target string, start time.Time) *Builder {
	return &Builder{r: Report{
		RunID:       runID,
		Source:      source,
		Target:      target,
		StartedAt:   start,
		Transfers:   []TransferOutcome{},
		Validations: []ValidationOutcome{},
		Errors:      []string{},
	}}
}

// AddTransfer records an outcome and keeps the aggregates in step with it.
func (b *Builder) AddTransfer(o TransferOutcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return ErrFinalized
	}
	b.r.Transfers = append(b.r.Transfers, o)
	if o.Succeeded() {
		b.r.TablesMigrated++
		b.r.RowsMigrated += o.RowsTransferred
	}
	return nil
}

func (b *Builder) AddValidation(v ValidationOutcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return ErrFinalized
	}
	b.r.Validations = append(b.r.Validations, v)
	return nil
}

func (b *Builder) AddError(err error) error {
	if err == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return ErrFinalized
	}
	b.r.Errors = append(b.r.Errors, err.Error())
	return nil
}

// Finish stamps the end time and returns the frozen report. It can only
// happen once.
func (b *Builder) Finish(end time.Time) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return nil, ErrFinalized
	}
	b.finished = true
	b.r.EndedAt = &end
	return b.r.clone(), nil
}
