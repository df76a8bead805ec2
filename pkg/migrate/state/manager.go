// Package state keeps a log of migration runs and their tables so an
// operator can see what the last run did, and so runs that never finished
// are marked aborted.
package state

import (
	"errors"
	"time"

	"github.com/baderkha/db-migrate/pkg/migrate/report"
)

type RunLogState string

const (
	Started RunLogState = "STARTED"
	Success RunLogState = "SUCCESS"
	Aborted RunLogState = "ABORTED"
	Failed  RunLogState = "FAILED"
)

// ErrNotFound : no run with that id
var ErrNotFound = errors.New("state: run not found")

type Base struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type RunLog struct {
	RunID                 string      `json:"run_id" db:"run_id" gorm:"primaryKey;type:varchar(36)"`
	Source                string      `json:"source" db:"source" gorm:"type:varchar(255)"`
	Target                string      `json:"target" db:"target" gorm:"type:varchar(255)"`
	TotalTablesForThisRun int         `json:"total_tables_for_run" db:"total_tables_for_run"`
	TablesMigrated        int         `json:"tables_migrated" db:"tables_migrated"`
	RowsMigrated          int64       `json:"rows_migrated" db:"rows_migrated"`
	Status                RunLogState `json:"status" db:"status" gorm:"type:varchar(50)"`
	ErrMsg                string      `json:"err_msg,omitempty" db:"err_msg"`
	Base
}

type TableRunLog struct {
	ID          uint        `json:"-" gorm:"primaryKey;autoIncrement"`
	ParentRunID string      `json:"parent_run_id" db:"parent_run_id" gorm:"type:varchar(36);index"`
	TableName   string      `json:"table_name" db:"table_name" gorm:"type:varchar(255)"`
	RowWritten  int64       `json:"rows_written_target" db:"rows_written_target"`
	Chunks      int         `json:"chunks" db:"chunks"`
	Attempts    int         `json:"attempts" db:"attempts"`
	SourceRows  int64       `json:"source_rows" db:"source_rows"`
	TargetRows  int64       `json:"target_rows" db:"target_rows"`
	Validated   bool        `json:"validated" db:"validated"`
	Matched     bool        `json:"matched" db:"matched"`
	Status      RunLogState `json:"status" db:"status" gorm:"type:varchar(50)"`
	ErrMsg      string      `json:"err_msg,omitempty" db:"err_msg"`
	Base
}

// Manager : run log store. It also receives the orchestrator's progress
// notifications.
type Manager interface {
	// GetLastRun : most recent run, nil when there is none
	GetLastRun() (*RunLog, error)
	// GetRunLog : GetRunLog get a specific run log
	GetRunLog(runID string) (*RunLog, error)
	GetTableRunLogs(runID string) ([]*TableRunLog, error)
	DidTableFailForRun(runID string) (bool, error)
	// AbortRun marks a run and its unfinished tables aborted.
	AbortRun(runID string) error
	// OnShutDownEv aborts the last run if it never finished.
	OnShutDownEv() error

	RunStarted(runID, source, target string) error
	TableStarted(runID, tableName string) error
	TableFinished(runID string, t report.TransferOutcome, v *report.ValidationOutcome) error
	RunFinished(r *report.Report) error

	Close() error
}
