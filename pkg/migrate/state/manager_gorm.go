package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baderkha/db-migrate/pkg/migrate/report"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ Manager = (*GormManager)(nil)

type GormManager struct {
	DB  *gorm.DB
	log zerolog.Logger
}

// NewSqliteGormManager opens (creating if needed) the run log at path.
func NewSqliteGormManager(path string, log zerolog.Logger) (*GormManager, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("state: could not open %s : %w", path, err)
	}
	if err := db.AutoMigrate(&RunLog{}, &TableRunLog{}); err != nil {
		return nil, fmt.Errorf("Could not migrate %w", err)
	}
	return &GormManager{DB: db, log: log}, nil
}

func (m *GormManager) Close() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (m *GormManager) OnShutDownEv() error {
	run, err := m.GetLastRun()
	if err != nil || run == nil {
		return err
	}
	if run.Status != Started {
		return nil
	}
	m.log.Warn().Str("run_id", run.RunID).Msgf("Last Run had status as %s , moving that to %s INSTEAD", Started, Aborted)
	return m.AbortRun(run.RunID)
}

func (m *GormManager) AbortRun(runID string) error {
	return m.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&RunLog{}).Where("run_id = ?", runID).Updates(RunLog{Status: Aborted}).Error
		if err != nil {
			return err
		}
		return tx.Model(&TableRunLog{}).
			Where("parent_run_id = ? AND status = ?", runID, Started).
			Update("status", Aborted).Error
	})
}

func (m *GormManager) GetLastRun() (*RunLog, error) {
	var lastRun RunLog
	err := m.DB.Order("created_at desc").Order("rowid desc").First(&lastRun).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lastRun, nil
}

func (m *GormManager) GetRunLog(runID string) (*RunLog, error) {
	var runLog RunLog
	err := m.DB.Where("run_id = ?", runID).First(&runLog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &runLog, nil
}

func (m *GormManager) GetTableRunLogs(runID string) ([]*TableRunLog, error) {
	var tableRunLogs []*TableRunLog
	err := m.DB.Where("parent_run_id = ?", runID).Order("id").Find(&tableRunLogs).Error
	return tableRunLogs, err
}

func (m *GormManager) DidTableFailForRun(runID string) (bool, error) {
	var failedTableRunLogs int64
	err := m.DB.Model(&TableRunLog{}).
		Where("parent_run_id = ? AND status = ?", runID, Failed).
		Count(&failedTableRunLogs).Error
	return failedTableRunLogs > 0, err
}

func (m *GormManager) RunStarted(runID, source, target string) error {
	return m.DB.Create(&RunLog{
		RunID:  runID,
		Source: source,
		Target: target,
		Status: Started,
	}).Error
}

func (m *GormManager) TableStarted(runID, tableName string) error {
	return m.DB.Create(&TableRunLog{
		ParentRunID: runID,
		TableName:   tableName,
		Status:      Started,
	}).Error
}

// TableFinished closes the table's STARTED entry, or adds a finished one
// when the table was never started (a cancelled run).
func (m *GormManager) TableFinished(runID string, t report.TransferOutcome, v *report.ValidationOutcome) error {
	status := Success
	if !t.Succeeded() {
		status = Failed
	}
	// map keeps zero values such as 0 rows and matched=false
	fields := map[string]any{
		"status":      status,
		"err_msg":     t.Error,
		"row_written": t.RowsTransferred,
		"chunks":      t.Chunks,
		"attempts":    t.Attempts,
		"validated":   v != nil,
	}
	if v != nil {
		fields["source_rows"] = v.SourceRows
		fields["target_rows"] = v.TargetRows
		fields["matched"] = v.Matched
	}

	res := m.DB.Model(&TableRunLog{}).
		Where("parent_run_id = ? AND table_name = ? AND status = ?", runID, t.Table, Started).
		Updates(fields)
	if res.Error != nil || res.RowsAffected > 0 {
		return res.Error
	}

	entry := TableRunLog{
		ParentRunID: runID,
		TableName:   t.Table,
		RowWritten:  t.RowsTransferred,
		Chunks:      t.Chunks,
		Attempts:    t.Attempts,
		Status:      status,
		ErrMsg:      t.Error,
		Validated:   v != nil,
	}
	if v != nil {
		entry.SourceRows, entry.TargetRows, entry.Matched = v.SourceRows, v.TargetRows, v.Matched
	}
	return m.DB.Create(&entry).Error
}

func (m *GormManager) RunFinished(r *report.Report) error {
	status := Success
	if !r.Succeeded() {
		status = Failed
	}
	return m.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&RunLog{}).Where("run_id = ?", r.RunID).Updates(map[string]any{
			"status":                    status,
			"err_msg":                   strings.Join(r.Errors, "\n"),
			"total_tables_for_this_run": len(r.Transfers),
			"tables_migrated":           r.TablesMigrated,
			"rows_migrated":             r.RowsMigrated,
		}).Error
		if err != nil {
			return err
		}
		if status == Failed {
			return tx.Model(&TableRunLog{}).
				Where("parent_run_id = ? and status = ?", r.RunID, Started).
				Update("status", Aborted).Error
		}
		return nil
	})
}
