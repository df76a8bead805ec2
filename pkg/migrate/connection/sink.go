package connection

import (
	"context"
	"fmt"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/dialect"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
)

type sink struct {
	conn  *Conn
	table string
}

func (s *sink) fail(phase fault.Phase, err error) error {
	return &fault.TransferError{Table: s.table, Phase: phase, Err: err}
}

func (s *sink) CreateOrReplace(ctx context.Context, first *adapter.Batch) error {
	d := s.conn.dialect
	ddl, err := dialect.CreateTableSQL(d, s.table, first.Columns)
	if err != nil {
		return s.fail(fault.PhaseCreate, err)
	}
	if _, err := s.conn.db.ExecContext(ctx, d.DropTableIfExists(s.table)); err != nil {
		return s.fail(fault.PhaseCreate, fmt.Errorf("drop : %w", err))
	}
	if _, err := s.conn.db.ExecContext(ctx, ddl); err != nil {
		return s.fail(fault.PhaseCreate, fmt.Errorf("create : %w", err))
	}
	s.conn.log.Debug().Str("table", s.table).Str("ddl", ddl).Msg("destination table created")
	return s.write(ctx, first, fault.PhaseCreate)
}

func (s *sink) Append(ctx context.Context, b *adapter.Batch) error {
	return s.write(ctx, b, fault.PhaseAppend)
}

// write loads one batch, through the dialect's bulk path when it has one,
// otherwise with a prepared insert per row inside one transaction.
func (s *sink) write(ctx context.Context, b *adapter.Batch, phase fault.Phase) error {
	if b.Len() == 0 {
		return nil
	}

	if copier, ok := s.conn.dialect.(dialect.BulkCopier); ok {
		conn, err := s.conn.db.Conn(ctx)
		if err != nil {
			return s.fail(phase, err)
		}
		handled, err := copier.CopyBatch(ctx, conn, s.table, b)
		_ = conn.Close()
		if err != nil {
			return s.fail(phase, err)
		}
		if handled {
			return nil
		}
	}

	tx, err := s.conn.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(phase, err)
	}
	stmt, err := tx.PrepareContext(ctx, dialect.InsertSQL(s.conn.dialect, s.table, b.ColumnNames()))
	if err != nil {
		_ = tx.Rollback()
		return s.fail(phase, err)
	}
	for _, row := range b.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return s.fail(phase, err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return s.fail(phase, err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail(phase, err)
	}
	return nil
}
