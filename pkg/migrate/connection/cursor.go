package connection

import (
	"context"
	"database/sql"
	"io"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
)

// cursor pages a single SELECT * result set; the rows handle stays open
// across batches so nothing is read twice.
type cursor struct {
	table     string
	rows      *sql.Rows
	cols      []adapter.Column
	chunkSize int
	done      bool
}

func (c *cursor) Next(ctx context.Context) (*adapter.Batch, error) {
	if c.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	capacity := c.chunkSize
	if capacity > 1024 {
		capacity = 1024
	}
	b := &adapter.Batch{Columns: c.cols, Rows: make([]adapter.Row, 0, capacity)}
	for len(b.Rows) < c.chunkSize {
		if !c.rows.Next() {
			c.done = true
			if err := c.rows.Err(); err != nil {
				return nil, &fault.TransferError{Table: c.table, Phase: fault.PhaseRead, Err: err}
			}
			break
		}
		vals := make([]any, len(c.cols))
		ptrs := make([]any, len(c.cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, &fault.TransferError{Table: c.table, Phase: fault.PhaseRead, Err: err}
		}
		b.Rows = append(b.Rows, vals)
	}

	if len(b.Rows) == 0 {
		return nil, io.EOF
	}
	return b, nil
}

func (c *cursor) Close() error {
	return c.rows.Close()
}

func columnsOf(types []*sql.ColumnType) []adapter.Column {
	cols := make([]adapter.Column, len(types))
	for i, ct := range types {
		col := adapter.Column{
			Name: ct.Name(),
			Type: colmap.SourceType{DatabaseType: ct.DatabaseTypeName()},
		}
		col.Nullable, _ = ct.Nullable()
		col.Type.Length, col.Type.HasLength = ct.Length()
		col.Type.Precision, col.Type.Scale, col.Type.HasDecimal = ct.DecimalSize()
		cols[i] = col
	}
	return cols
}
