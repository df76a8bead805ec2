// Package adapter holds the capabilities the migration engine needs from a
// database endpoint. Engine specific code lives behind these interfaces in
// the dialect and connection packages.
package adapter

import (
	"context"

	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
)

// Column : a result column of a source table
type Column struct {
	Name     string
	Nullable bool
	Type     colmap.SourceType
}

// Row : values aligned with Batch.Columns
type Row []any

// Batch : a bounded slice of a table's rows
type Batch struct {
	Columns []Column
	Rows    []Row
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// ColumnNames in select order.
func (b *Batch) ColumnNames() []string {
	names := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		names[i] = c.Name
	}
	return names
}

// Record returns row i as a column name -> value mapping.
func (b *Batch) Record(i int) map[string]any {
	rec := make(map[string]any, len(b.Columns))
	for j, c := range b.Columns {
		rec[c.Name] = b.Rows[i][j]
	}
	return rec
}

// Cursor : forward only reader over one table. Next returns io.EOF once the
// table is exhausted; batches never overlap and never skip rows.
type Cursor interface {
	Next(ctx context.Context) (*Batch, error)
	Close() error
}

// Sink : writer for one destination table
type Sink interface {
	// CreateOrReplace drops the destination table if it exists, creates it
	// from the batch's columns and writes the batch.
	CreateOrReplace(ctx context.Context, first *Batch) error
	// Append writes the batch into the existing destination table.
	Append(ctx context.Context, b *Batch) error
}

type Reader interface {
	OpenCursor(ctx context.Context, table string, chunkSize int) (Cursor, error)
}

type Writer interface {
	OpenSink(ctx context.Context, table string) (Sink, error)
}

type Counter interface {
	CountRows(ctx context.Context, table string) (int64, error)
}

type Lister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// Conn : a reusable session against one endpoint
type Conn interface {
	Reader
	Writer
	Counter
	Lister
	Endpoint() config.Endpoint
	Close() error
}

// Connector opens sessions. Implementations return a *fault.ConnectionError
// when the endpoint is unreachable or rejects the credentials.
type Connector interface {
	Connect(ctx context.Context, ep config.Endpoint) (Conn, error)
}
