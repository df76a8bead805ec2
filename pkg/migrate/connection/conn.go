package connection

import (
	"context"
	"database/sql"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/dialect"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
	"github.com/baderkha/db-migrate/pkg/migrate/table"
	"github.com/rs/zerolog"
)

var _ adapter.Conn = (*Conn)(nil)

// Conn : database/sql backed session for one endpoint
type Conn struct {
	db       *sql.DB
	dialect  dialect.Dialect
	endpoint config.Endpoint
	log      zerolog.Logger
}

func (c *Conn) Endpoint() config.Endpoint { return c.endpoint }

// DB exposes the pool, mainly for seeding in tests.
func (c *Conn) DB() *sql.DB { return c.db }

func (c *Conn) OpenCursor(ctx context.Context, tableName string, chunkSize int) (adapter.Cursor, error) {
	if chunkSize <= 0 {
		chunkSize = table.DefaultChunkSize
	}
	rows, err := c.db.QueryContext(ctx, dialect.SelectAllSQL(c.dialect, tableName))
	if err != nil {
		return nil, &fault.TransferError{Table: tableName, Phase: fault.PhaseOpen, Err: err}
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, &fault.TransferError{Table: tableName, Phase: fault.PhaseOpen, Err: err}
	}
	return &cursor{
		table:     tableName,
		rows:      rows,
		cols:      columnsOf(types),
		chunkSize: chunkSize,
	}, nil
}

func (c *Conn) OpenSink(_ context.Context, tableName string) (adapter.Sink, error) {
	return &sink{conn: c, table: tableName}, nil
}

func (c *Conn) CountRows(ctx context.Context, tableName string) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, dialect.CountSQL(c.dialect, tableName)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Conn) ListTables(ctx context.Context) ([]string, error) {
	infos, err := table.NewInfoFetcherSQL(c.db, c.endpoint.DB, c.dialect.ListTablesQuery()).
		All(ctx, &table.FetchOptions{SortByCol: table.SortByNone})
	if err != nil {
		return nil, err
	}
	return table.Names(infos), nil
}

func (c *Conn) Close() error {
	if err := c.db.Close(); err != nil {
		return &fault.ConnectionError{Endpoint: c.endpoint.String(), Op: "close", Err: err}
	}
	return nil
}

// Connector dials a fresh Conn per call.
type Connector struct {
	Options Options
}

func NewConnector(opts Options) *Connector {
	return &Connector{Options: opts}
}

func (c *Connector) Connect(ctx context.Context, ep config.Endpoint) (adapter.Conn, error) {
	conn, err := Dial(ctx, ep, c.Options)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
