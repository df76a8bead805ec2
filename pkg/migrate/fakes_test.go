package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
)

// memDB is an in-memory endpoint shared by every connection to it.
type memDB struct {
	mu     sync.Mutex
	tables map[string][]adapter.Row

	// keepExisting makes CreateOrReplace keep rows already in the table,
	// like a destination left over from an earlier partial run.
	keepExisting bool
	// failWrite[table] fails the nth write (1-based) of every sink.
	failWrite map[string]int
	// failWriteTimes[table] limits how many sinks see failWrite. 0 is all.
	failWriteTimes map[string]int
	failRead       map[string]int
	failOpen       map[string]error
	failCount      map[string]error
	listErr        error
	closeErr       error

	sinks   map[string]int
	batches map[string][]int
	closed  int
}

func newMemDB() *memDB {
	return &memDB{
		tables:         map[string][]adapter.Row{},
		failWrite:      map[string]int{},
		failWriteTimes: map[string]int{},
		failRead:       map[string]int{},
		failOpen:       map[string]error{},
		failCount:      map[string]error{},
		sinks:          map[string]int{},
		batches:        map[string][]int{},
	}
}

func (db *memDB) seed(name string, n int) *memDB {
	rows := make([]adapter.Row, n)
	for i := range rows {
		rows[i] = adapter.Row{int64(i + 1), fmt.Sprintf("%s-%d", name, i+1)}
	}
	db.tables[name] = rows
	return db
}

func (db *memDB) rows(name string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.tables[name])
}

func (db *memDB) observed(name string) []int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]int(nil), db.batches[name]...)
}

var memColumns = []adapter.Column{{Name: "id"}, {Name: "name", Nullable: true}}

type memConn struct {
	db *memDB
	ep config.Endpoint
}

func (c *memConn) Endpoint() config.Endpoint { return c.ep }

func (c *memConn) Close() error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.closed++
	return c.db.closeErr
}

func (c *memConn) OpenCursor(_ context.Context, name string, chunkSize int) (adapter.Cursor, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if err := c.db.failOpen[name]; err != nil {
		return nil, err
	}
	rows, ok := c.db.tables[name]
	if !ok {
		return nil, &fault.TransferError{Table: name, Phase: fault.PhaseOpen, Err: errors.New("no such table")}
	}
	return &memCursor{rows: append([]adapter.Row(nil), rows...), size: chunkSize, failAt: c.db.failRead[name]}, nil
}

func (c *memConn) OpenSink(_ context.Context, name string) (adapter.Sink, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.sinks[name]++
	failAt := c.db.failWrite[name]
	if limit := c.db.failWriteTimes[name]; limit > 0 && c.db.sinks[name] > limit {
		failAt = 0
	}
	c.db.batches[name] = nil
	return &memSink{db: c.db, table: name, failAt: failAt}, nil
}

func (c *memConn) CountRows(_ context.Context, name string) (int64, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if err := c.db.failCount[name]; err != nil {
		return 0, err
	}
	rows, ok := c.db.tables[name]
	if !ok {
		return 0, fmt.Errorf("no such table: %s", name)
	}
	return int64(len(rows)), nil
}

func (c *memConn) ListTables(context.Context) ([]string, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if c.db.listErr != nil {
		return nil, c.db.listErr
	}
	names := make([]string, 0, len(c.db.tables))
	for n := range c.db.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

type memCursor struct {
	rows   []adapter.Row
	size   int
	pos    int
	n      int
	failAt int
}

func (c *memCursor) Next(context.Context) (*adapter.Batch, error) {
	if c.pos >= len(c.rows) {
		return nil, io.EOF
	}
	c.n++
	if c.n == c.failAt {
		return nil, errors.New("connection reset by peer")
	}
	end := c.pos + c.size
	if end > len(c.rows) {
		end = len(c.rows)
	}
	b := &adapter.Batch{Columns: memColumns, Rows: c.rows[c.pos:end]}
	c.pos = end
	return b, nil
}

func (c *memCursor) Close() error { return nil }

type memSink struct {
	db     *memDB
	table  string
	writes int
	failAt int
}

func (s *memSink) write(b *adapter.Batch, replace bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.writes++
	if s.writes == s.failAt {
		return errors.New("disk full")
	}
	existing, ok := s.db.tables[s.table]
	switch {
	case replace && !s.db.keepExisting:
		existing = nil
	case !replace && !ok:
		return fmt.Errorf("no such table: %s", s.table)
	}
	s.db.tables[s.table] = append(existing, b.Rows...)
	s.db.batches[s.table] = append(s.db.batches[s.table], b.Len())
	return nil
}

func (s *memSink) CreateOrReplace(_ context.Context, first *adapter.Batch) error {
	return s.write(first, true)
}

func (s *memSink) Append(_ context.Context, b *adapter.Batch) error {
	return s.write(b, false)
}

// memConnector routes endpoints to databases by Endpoint.DB.
type memConnector struct {
	mu       sync.Mutex
	dbs      map[string]*memDB
	failOn   map[string]error
	connects int
}

func newMemConnector(dbs map[string]*memDB) *memConnector {
	return &memConnector{dbs: dbs, failOn: map[string]error{}}
}

func (m *memConnector) Connect(_ context.Context, ep config.Endpoint) (adapter.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[ep.DB]; err != nil {
		return nil, &fault.ConnectionError{Endpoint: ep.String(), Op: "dial", Err: err}
	}
	m.connects++
	return &memConn{db: m.dbs[ep.DB], ep: ep}, nil
}

func memEndpoint(db string) config.Endpoint {
	return config.Endpoint{Dialect: config.PostgreSQL, Host: "localhost", Port: 5432, DB: db, UserName: "app"}
}
