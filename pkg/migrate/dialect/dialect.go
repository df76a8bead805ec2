// Package dialect is the registry of supported database engines. Every engine
// specific string (DSN, quoting, placeholders, catalog queries, DDL types)
// lives here; the rest of the tool only speaks database/sql.
//
// To add an engine implement Dialect in its own file and Register it from
// that file's init.
package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
)

type Dialect interface {
	Name() config.Dialect
	// DriverName is the database/sql driver to open
	DriverName() string
	DefaultPort() int
	DSN(ep config.Endpoint) (string, error)
	Quote(ident string) string
	// Placeholder is the bind marker for the n-th (1-based) parameter
	Placeholder(n int) string
	ListTablesQuery() string
	DropTableIfExists(table string) string
	ColumnType(col colmap.SourceType) (string, error)
}

// BulkCopier is implemented by engines with a faster load path than INSERT.
// handled is false when the connection cannot take the fast path, in which
// case nothing was written.
type BulkCopier interface {
	CopyBatch(ctx context.Context, conn *sql.Conn, table string, b *adapter.Batch) (handled bool, err error)
}

var (
	mu       sync.RWMutex
	registry = map[config.Dialect]Dialect{}
)

// Register makes a dialect available by its tag. Registering a tag twice panics.
func Register(d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[d.Name()]; dup {
		panic(fmt.Sprintf("dialect: %s registered twice", d.Name()))
	}
	registry[d.Name()] = d
}

func Lookup(tag config.Dialect) (Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("dialect: unsupported database type %q", tag)
	}
	return d, nil
}

// Registered returns every registered tag, sorted.
func Registered() []config.Dialect {
	mu.RLock()
	defer mu.RUnlock()
	tags := make([]config.Dialect, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// base carries what most engines only differ in by value
type base struct {
	name       config.Dialect
	driver     string
	port       int
	listTables string
	types      colmap.Types
}

func (b *base) Name() config.Dialect { return b.name }
func (b *base) DriverName() string { return b.driver }
func (b *base) DefaultPort() int { return b.port }
func (b *base) ListTablesQuery() string { return b.listTables }
func (b *base) Placeholder(_ int) string { return "?" }

func (b *base) ColumnType(col colmap.SourceType) (string, error) {
	return b.types.Render(col)
}

func port(ep config.Endpoint, def int) int {
	if ep.Port > 0 {
		return ep.Port
	}
	return def
}

func quoteWith(ident, lq, rq string) string {
	return lq + strings.ReplaceAll(ident, rq, rq+rq) + rq
}

var plainLower = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

// quoteFolded quotes for engines that fold unquoted names to upper case, so
// that a plain lower case name refers to the same object quoted or not.
func quoteFolded(ident string) string {
	if plainLower.MatchString(ident) {
		ident = strings.ToUpper(ident)
	}
	return quoteWith(ident, `"`, `"`)
}

func SelectAllSQL(d Dialect, table string) string {
	return "SELECT * FROM " + d.Quote(table)
}

func CountSQL(d Dialect, table string) string {
	return "SELECT COUNT(*) FROM " + d.Quote(table)
}

// CreateTableSQL defines a table with the batch's column set. Columns are
// created nullable and without keys.
func CreateTableSQL(d Dialect, table string, cols []adapter.Column) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s has no columns", table)
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ, err := d.ColumnType(c.Type)
		if err != nil {
			return "", fmt.Errorf("Cast Error : Bad Casting for %s column %s due to : %w", table, c.Name, err)
		}
		defs[i] = d.Quote(c.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.Quote(table), strings.Join(defs, ", ")), nil
}

// InsertSQL is a single row insert with one bind per column.
func InsertSQL(d Dialect, table string, cols []string) string {
	names := make([]string, len(cols))
	binds := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.Quote(c)
		binds[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.Quote(table), strings.Join(names, ", "), strings.Join(binds, ", "))
}
