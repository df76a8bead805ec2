package dialect

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"strconv"

	"github.com/baderkha/db-migrate/pkg/migrate/adapter"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

var postgresTypes = colmap.Types{
	Names: map[colmap.Family]string{
		colmap.Boolean:     "BOOLEAN",
		colmap.Integer:     "INTEGER",
		colmap.BigInt:      "BIGINT",
		colmap.Float:       "DOUBLE PRECISION",
		colmap.Decimal:     "NUMERIC",
		colmap.Text:        "TEXT",
		colmap.Binary:      "BYTEA",
		colmap.Date:        "DATE",
		colmap.Time:        "TIME",
		colmap.Timestamp:   "TIMESTAMP",
		colmap.TimestampTZ: "TIMESTAMPTZ",
		colmap.JSON:        "JSONB",
		colmap.UUID:        "UUID",
	},
	Varchar:      "VARCHAR(%d)",
	MaxVarchar:   10485760,
	Decimal:      "NUMERIC(%d,%d)",
	MaxPrecision: 1000,
}

// postgres serves PostgreSQL and wire compatible managed services (aurora).
// They differ in the TLS mode used when the endpoint does not say.
type postgres struct {
	base
	sslMode string
}

func init() {
	Register(newPostgres(config.PostgreSQL, "prefer"))
	Register(newPostgres(config.Aurora, "require"))
}

func newPostgres(name config.Dialect, sslMode string) *postgres {
	return &postgres{
		base: base{
			name:   name,
			driver: "pgx",
			port:   5432,
			listTables: `SELECT table_name FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
	ORDER BY table_name`,
			types: postgresTypes,
		},
		sslMode: sslMode,
	}
}

func (p *postgres) DSN(ep config.Endpoint) (string, error) {
	q := url.Values{}
	for k, v := range ep.Params {
		q.Set(k, v)
	}
	q.Set("sslmode", ep.Param("sslmode", p.sslMode))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(ep.UserName, ep.Password),
		Host:     net.JoinHostPort(ep.Host, strconv.Itoa(port(ep, p.port))),
		Path:     "/" + ep.DB,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

func (p *postgres) Quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func (p *postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p *postgres) DropTableIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + p.Quote(table)
}

// CopyBatch streams the batch with COPY FROM STDIN. Only connections opened
// straight through pgx's stdlib driver qualify; a wrapped driver (query
// logging) reports handled=false.
func (p *postgres) CopyBatch(ctx context.Context, conn *sql.Conn, table string, b *adapter.Batch) (bool, error) {
	var handled bool
	err := conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return nil
		}
		handled = true
		rows := pgx.CopyFromSlice(len(b.Rows), func(i int) ([]any, error) {
			return b.Rows[i], nil
		})
		_, err := sc.Conn().CopyFrom(ctx, pgx.Identifier{table}, b.ColumnNames(), rows)
		return err
	})
	return handled, err
}
