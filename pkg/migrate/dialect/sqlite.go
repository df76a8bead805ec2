package dialect

import (
	"net/url"

	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
	_ "github.com/mattn/go-sqlite3"
)

// sqlite targets a local database file, the endpoint db is its path.
type sqlite struct {
	base
}

func init() {
	Register(&sqlite{base: base{
		name:       config.SQLite,
		driver:     "sqlite3",
		listTables: `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		types: colmap.Types{
			Names: map[colmap.Family]string{
				colmap.Boolean:     "BOOLEAN",
				colmap.Integer:     "INTEGER",
				colmap.BigInt:      "BIGINT",
				colmap.Float:       "REAL",
				colmap.Decimal:     "NUMERIC",
				colmap.Text:        "TEXT",
				colmap.Binary:      "BLOB",
				colmap.Date:        "DATE",
				colmap.Time:        "TEXT",
				colmap.Timestamp:   "DATETIME",
				colmap.TimestampTZ: "DATETIME",
				colmap.JSON:        "TEXT",
				colmap.UUID:        "TEXT",
			},
			Varchar:      "VARCHAR(%d)",
			MaxVarchar:   1 << 30,
			Decimal:      "NUMERIC(%d,%d)",
			MaxPrecision: 1000,
		},
	}})
}

func (s *sqlite) DSN(ep config.Endpoint) (string, error) {
	q := url.Values{}
	for k, v := range ep.Params {
		q.Set(k, v)
	}
	if q.Get("_busy_timeout") == "" {
		q.Set("_busy_timeout", "5000")
	}
	return ep.DB + "?" + q.Encode(), nil
}

func (s *sqlite) Quote(ident string) string {
	return quoteWith(ident, `"`, `"`)
}

func (s *sqlite) DropTableIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + s.Quote(table)
}
