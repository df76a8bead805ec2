package dialect

import (
	"net"
	"strconv"

	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
	"github.com/go-sql-driver/mysql"
)

type mysqlDialect struct {
	base
}

func init() {
	Register(&mysqlDialect{base: base{
		name:   config.MySQL,
		driver: "mysql",
		port:   3306,
		listTables: `SELECT table_name FROM information_schema.tables
	WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
	ORDER BY table_name`,
		types: colmap.Types{
			Names: map[colmap.Family]string{
				colmap.Boolean:     "BOOLEAN",
				colmap.Integer:     "INT",
				colmap.BigInt:      "BIGINT",
				colmap.Float:       "DOUBLE",
				colmap.Decimal:     "DECIMAL(65,10)",
				colmap.Text:        "LONGTEXT",
				colmap.Binary:      "LONGBLOB",
				colmap.Date:        "DATE",
				colmap.Time:        "TIME(6)",
				colmap.Timestamp:   "DATETIME(6)",
				colmap.TimestampTZ: "DATETIME(6)",
				colmap.JSON:        "JSON",
				colmap.UUID:        "CHAR(36)",
			},
			Varchar:      "VARCHAR(%d)",
			MaxVarchar:   16383,
			Decimal:      "DECIMAL(%d,%d)",
			MaxPrecision: 65,
		},
	}})
}

// DSN passes endpoint params through as session variables.
func (m *mysqlDialect) DSN(ep config.Endpoint) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = ep.UserName
	cfg.Passwd = ep.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(ep.Host, strconv.Itoa(port(ep, m.port)))
	cfg.DBName = ep.DB
	cfg.ParseTime = true
	cfg.Collation = "utf8mb4_general_ci"
	if len(ep.Params) > 0 {
		cfg.Params = make(map[string]string, len(ep.Params))
		for k, v := range ep.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

func (m *mysqlDialect) Quote(ident string) string {
	return quoteWith(ident, "`", "`")
}

func (m *mysqlDialect) DropTableIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + m.Quote(table)
}
