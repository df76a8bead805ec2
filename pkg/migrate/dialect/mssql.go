package dialect

import (
	"net"
	"net/url"
	"strconv"

	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
	_ "github.com/microsoft/go-mssqldb"
)

type mssql struct {
	base
}

func init() {
	Register(&mssql{base: base{
		name:   config.MSSQL,
		driver: "sqlserver",
		port:   1433,
		listTables: `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
	WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = SCHEMA_NAME()
	ORDER BY TABLE_NAME`,
		types: colmap.Types{
			Names: map[colmap.Family]string{
				colmap.Boolean:     "BIT",
				colmap.Integer:     "INT",
				colmap.BigInt:      "BIGINT",
				colmap.Float:       "FLOAT",
				colmap.Decimal:     "DECIMAL(38,10)",
				colmap.Text:        "NVARCHAR(MAX)",
				colmap.Binary:      "VARBINARY(MAX)",
				colmap.Date:        "DATE",
				colmap.Time:        "TIME",
				colmap.Timestamp:   "DATETIME2",
				colmap.TimestampTZ: "DATETIMEOFFSET",
				colmap.JSON:        "NVARCHAR(MAX)",
				colmap.UUID:        "UNIQUEIDENTIFIER",
			},
			Varchar:      "NVARCHAR(%d)",
			MaxVarchar:   4000,
			Decimal:      "DECIMAL(%d,%d)",
			MaxPrecision: 38,
		},
	}})
}

func (m *mssql) DSN(ep config.Endpoint) (string, error) {
	q := url.Values{}
	for k, v := range ep.Params {
		q.Set(k, v)
	}
	q.Set("database", ep.DB)
	q.Set("encrypt", ep.Param("encrypt", "true"))
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(ep.UserName, ep.Password),
		Host:     net.JoinHostPort(ep.Host, strconv.Itoa(port(ep, m.port))),
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

func (m *mssql) Quote(ident string) string {
	return quoteWith(ident, "[", "]")
}

func (m *mssql) Placeholder(n int) string {
	return "@p" + strconv.Itoa(n)
}

func (m *mssql) DropTableIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + m.Quote(table)
}
