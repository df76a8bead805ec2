package dialect

import (
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
	"github.com/snowflakedb/gosnowflake"
)

type snowflake struct {
	base
}

func init() {
	Register(&snowflake{base: base{
		name:   config.Snowflake,
		driver: "snowflake",
		port:   443,
		listTables: `SELECT table_name FROM information_schema.tables
	WHERE table_schema = CURRENT_SCHEMA() AND table_type = 'BASE TABLE'
	ORDER BY table_name`,
		types: colmap.Types{
			Names: map[colmap.Family]string{
				colmap.Boolean:     "BOOLEAN",
				colmap.Integer:     "NUMBER(10,0)",
				colmap.BigInt:      "NUMBER(19,0)",
				colmap.Float:       "FLOAT",
				colmap.Decimal:     "NUMBER(38,10)",
				colmap.Text:        "VARCHAR",
				colmap.Binary:      "BINARY",
				colmap.Date:        "DATE",
				colmap.Time:        "TIME",
				colmap.Timestamp:   "TIMESTAMP_NTZ",
				colmap.TimestampTZ: "TIMESTAMP_TZ",
				// bound parameters cannot target VARIANT without PARSE_JSON
				colmap.JSON:        "VARCHAR",
				colmap.UUID:        "VARCHAR(36)",
			},
			Varchar:      "VARCHAR(%d)",
			MaxVarchar:   16777216,
			Decimal:      "NUMBER(%d,%d)",
			MaxPrecision: 38,
		},
	}})
}

// DSN reads account, warehouse, role and schema from the endpoint params.
// The account falls back to the host.
func (s *snowflake) DSN(ep config.Endpoint) (string, error) {
	cfg := &gosnowflake.Config{
		Account:   ep.Param("account", ep.Host),
		User:      ep.UserName,
		Password:  ep.Password,
		Database:  ep.DB,
		Schema:    ep.Param("schema", "PUBLIC"),
		Warehouse: ep.Param("warehouse", ""),
		Role:      ep.Param("role", ""),
	}
	if _, ok := ep.Params["account"]; ok && ep.Host != "" {
		cfg.Host = ep.Host
	}
	if ep.Port > 0 {
		cfg.Port = ep.Port
	}
	return gosnowflake.DSN(cfg)
}

func (s *snowflake) Quote(ident string) string {
	return quoteFolded(ident)
}

func (s *snowflake) DropTableIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + s.Quote(table)
}
