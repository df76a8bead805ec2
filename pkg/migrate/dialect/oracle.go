package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/table/colmap"
	go_ora "github.com/sijms/go-ora/v2"
)

type oracle struct {
	base
}

func init() {
	Register(&oracle{base: base{
		name:       config.Oracle,
		driver:     "oracle",
		port:       1521,
		listTables: `SELECT table_name FROM user_tables ORDER BY table_name`,
		types: colmap.Types{
			Names: map[colmap.Family]string{
				colmap.Boolean:     "NUMBER(1)",
				colmap.Integer:     "NUMBER(10)",
				colmap.BigInt:      "NUMBER(19)",
				colmap.Float:       "BINARY_DOUBLE",
				colmap.Decimal:     "NUMBER",
				colmap.Text:        "NCLOB",
				colmap.Binary:      "BLOB",
				colmap.Date:        "DATE",
				colmap.Time:        "TIMESTAMP",
				colmap.Timestamp:   "TIMESTAMP",
				colmap.TimestampTZ: "TIMESTAMP WITH TIME ZONE",
				colmap.JSON:        "NCLOB",
				colmap.UUID:        "VARCHAR2(36)",
			},
			Varchar:      "NVARCHAR2(%d)",
			MaxVarchar:   2000,
			Decimal:      "NUMBER(%d,%d)",
			MaxPrecision: 38,
		},
	}})
}

// DSN uses the endpoint database as the service name.
func (o *oracle) DSN(ep config.Endpoint) (string, error) {
	return go_ora.BuildUrl(ep.Host, port(ep, o.port), ep.DB, ep.UserName, ep.Password, ep.Params), nil
}

func (o *oracle) Quote(ident string) string {
	return quoteFolded(ident)
}

func (o *oracle) Placeholder(n int) string {
	return ":" + strconv.Itoa(n)
}

// DropTableIfExists ignores ORA-00942 (table or view does not exist).
func (o *oracle) DropTableIfExists(table string) string {
	stmt := strings.ReplaceAll("DROP TABLE "+o.Quote(table)+" PURGE", "'", "''")
	return fmt.Sprintf(`BEGIN
	EXECUTE IMMEDIATE '%s';
EXCEPTION
	WHEN OTHERS THEN
		IF SQLCODE != -942 THEN
			RAISE;
		END IF;
END;`, stmt)
}
