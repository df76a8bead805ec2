// package colmap
//
// maps columns between different database types
package colmap

import (
	"fmt"
	"strings"
)

// Family : engine neutral column type class
type Family string

const (
	Boolean     Family = "BOOLEAN"
	Integer     Family = "INTEGER"
	BigInt      Family = "BIGINT"
	Float       Family = "FLOAT"
	Decimal     Family = "DECIMAL"
	String      Family = "STRING"
	Text        Family = "TEXT"
	Binary      Family = "BINARY"
	Date        Family = "DATE"
	Time        Family = "TIME"
	Timestamp   Family = "TIMESTAMP"
	TimestampTZ Family = "TIMESTAMPTZ"
	JSON        Family = "JSON"
	UUID        Family = "UUID"
)

var (
	// keyed by the upper case type name drivers report, parameters stripped
	sourceTypeMap = map[string]Family{
		// boolean
		"BOOL":    Boolean,
		"BOOLEAN": Boolean,
		"BIT":     Boolean,

		// integers
		"TINYINT":     Integer,
		"SMALLINT":    Integer,
		"MEDIUMINT":   Integer,
		"INT":         Integer,
		"INT2":        Integer,
		"INT4":        Integer,
		"INTEGER":     Integer,
		"YEAR":        Integer,
		"SMALLSERIAL": Integer,
		"BIGINT":      BigInt,
		"BIG INT":     BigInt,
		"INT8":        BigInt,
		"SERIAL":      BigInt,
		"BIGSERIAL":   BigInt,

		// floating point
		"FLOAT":            Float,
		"FLOAT4":           Float,
		"FLOAT8":           Float,
		"REAL":             Float,
		"DOUBLE":           Float,
		"DOUBLE PRECISION": Float,
		"BINARY_FLOAT":     Float,
		"BINARY_DOUBLE":    Float,
		"IBFLOAT":          Float,
		"IBDOUBLE":         Float,

		// exact numerics
		"DECIMAL":    Decimal,
		"NUMERIC":    Decimal,
		"NUMBER":     Decimal,
		"MONEY":      Decimal,
		"SMALLMONEY": Decimal,
		"FIXED":      Decimal,

		// bounded strings
		"CHAR":               String,
		"NCHAR":              String,
		"CHARACTER":          String,
		"NATIVE CHARACTER":   String,
		"NATIONAL CHARACTER": String,
		"VARCHAR":            String,
		"NVARCHAR":           String,
		"VARCHAR2":           String,
		"NVARCHAR2":          String,
		"CHARACTER VARYING":  String,
		"VARYING CHARACTER":  String,
		"BPCHAR":             String,
		"ENUM":               String,
		"SET":                String,

		// unbounded strings
		"TEXT":        Text,
		"NTEXT":       Text,
		"TINYTEXT":    Text,
		"MEDIUMTEXT":  Text,
		"LONGTEXT":    Text,
		"CLOB":        Text,
		"NCLOB":       Text,
		"LONG":        Text,
		"STRING":      Text,
		"CITEXT":      Text,
		"XML":         Text,
		"SQL_VARIANT": Text,
		"ROWID":       Text,
		"INTERVAL":    Text,
		"INET":        Text,
		"CIDR":        Text,
		"MACADDR":     Text,

		// binary
		"BINARY":     Binary,
		"VARBINARY":  Binary,
		"IMAGE":      Binary,
		"BLOB":       Binary,
		"TINYBLOB":   Binary,
		"MEDIUMBLOB": Binary,
		"LONGBLOB":   Binary,
		"BYTEA":      Binary,
		"RAW":        Binary,
		"LONG RAW":   Binary,

		// temporal
		"DATE":                           Date,
		"TIME":                           Time,
		"TIMETZ":                         Time,
		"DATETIME":                       Timestamp,
		"DATETIME2":                      Timestamp,
		"SMALLDATETIME":                  Timestamp,
		"TIMESTAMP":                      Timestamp,
		"TIMESTAMP_NTZ":                  Timestamp,
		"TIMESTAMP_LTZ":                  TimestampTZ,
		"TIMESTAMPTZ":                    TimestampTZ,
		"TIMESTAMP_TZ":                   TimestampTZ,
		"DATETIMEOFFSET":                 TimestampTZ,
		"TIMESTAMP WITH TIME ZONE":       TimestampTZ,
		"TIMESTAMP WITH LOCAL TIME ZONE": TimestampTZ,
		"TIMESTAMPTZ_DTY":                TimestampTZ,
		"TIMESTAMPLTZ_DTY":               TimestampTZ,
		"TIMESTAMPDTY":                   Timestamp,

		// semi structured
		"JSON":     JSON,
		"JSONB":    JSON,
		"VARIANT":  JSON,
		"OBJECT":   JSON,
		"ARRAY":    JSON,
		"GEOMETRY": JSON,
		"POINT":    JSON,

		"UUID":             UUID,
		"UNIQUEIDENTIFIER": UUID,
	}
)

// SourceType : what a driver tells us about a column
type SourceType struct {
	DatabaseType string
	Length       int64
	HasLength    bool
	Precision    int64
	Scale        int64
	HasDecimal   bool
}

// Classify : resolves a driver type name into a Family, if it cannot then it will error out.
// Postgres array types (leading underscore) are kept as their text form.
func Classify(colTypeSource string) (Family, error) {
	name := strings.ToUpper(strings.TrimSpace(strings.Split(colTypeSource, "(")[0]))
	name = strings.TrimPrefix(name, "UNSIGNED ")
	if name == "" {
		// drivers report an empty name when the type is unknown to them
		return Text, nil
	}
	if f, ok := sourceTypeMap[name]; ok {
		return f, nil
	}
	if strings.HasPrefix(name, "_") {
		return Text, nil
	}
	return "", fmt.Errorf("This col type %s does not have a mapping", name)
}

// Types : how one engine spells each family in DDL
type Types struct {
	Names map[Family]string
	// Varchar is a format with one %d, used for String columns with a usable length
	Varchar    string
	MaxVarchar int64
	// Decimal is a format with two %d (precision, scale)
	Decimal      string
	MaxPrecision int64
}

// Render : DDL type for a source column on this engine. Types Classify cannot
// place are stored as Text.
func (t Types) Render(col SourceType) (string, error) {
	f, err := Classify(col.DatabaseType)
	if err != nil {
		f = Text
	}
	switch f {
	case String:
		if t.Varchar != "" && col.HasLength && col.Length > 0 && col.Length <= t.MaxVarchar {
			return fmt.Sprintf(t.Varchar, col.Length), nil
		}
		f = Text
	case Decimal:
		if t.Decimal != "" && col.HasDecimal && col.Precision > 0 && col.Precision <= t.MaxPrecision &&
			col.Scale >= 0 && col.Scale <= col.Precision {
			return fmt.Sprintf(t.Decimal, col.Precision, col.Scale), nil
		}
	}
	name, ok := t.Names[f]
	if !ok {
		return "", fmt.Errorf("no target type for family %s", f)
	}
	return name, nil
}
