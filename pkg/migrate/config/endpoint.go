package config

import (
	"fmt"
	"strings"
)

// Dialect : database engine tag of an endpoint
type Dialect string

const (
	MSSQL      Dialect = "mssql"
	PostgreSQL Dialect = "postgresql"
	Oracle     Dialect = "oracle"
	MySQL      Dialect = "mysql"
	Aurora     Dialect = "aurora"
	Snowflake  Dialect = "snowflake"
	SQLite     Dialect = "sqlite"
)

// Dialects lists every tag the tool understands
var Dialects = []Dialect{MSSQL, PostgreSQL, Oracle, MySQL, Aurora, Snowflake, SQLite}

// ParseDialect : normalizes a user supplied tag
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case "postgres", "pg":
		return PostgreSQL, nil
	case "sqlserver":
		return MSSQL, nil
	}
	for _, known := range Dialects {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unsupported dialect %q", s)
}

// UnmarshalText lets yaml/json accept aliases such as "postgres".
func (d *Dialect) UnmarshalText(b []byte) error {
	parsed, err := ParseDialect(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Endpoint : a fully specified connection target
type Endpoint struct {
	Dialect      Dialect           `json:"dialect" yaml:"dialect"`
	Host         string            `json:"host" yaml:"host"`
	Port         int               `json:"port" yaml:"port"`
	DB           string            `json:"db" yaml:"db"`
	UserName     string            `json:"user_name" yaml:"user_name"`
	Password     string            `json:"password" yaml:"password"`
	QueryLogging bool              `json:"query_log" yaml:"query_log"`
	Params       map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Param returns the named dialect parameter or def.
func (e Endpoint) Param(name, def string) string {
	if v, ok := e.Params[name]; ok && v != "" {
		return v
	}
	return def
}

// String describes the endpoint without its secret.
func (e Endpoint) String() string {
	if e.Dialect == SQLite {
		return fmt.Sprintf("%s://%s", e.Dialect, e.DB)
	}
	return fmt.Sprintf("%s://%s@%s:%d/%s", e.Dialect, e.UserName, e.Host, e.Port, e.DB)
}

func (e Endpoint) Validate() error {
	if e.Dialect == "" {
		return ErrNoDialect
	}
	if _, err := ParseDialect(string(e.Dialect)); err != nil {
		return err
	}
	if e.DB == "" {
		return fmt.Errorf("db is required for %s", e.Dialect)
	}
	if e.Dialect == SQLite || e.Dialect == Snowflake {
		return nil
	}
	if e.Host == "" {
		return fmt.Errorf("host is required for %s", e.Dialect)
	}
	if e.Port < 0 || e.Port > 65535 {
		return fmt.Errorf("port %d is out of range", e.Port)
	}
	return nil
}
