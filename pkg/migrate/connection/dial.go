package connection

import (
	"context"
	"database/sql"

	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/baderkha/db-migrate/pkg/migrate/dialect"
	"github.com/baderkha/db-migrate/pkg/migrate/fault"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
)

type Options struct {
	// MaxOpenConns caps the pool, 0 keeps the driver default
	MaxOpenConns int
	Logger       zerolog.Logger
}

// AddLogger reopens db through sqldb-logger so every statement is logged.
func AddLogger(db *sql.DB, dsn string, driverName string, log zerolog.Logger) *sql.DB {
	loggerAdapter := zerologadapter.New(log.With().Str("driver", driverName).Logger())
	logged := sqldblogger.OpenDriver(dsn, db.Driver(), loggerAdapter,
		sqldblogger.WithWrapResult(false),
		sqldblogger.WithDurationFieldname("dur_ms"),
		sqldblogger.WithDurationUnit(sqldblogger.DurationMillisecond),
		sqldblogger.WithSQLQueryAsMessage(true),
		sqldblogger.WithSQLQueryFieldname("sql_query"),
	)
	// the original handle never connected, it only lent its driver
	_ = db.Close()
	return logged
}

// Dial opens and pings a session against ep.
func Dial(ctx context.Context, ep config.Endpoint, opts Options) (*Conn, error) {
	connErr := func(op string, err error) error {
		return &fault.ConnectionError{Endpoint: ep.String(), Op: op, Err: err}
	}

	d, err := dialect.Lookup(ep.Dialect)
	if err != nil {
		return nil, connErr("dial", err)
	}
	dsn, err := d.DSN(ep)
	if err != nil {
		return nil, connErr("dial", err)
	}

	log := opts.Logger.With().Str("endpoint", ep.String()).Logger()
	log.Debug().Msg("getting connection")

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, connErr("dial", err)
	}
	if ep.QueryLogging {
		db = AddLogger(db, dsn, d.DriverName(), log)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, connErr("ping", err)
	}

	log.Debug().Msg("got connection")
	return &Conn{db: db, dialect: d, endpoint: ep, log: log}, nil
}
