package main

import (
	"errors"
	"fmt"

	"github.com/baderkha/db-migrate/pkg/logger"
	"github.com/baderkha/db-migrate/pkg/migrate/config"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	stateDB  string
	srcFlags endpointFlags
	dstFlags endpointFlags

	fs  = afero.NewOsFs()
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "dbmigrate",
	Short:         "Copies every table of a database into another engine and verifies the row counts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.Load(fs, cfgFile)
			if err != nil {
				return err
			}
		} else {
			cfg = config.GetDefaultConfig()
		}

		if err := srcFlags.apply(cmd, "source", &cfg.Source); err != nil {
			return err
		}
		if err := dstFlags.apply(cmd, "target", &cfg.Target); err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("state-db") {
			cfg.StateDB = stateDB
		}

		log = logger.New(cfg.LogLevel)
		if cfgFile != "" {
			log.Debug().Str("file", cfgFile).Msg("config loaded")
		}
		return nil
	},
}

// endpointFlags : command line overrides for one side of the migration
type endpointFlags struct {
	dialect  string
	host     string
	port     int
	db       string
	user     string
	password string
	queryLog bool
}

func (e *endpointFlags) register(cmd *cobra.Command, side string) {
	f := cmd.PersistentFlags()
	f.StringVar(&e.dialect, side+"-dialect", "", side+" dialect (mssql, postgresql, oracle, mysql, aurora, snowflake, sqlite)")
	f.StringVar(&e.host, side+"-host", "", side+" host")
	f.IntVar(&e.port, side+"-port", 0, side+" port, 0 uses the dialect default")
	f.StringVar(&e.db, side+"-db", "", side+" database name (file path for sqlite)")
	f.StringVar(&e.user, side+"-user", "", side+" user name")
	f.StringVar(&e.password, side+"-password", "", side+" password")
	f.BoolVar(&e.queryLog, side+"-query-log", false, "log every statement sent to the "+side)
}

func (e *endpointFlags) apply(cmd *cobra.Command, side string, ep *config.Endpoint) error {
	changed := func(name string) bool { return cmd.Flags().Changed(side + "-" + name) }
	if changed("dialect") {
		d, err := config.ParseDialect(e.dialect)
		if err != nil {
			return fmt.Errorf("--%s-dialect : %w", side, err)
		}
		ep.Dialect = d
	}
	if changed("host") {
		ep.Host = e.host
	}
	if changed("port") {
		ep.Port = e.port
	}
	if changed("db") {
		ep.DB = e.db
	}
	if changed("user") {
		ep.UserName = e.user
	}
	if changed("password") {
		ep.Password = e.password
	}
	if changed("query-log") {
		ep.QueryLogging = e.queryLog
	}
	return nil
}

// errRunFailed : the run finished but its report is not a success
var errRunFailed = errors.New("migration finished with errors or mismatched row counts")

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "job file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&stateDB, "state-db", "", "sqlite file holding the run log")
	srcFlags.register(rootCmd, "source")
	dstFlags.register(rootCmd, "target")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(statusCmd)
}
