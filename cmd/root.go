package cmd

import (
	"fmt"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kubev2v/relcore/internal/config"
	"github.com/kubev2v/relcore/pkg/dialect"
)

// EnvPrefix prefixes the environment variables mirroring every flag:
// --db-driver is also RELCORE_DB_DRIVER.
const EnvPrefix = "RELCORE"

func NewRootCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "relcore",
		Short:        "Compile and run parameterized writes, filters and container scopes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindEnvironment(cmd)
			if err := validateConfiguration(cfg); err != nil {
				return err
			}
			return setupLogger(cfg.Log)
		},
	}

	cmd.PersistentFlags().AddFlagSet(databaseFlags(cfg))
	cmd.PersistentFlags().AddFlagSet(logFlags(cfg))
	cmd.PersistentFlags().StringVar(&cfg.Compiler.TablesFile, "tables", cfg.Compiler.TablesFile, "YAML file describing the tables")
	cmd.PersistentFlags().StringVar(&cfg.Compiler.Dialect, "dialect", cfg.Compiler.Dialect, "SQL dialect (duckdb, postgres, sqlserver); defaults to the database driver's")

	cmd.AddCommand(
		NewCompileCommand(cfg),
		NewFilterCommand(cfg),
		NewScopeCommand(cfg),
		NewImportCommand(cfg),
	)
	return cmd
}

func databaseFlags(cfg *config.Configuration) *pflag.FlagSet {
	fs := pflag.NewFlagSet("database", pflag.ContinueOnError)
	fs.StringVar(&cfg.Database.Driver, "db-driver", cfg.Database.Driver, "database driver (duckdb, pgx, postgres, sqlserver)")
	fs.StringVar(&cfg.Database.DSN, "db-dsn", cfg.Database.DSN, "data source name; a file path or :memory: for duckdb")
	fs.BoolVar(&cfg.Database.Migrate, "db-migrate", cfg.Database.Migrate, "create the container and property tables on duckdb")
	return fs
}

func logFlags(cfg *config.Configuration) *pflag.FlagSet {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (console, json)")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	return fs
}

// bindEnvironment sets every flag not given on the command line from its
// environment variable.
func bindEnvironment(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cobraflags.PresetRequiredFlags(EnvPrefix, make(map[*pflag.Flag]bool), cmd)
}

func validateConfiguration(cfg *config.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := dialect.Lookup(cfg.DialectName()); err != nil {
		return err
	}
	if cfg.Database.Driver == "duckdb" && cfg.Compiler.Dialect != "" && cfg.Compiler.Dialect != "duckdb" {
		return fmt.Errorf("dialect %s cannot run on a duckdb database", cfg.Compiler.Dialect)
	}
	return nil
}

func setupLogger(c config.Log) error {
	zc := zap.NewDevelopmentConfig()
	if c.Format == "json" {
		zc = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
