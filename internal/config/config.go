package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Configuration struct {
	Database Database
	Compiler Compiler
	Scope    Scope
	Import   Import
	Log      Log
}

type Database struct {
	// Driver is one of duckdb, pgx, postgres or sqlserver.
	Driver string `default:"duckdb" validate:"oneof=duckdb pgx postgres sqlserver"`
	// DSN is a file path for duckdb, ":memory:" for an in-memory database.
	DSN string `default:":memory:" validate:"required"`
	// Migrate creates the container and property tables on an embedded database.
	Migrate bool `default:"true"`
}

type Compiler struct {
	// TablesFile is the YAML file describing the tables.
	TablesFile string
	// Dialect overrides the dialect derived from the database driver.
	Dialect                string `validate:"omitempty,oneof=duckdb postgres sqlserver"`
	SelectIDs              bool   `default:"true"`
	AutoFillDefaultColumns bool   `default:"true"`
}

type Scope struct {
	InListThreshold int    `default:"100" validate:"min=1"`
	HierarchyTable  string `default:"core.containers" validate:"required"`
}

type Import struct {
	Workers int    `default:"4" validate:"min=1,max=64"`
	Sheet   string
}

type Log struct {
	Format string `default:"console" validate:"oneof=console json"`
	Level  string `default:"info" validate:"oneof=debug info warn error"`
}

type ConfigurationOption func(*Configuration)

func WithDatabase(driver, dsn string) ConfigurationOption {
	return func(c *Configuration) {
		c.Database.Driver = driver
		c.Database.DSN = dsn
	}
}

func WithTablesFile(path string) ConfigurationOption {
	return func(c *Configuration) {
		c.Compiler.TablesFile = path
	}
}

func WithLog(format, level string) ConfigurationOption {
	return func(c *Configuration) {
		c.Log.Format = format
		c.Log.Level = level
	}
}

func NewConfigurationWithOptionsAndDefaults(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("invalid configuration defaults: %v", err))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks every section and reports all failing fields at once.
func (c *Configuration) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid %s: %q does not satisfy %s", flagName(fe.Namespace()), fmt.Sprint(fe.Value()), ruleText(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// DialectName is the dialect to compile for: the explicit one, or the one the
// database driver speaks.
func (c *Configuration) DialectName() string {
	if c.Compiler.Dialect != "" {
		return c.Compiler.Dialect
	}
	switch c.Database.Driver {
	case "pgx", "postgres":
		return "postgres"
	}
	return c.Database.Driver
}

// flagName turns "Configuration.Import.Workers" into "import.workers".
func flagName(namespace string) string {
	_, rest, _ := strings.Cut(namespace, ".")
	return strings.ToLower(rest)
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
