package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/internal/config"
)

var _ = Describe("Configuration", func() {
	It("should carry defaults", func() {
		cfg := config.NewConfigurationWithOptionsAndDefaults()

		Expect(cfg.Database.Driver).To(Equal("duckdb"))
		Expect(cfg.Database.DSN).To(Equal(":memory:"))
		Expect(cfg.Database.Migrate).To(BeTrue())
		Expect(cfg.Compiler.SelectIDs).To(BeTrue())
		Expect(cfg.Compiler.AutoFillDefaultColumns).To(BeTrue())
		Expect(cfg.Scope.InListThreshold).To(Equal(100))
		Expect(cfg.Scope.HierarchyTable).To(Equal("core.containers"))
		Expect(cfg.Import.Workers).To(Equal(4))
		Expect(cfg.Log.Format).To(Equal("console"))
		Expect(cfg.Log.Level).To(Equal("info"))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should apply options over defaults", func() {
		cfg := config.NewConfigurationWithOptionsAndDefaults(
			config.WithDatabase("sqlserver", "sqlserver://sa@localhost"),
			config.WithTablesFile("tables.yaml"),
			config.WithLog("json", "debug"),
		)

		Expect(cfg.Database.Driver).To(Equal("sqlserver"))
		Expect(cfg.Compiler.TablesFile).To(Equal("tables.yaml"))
		Expect(cfg.Log.Format).To(Equal("json"))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should derive the dialect from the driver", func() {
		for driver, dialect := range map[string]string{
			"duckdb":    "duckdb",
			"pgx":       "postgres",
			"postgres":  "postgres",
			"sqlserver": "sqlserver",
		} {
			cfg := config.NewConfigurationWithOptionsAndDefaults(config.WithDatabase(driver, "x"))
			Expect(cfg.DialectName()).To(Equal(dialect))
		}

		cfg := config.NewConfigurationWithOptionsAndDefaults()
		cfg.Compiler.Dialect = "postgres"
		Expect(cfg.DialectName()).To(Equal("postgres"))
	})

	Context("Validate", func() {
		tests := []struct {
			name   string
			mutate func(*config.Configuration)
			msg    string
		}{
			{"unknown driver", func(c *config.Configuration) { c.Database.Driver = "oracle" }, "invalid database.driver"},
			{"empty dsn", func(c *config.Configuration) { c.Database.DSN = "" }, "invalid database.dsn"},
			{"unknown dialect", func(c *config.Configuration) { c.Compiler.Dialect = "mysql" }, "invalid compiler.dialect"},
			{"no workers", func(c *config.Configuration) { c.Import.Workers = 0 }, "invalid import.workers"},
			{"too many workers", func(c *config.Configuration) { c.Import.Workers = 100 }, "max=64"},
			{"zero threshold", func(c *config.Configuration) { c.Scope.InListThreshold = 0 }, "invalid scope.inlistthreshold"},
			{"unknown log format", func(c *config.Configuration) { c.Log.Format = "xml" }, "invalid log.format"},
			{"unknown log level", func(c *config.Configuration) { c.Log.Level = "trace" }, "invalid log.level"},
		}

		for _, test := range tests {
			It("should reject "+test.name, func() {
				cfg := config.NewConfigurationWithOptionsAndDefaults()
				test.mutate(cfg)

				err := cfg.Validate()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(test.msg))
			})
		}

		It("should report every failing field", func() {
			cfg := config.NewConfigurationWithOptionsAndDefaults()
			cfg.Import.Workers = 0
			cfg.Log.Level = "trace"

			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("import.workers"))
			Expect(err.Error()).To(ContainSubstring("log.level"))
		})
	})
})
