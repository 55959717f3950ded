package cmd

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kubev2v/relcore/internal/config"
	"github.com/kubev2v/relcore/internal/store"
	"github.com/kubev2v/relcore/internal/store/migrations"
	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/statement"
)

func loadTable(cfg *config.Configuration, name string) (*schema.Table, error) {
	if cfg.Compiler.TablesFile == "" {
		return nil, fmt.Errorf("--tables is required")
	}
	catalog, err := schema.LoadTablesFile(cfg.Compiler.TablesFile)
	if err != nil {
		return nil, err
	}
	return catalog.Get(name)
}

func openStore(ctx context.Context, cfg *config.Configuration) (*store.Store, error) {
	d, err := dialect.Lookup(cfg.DialectName())
	if err != nil {
		return nil, err
	}
	db, err := store.NewDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Database.Driver, err)
	}
	if cfg.Database.Driver == "duckdb" && cfg.Database.Migrate {
		if err := migrations.Run(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store.NewStore(db, d), nil
}

type containersFile struct {
	Containers []container.Container `yaml:"containers"`
}

// loadContainers reads a YAML list of containers, parents first.
func loadContainers(path string) (*container.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f containersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	reg := container.NewRegistry()
	for _, c := range f.Containers {
		if _, err := reg.Add(c); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return reg, nil
}

// writeOptions are the flags shared by commands that compile a statement.
type writeOptions struct {
	table              string
	op                 string
	containerID        string
	userID             int64
	selectObjectURI    bool
	allowAutoIncrement bool
	keys               []string
	skip               []string
	constants          map[string]string
}

func (o *writeOptions) compile(cfg *config.Configuration) (*schema.Table, statement.Operation, statement.Options, error) {
	t, err := loadTable(cfg, o.table)
	if err != nil {
		return nil, 0, statement.Options{}, err
	}
	op, err := statement.ParseOperation(o.op)
	if err != nil {
		return nil, 0, statement.Options{}, err
	}

	opts := statement.Options{
		SelectIDs:              cfg.Compiler.SelectIDs,
		SelectObjectURI:        o.selectObjectURI,
		AutoFillDefaultColumns: cfg.Compiler.AutoFillDefaultColumns,
		AllowAutoIncrement:     o.allowAutoIncrement,
		Keys:                   o.keys,
		Skip:                   o.skip,
	}
	if o.containerID != "" {
		opts.Container = &container.Container{ID: o.containerID}
	}
	if o.userID > 0 {
		opts.User = &container.User{ID: o.userID}
	}
	if len(o.constants) > 0 {
		opts.Constants = make(map[string]any, len(o.constants))
		for k, v := range o.constants {
			opts.Constants[k] = v
		}
	}
	return t, op, opts, nil
}
