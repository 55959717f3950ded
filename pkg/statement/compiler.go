package statement

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/kubev2v/relcore/pkg/dialect"
	srvErrors "github.com/kubev2v/relcore/pkg/errors"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// DB is the part of *sql.DB, *sql.Conn and *sql.Tx a statement runs on.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Compiler struct {
	d dialect.Dialect
}

func NewCompiler(d dialect.Dialect) *Compiler {
	return &Compiler{d: d}
}

func (c *Compiler) Dialect() dialect.Dialect { return c.d }

// Plan is the SQL a compilation produces, before anything touches the database.
type Plan struct {
	Strategy   string
	Setup      []string
	Teardown   []string
	SQL        string
	Parameters []*Parameter

	program  *program
	asm      *assembly
	probeSQL string
	probe    []int
}

// Plan compiles op on t without executing the setup statements.
func (c *Compiler) Plan(t *schema.Table, op Operation, opts Options) (*Plan, error) {
	if t == nil {
		return nil, srvErrors.NewConfigurationError("", "no table")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	prog, err := newBuilder(c.d, t, op, opts).build()
	if err != nil {
		return nil, err
	}
	st, err := strategyFor(prog)
	if err != nil {
		return nil, err
	}
	asm, err := st.assemble(prog)
	if err != nil {
		return nil, srvErrors.NewConfigurationError(t.QualifiedName(), "%v", err)
	}

	plan := &Plan{
		Strategy:   asm.strategy,
		Parameters: prog.params.params,
		program:    prog,
		asm:        asm,
	}
	if plan.SQL, err = sqlf.FormatPlaceholders(asm.sql, c.d.PlaceholderFormat()); err != nil {
		return nil, err
	}
	for _, s := range asm.setup {
		u, _ := sqlf.FormatPlaceholders(s, nil)
		plan.Setup = append(plan.Setup, u)
	}
	for _, s := range asm.teardown {
		u, _ := sqlf.FormatPlaceholders(s, nil)
		plan.Teardown = append(plan.Teardown, u)
	}

	if prog.probe != nil {
		bd := &positionalBinder{d: c.d}
		probe, err := render(prog.probe, bd)
		if err != nil {
			return nil, srvErrors.NewConfigurationError(t.QualifiedName(), "%v", err)
		}
		if plan.probeSQL, err = sqlf.FormatPlaceholders(probe, c.d.PlaceholderFormat()); err != nil {
			return nil, err
		}
		plan.probe = bd.order
	}
	return plan, nil
}

// Compile plans op on t and runs the plan's setup on db. The returned statement owns
// whatever the setup created until it is closed.
func (c *Compiler) Compile(ctx context.Context, db DB, t *schema.Table, op Operation, opts Options) (*Statement, error) {
	plan, err := c.Plan(t, op, opts)
	if err != nil {
		return nil, err
	}

	for _, ddl := range plan.Setup {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			zap.S().Named("statement").Errorw("failed to create program", "table", t.QualifiedName(), "error", err)
			return nil, srvErrors.NewBackendExecutionError("compile "+t.QualifiedName(), err)
		}
	}

	zap.S().Named("statement").Debugw("statement compiled",
		"table", t.QualifiedName(),
		"operation", op.String(),
		"strategy", plan.Strategy,
		"parameters", len(plan.Parameters))

	return newStatement(db, c.d, plan, opts), nil
}
