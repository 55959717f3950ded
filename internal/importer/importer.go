// Package importer writes many rows into one table through compiled statements,
// one statement per worker. A row that fails validation or hits a constraint is
// recorded and the import goes on.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/relcore/pkg/errors"
	"github.com/kubev2v/relcore/pkg/scheduler"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/statement"
)

const DefaultWorkers = 4

type RowError struct {
	// Row is the 1-based position of the row in the source.
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

type Report struct {
	Rows      int
	Succeeded int
	Conflicts int
	Failures  []RowError

	// Results holds one entry per source row; failed rows keep the zero Result.
	Results []statement.Result
}

func (r *Report) Failed() int {
	return len(r.Failures)
}

type Importer struct {
	compiler *statement.Compiler
	db       statement.DB
	table    *schema.Table
	op       statement.Operation
	opts     statement.Options
	workers  int
	log      *zap.SugaredLogger
}

func New(compiler *statement.Compiler, db statement.DB, table *schema.Table, op statement.Operation, opts statement.Options) *Importer {
	return &Importer{
		compiler: compiler,
		db:       db,
		table:    table,
		op:       op,
		opts:     opts,
		workers:  DefaultWorkers,
		log:      zap.S().Named("importer"),
	}
}

func (i *Importer) WithWorkers(n int) *Importer {
	if n > 0 {
		i.workers = n
	}
	return i
}

// Run writes every row of src. The returned error is set only when the import
// could not run at all: statements failed to compile, src failed, a row failed
// for a reason other than its data, or ctx was cancelled.
func (i *Importer) Run(ctx context.Context, src Source) (*Report, error) {
	pool := make(chan *statement.Statement, i.workers)
	defer func() {
		close(pool)
		for stmt := range pool {
			if err := stmt.Close(context.Background()); err != nil {
				i.log.Errorw("failed to close statement", "table", i.table.QualifiedName(), "error", err)
			}
		}
	}()
	for n := 0; n < i.workers; n++ {
		stmt, err := i.compiler.Compile(ctx, i.db, i.table, i.op, i.opts)
		if err != nil {
			return nil, err
		}
		pool <- stmt
	}

	sched := scheduler.NewScheduler[statement.Result](i.workers)
	defer sched.Close()

	var futures []*scheduler.Future[statement.Result]
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			for _, f := range futures {
				f.Stop()
			}
			return nil, fmt.Errorf("reading row %d: %w", len(futures)+1, err)
		}
		futures = append(futures, sched.AddWork(i.write(pool, row)))
	}

	report := &Report{Rows: len(futures), Results: make([]statement.Result, len(futures))}
	var fatal error
	for n, f := range futures {
		res, err := f.Wait(ctx)
		switch {
		case err == nil:
			report.Succeeded++
			report.Results[n] = res
		case rowLevel(err):
			if srvErrors.IsOptimisticConflictError(err) {
				report.Conflicts++
			}
			report.Failures = append(report.Failures, RowError{Row: n + 1, Err: err})
		default:
			if fatal == nil {
				fatal = fmt.Errorf("row %d: %w", n+1, err)
			}
			report.Failures = append(report.Failures, RowError{Row: n + 1, Err: err})
		}
	}

	i.log.Infow("import finished",
		"table", i.table.QualifiedName(),
		"operation", i.op.String(),
		"rows", report.Rows,
		"succeeded", report.Succeeded,
		"failed", report.Failed())
	return report, fatal
}

func (i *Importer) write(pool chan *statement.Statement, row map[string]any) scheduler.Work[statement.Result] {
	return func(ctx context.Context) (statement.Result, error) {
		var stmt *statement.Statement
		select {
		case stmt = <-pool:
		case <-ctx.Done():
			return statement.Result{}, ctx.Err()
		}
		defer func() { pool <- stmt }()

		if err := stmt.Bind(row); err != nil {
			return statement.Result{}, err
		}
		return stmt.Exec(ctx)
	}
}

// rowLevel reports whether err is caused by the row's data rather than the backend.
func rowLevel(err error) bool {
	if srvErrors.IsValidationFailedError(err) || srvErrors.IsOptimisticConflictError(err) {
		return true
	}
	var be *srvErrors.BackendExecutionError
	return errors.As(err, &be) && be.Constraint
}
