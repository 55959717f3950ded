package statement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kubev2v/relcore/pkg/dialect"
	srvErrors "github.com/kubev2v/relcore/pkg/errors"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// Result is what one execution reports.
type Result struct {
	RowsAffected int64
	// RowID is the auto-increment value of the written row.
	RowID *int64
	// ObjectID is the exp.Object id of an extended row.
	ObjectID  *int64
	ObjectURI *string
	// Values holds the reselected columns in statement order, see the index methods.
	Values []any
}

// Statement is a compiled INSERT, UPDATE or MERGE. Bind loads one row, Exec writes
// it. A statement is reusable for any number of rows; calls on one statement are
// serialized, so concurrent writers each compile their own.
type Statement struct {
	mu sync.Mutex

	db     DB
	d      dialect.Dialect
	table  *schema.Table
	op     Operation
	plan   *Plan
	uriGen func() string

	values []any
	bound  bool
	closed bool

	log *zap.SugaredLogger
}

func newStatement(db DB, d dialect.Dialect, plan *Plan, opts Options) *Statement {
	s := &Statement{
		db:     db,
		d:      d,
		table:  plan.program.table,
		op:     plan.program.op,
		plan:   plan,
		uriGen: opts.ObjectURIGenerator,
		log:    zap.S().Named("statement"),
	}
	if s.uriGen == nil {
		s.uriGen = defaultURIGenerator(s.table)
	}
	return s
}

func defaultURIGenerator(t *schema.Table) func() string {
	return func() string {
		return fmt.Sprintf("urn:lsid:relcore:%s:%s", strings.ToLower(t.Name), uuid.NewString())
	}
}

func (s *Statement) SQL() string          { return s.plan.SQL }
func (s *Statement) Strategy() string     { return s.plan.Strategy }
func (s *Statement) Table() *schema.Table { return s.table }
func (s *Statement) Operation() Operation { return s.op }

// Parameters lists every logical parameter in binding order.
func (s *Statement) Parameters() []*Parameter {
	out := make([]*Parameter, len(s.plan.Parameters))
	copy(out, s.plan.Parameters)
	return out
}

// Remap returns the input field renames applied by Bind.
func (s *Statement) Remap() map[string]string {
	out := make(map[string]string, len(s.table.Remap))
	for k, v := range s.table.Remap {
		out[k] = v
	}
	return out
}

// SelectIDIndex is the position of the auto-increment value in Result.Values, -1
// when it is not reselected.
func (s *Statement) SelectIDIndex() int { return s.plan.program.resultIndex(resultRowID) }

func (s *Statement) ObjectIDIndex() int { return s.plan.program.resultIndex(resultObjectID) }

func (s *Statement) ObjectURIIndex() int { return s.plan.program.resultIndex(resultObjectURI) }

// Bind converts and validates row into the statement's parameter buffer. Field names
// match ignoring case, after the table's remap. On error the previous binding stays.
func (s *Statement) Bind(row map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("statement is closed")
	}

	fields := make(map[string]any, len(row))
	for k, v := range row {
		fields[strings.ToLower(s.table.RemapName(k))] = v
	}
	lookup := func(names ...string) any {
		for _, n := range names {
			if v, ok := fields[strings.ToLower(n)]; ok {
				return v
			}
		}
		return nil
	}

	for _, p := range s.plan.program.required {
		if p.Mode != Constant && lookup(p.Name) == nil {
			return srvErrors.NewValidationFailedError(p.Name, fmt.Sprintf("a value is required to %s", s.op))
		}
	}

	values := make([]any, len(s.plan.Parameters))
	for i, p := range s.plan.Parameters {
		if p.Mode == Constant {
			values[i] = p.constant
			continue
		}

		var (
			v   any
			err error
		)
		switch p.kind {
		case kindProperty:
			v, err = p.Type.Convert(lookup(p.Name, p.URI))
			if err != nil {
				return srvErrors.NewValidationFailedError(p.Name, err.Error())
			}
		case kindMVIndicator:
			v, err = sqlf.TypeString.Convert(lookup(p.Name, p.URI))
		case kindContainer:
			v, err = sqlf.TypeString.Convert(lookup(p.Name))
		case kindObjectURI:
			v = lookup(p.Name)
			if v == nil || v == "" {
				v = s.uriGen()
			}
			if p.column != nil {
				v, err = p.column.Check(v)
			}
		default:
			v = lookup(p.Name)
			if p.column != nil {
				v, err = p.column.Check(v)
			}
		}
		if err != nil {
			return err
		}
		values[i] = v
	}

	s.values = values
	s.bound = true
	return nil
}

func (s *Statement) args(order []int) []any {
	args := make([]any, 0, len(order))
	for _, idx := range order {
		args = append(args, s.values[idx])
	}
	return args
}

// Exec writes the bound row. An UPDATE that finds no matching row at the expected
// version fails with an OptimisticConflictError telling whether the row is gone or
// was changed by someone else.
func (s *Statement) Exec(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, errors.New("statement is closed")
	}
	if !s.bound {
		return Result{}, errors.New("statement has no bound row")
	}

	args := s.args(s.plan.asm.order)
	single := s.plan.program.single()

	var res Result
	if s.plan.asm.returnsRows {
		rows, err := s.db.QueryContext(ctx, s.plan.SQL, args...)
		if err != nil {
			return Result{}, s.failed(ctx, err)
		}
		res, err = s.scan(rows)
		if err != nil {
			return Result{}, s.failed(ctx, err)
		}
	} else {
		r, err := s.db.ExecContext(ctx, s.plan.SQL, args...)
		if err != nil {
			return Result{}, s.failed(ctx, err)
		}
		if single {
			if res.RowsAffected, err = r.RowsAffected(); err != nil {
				return Result{}, srvErrors.NewBackendExecutionError(s.opName(), err)
			}
		}
	}
	if !single {
		res.RowsAffected = 1
	}

	if s.op == Update && res.RowsAffected == 0 {
		return Result{}, s.conflict(ctx)
	}

	if res.ObjectURI == nil && s.boundURIStored() {
		if uri, ok := s.values[s.plan.program.uri.index].(string); ok {
			res.ObjectURI = &uri
		}
	}
	return res, nil
}

// boundURIStored reports whether the bound object URI is the one the row holds after
// Exec. A MERGE or UPDATE matching rows by other keys keeps the stored URI.
func (s *Statement) boundURIStored() bool {
	p := s.plan.program
	if p.uri == nil {
		return false
	}
	if s.op == Insert {
		return true
	}
	for _, k := range p.keys {
		if k == p.uri {
			return true
		}
	}
	return false
}

func (s *Statement) scan(rows *sql.Rows) (Result, error) {
	defer rows.Close()

	var res Result
	results := s.plan.program.results
	for rows.Next() {
		res.RowsAffected++
		if res.RowsAffected > 1 {
			continue
		}
		dest := make([]any, len(results))
		for i := range dest {
			dest[i] = new(any)
		}
		if err := rows.Scan(dest...); err != nil {
			return Result{}, err
		}
		res.Values = make([]any, len(results))
		for i, r := range results {
			v := *(dest[i].(*any))
			res.Values[i] = v
			switch r.kind {
			case resultRowID:
				res.RowID = asInt64(v)
			case resultObjectID:
				res.ObjectID = asInt64(v)
			case resultObjectURI:
				if v != nil {
					str := fmt.Sprintf("%s", v)
					res.ObjectURI = &str
				}
			}
		}
	}
	return res, rows.Err()
}

func asInt64(v any) *int64 {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case int32:
		n = int64(x)
	case int:
		n = int64(x)
	case float64:
		n = int64(x)
	case []byte:
		if _, err := fmt.Sscan(string(x), &n); err != nil {
			return nil
		}
	default:
		return nil
	}
	return &n
}

func (s *Statement) opName() string {
	return s.op.String() + " " + s.table.QualifiedName()
}

func (s *Statement) failed(ctx context.Context, err error) error {
	if s.op == Update && srvErrors.IsConflictSignal(err) {
		return s.conflict(ctx)
	}
	if srvErrors.IsConstraintViolation(err) {
		s.log.Warnw("constraint violation", "table", s.table.QualifiedName(), "operation", s.op.String(), "error", err)
	} else {
		s.log.Errorw("statement failed", "table", s.table.QualifiedName(), "operation", s.op.String(), "error", err)
	}
	return srvErrors.NewBackendExecutionError(s.opName(), err)
}

// conflict tells a deleted row from a concurrently updated one.
func (s *Statement) conflict(ctx context.Context) error {
	var count int64
	rows, err := s.db.QueryContext(ctx, s.plan.probeSQL, s.args(s.plan.probe)...)
	if err != nil {
		return srvErrors.NewBackendExecutionError(s.opName(), err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return srvErrors.NewBackendExecutionError(s.opName(), err)
		}
	}
	if err := rows.Err(); err != nil {
		return srvErrors.NewBackendExecutionError(s.opName(), err)
	}

	reason := srvErrors.ConflictRowUpdated
	if count == 0 {
		reason = srvErrors.ConflictRowDeleted
	}
	s.log.Debugw("optimistic conflict", "table", s.table.QualifiedName(), "reason", reason.String())
	return srvErrors.NewOptimisticConflictError(s.table.QualifiedName(), reason)
}

// Close drops whatever Compile created. It is safe to call more than once.
func (s *Statement) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.values = nil

	var errs []error
	for _, ddl := range s.plan.Teardown {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			s.log.Errorw("failed to drop program", "table", s.table.QualifiedName(), "statement", ddl, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return srvErrors.NewBackendExecutionError("close "+s.table.QualifiedName(), errors.Join(errs...))
	}
	return nil
}
