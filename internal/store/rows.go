package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/filter"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/scope"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// ListOption shapes the select built by RowStore.Select.
type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

func WithSort(orderBy ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy(orderBy...)
	}
}

// WithWhere adds a condition, typically a *sqlf.Fragment.
func WithWhere(cond sq.Sqlizer) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(cond)
	}
}

// RowStore reads rows of described tables.
type RowStore struct {
	db QueryInterceptor
	d  dialect.Dialect
}

func NewRowStore(db QueryInterceptor, d dialect.Dialect) *RowStore {
	return &RowStore{db: db, d: d}
}

// Filter turns f into a condition on t's columns.
func (s *RowStore) Filter(t *schema.Table, f *filter.SimpleFilter) (ListOption, error) {
	frag, err := f.ToSQLFragment(t.ColumnMap(""), s.d)
	if err != nil {
		return nil, err
	}
	return WithWhere(frag), nil
}

// Scope restricts rows to the containers r resolves to, through column.
func (s *RowStore) Scope(ctx context.Context, r *scope.Resolver, column string) (ListOption, error) {
	frag, err := r.SQLFragment(ctx, s.d, column)
	if err != nil {
		return nil, err
	}
	return WithWhere(frag), nil
}

// Select returns the rows of t matching opts, keyed by column name.
func (s *RowStore) Select(ctx context.Context, t *schema.Table, opts ...ListOption) ([]map[string]any, error) {
	columns := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		columns = append(columns, c.Expr())
	}
	builder := sq.Select(columns...).From(t.QualifiedName())
	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	// fragments escape literal question marks, so placeholders are rewritten here
	if query, err = sqlf.FormatPlaceholders(query, s.d.PlaceholderFormat()); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(t.Columns))
		dest := make([]any, len(t.Columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.QualifiedName(), err)
		}
		row := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			row[c.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the number of rows of t matching opts.
func (s *RowStore) Count(ctx context.Context, t *schema.Table, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From(t.QualifiedName())
	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	if query, err = sqlf.FormatPlaceholders(query, s.d.PlaceholderFormat()); err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
