package scope

import (
	"context"
	"strings"

	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

type sqlOptions struct {
	requireNonNull bool
}

type SQLOption func(*sqlOptions)

// RequireNonNull makes an unrestricted scope still reject rows whose container
// column is NULL.
func RequireNonNull() SQLOption {
	return func(o *sqlOptions) {
		o.requireNonNull = true
	}
}

// SQLFragment restricts column, a container id column, to the resolved scope.
func (r *Resolver) SQLFragment(ctx context.Context, d dialect.Dialect, column string, opts ...SQLOption) (*sqlf.Fragment, error) {
	o := &sqlOptions{}
	for _, opt := range opts {
		opt(o)
	}

	res, err := r.IDs(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case res.Unrestricted && o.requireNonNull:
		return sqlf.New(column + " IS NOT NULL"), nil
	case res.Unrestricted:
		return sqlf.True(), nil
	case len(res.IDs) == 0:
		return sqlf.False(), nil
	}

	f := sqlf.New(column + " ")
	if !r.joinsChildren {
		return r.appendIDs(f, d, res.IDs), nil
	}

	types := r.IncludedChildTypes()
	f.Append("IN (SELECT EntityId FROM ", r.env.HierarchyTable, " WHERE EntityId ")
	r.appendIDs(f, d, res.IDs)
	f.Append(" OR (Parent ")
	r.appendIDs(f, d, res.IDs)
	f.Append(" AND Type IN (", typeList(d, types), ")))")
	return f, nil
}

// appendIDs writes "IN (...)". Large sets become a derived VALUES table of literals.
func (r *Resolver) appendIDs(f *sqlf.Fragment, d dialect.Dialect, ids []string) *sqlf.Fragment {
	if len(ids) <= r.env.InListThreshold {
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = id
		}
		return d.AppendInClause(f, values)
	}
	rows := make([]string, len(ids))
	for i, id := range ids {
		rows[i] = "(" + sqlf.EscapeLiteral(d.QuoteString(id)) + ")"
	}
	f.Append("IN (SELECT id FROM (VALUES ", strings.Join(rows, ", "), ") AS _scope(id))")
	return f
}

func typeList(d dialect.Dialect, types []container.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = sqlf.EscapeLiteral(d.QuoteString(string(t)))
	}
	return strings.Join(parts, ", ")
}
