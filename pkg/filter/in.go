package filter

import (
	"fmt"
	"strings"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// InClause tests set membership.
//
// Null handling is asymmetric on purpose:
//
//	values  includeNull  negated   SQL
//	{}      false        false     1=0
//	{}      false        true      1=1
//	{}      true         false     f IS NULL
//	{}      true         true      f IS NOT NULL
//	V       false        false     f IN (V)
//	V       true         false     (f IN (V) OR f IS NULL)
//	V       false        true      (NOT (f IN (V)) OR f IS NULL)
//	V       true         true      (NOT (f IN (V)) AND f IS NOT NULL)
type InClause struct {
	flags
	key         FieldKey
	values      []any
	includeNull bool
	negated     bool
}

var _ Clause = (*InClause)(nil)

// NewInClause returns a membership test for values. nil and "" entries are removed
// from the set and turn on includeNull.
func NewInClause(field FieldKey, values []any, negated bool) *InClause {
	kept, blank := extractBlanks(values)
	return &InClause{key: field, values: kept, includeNull: blank, negated: negated}
}

// NewInClauseIncludeNull is NewInClause with includeNull forced on or left to the
// blank entries of values.
func NewInClauseIncludeNull(field FieldKey, values []any, includeNull, negated bool) *InClause {
	c := NewInClause(field, values, negated)
	c.includeNull = c.includeNull || includeNull
	return c
}

func (c *InClause) FieldKeys() []FieldKey { return []FieldKey{c.key} }
func (c *InClause) Params() []any         { return c.values }
func (c *InClause) IncludeNull() bool     { return c.includeNull }
func (c *InClause) Negated() bool         { return c.negated }
func (c *InClause) field() FieldKey       { return c.key }

func (c *InClause) ToSQLFragment(columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error) {
	return leafFragment(c, columns, d)
}

func (c *InClause) WhereText(columns ColumnMap) (string, error) {
	return leafWhereText(c, columns)
}

func (c *InClause) render(w sqlWriter, expr string, t sqlf.ValueType) error {
	values, err := convertAll(c.values, t)
	if err != nil {
		return fmt.Errorf("field %s: %w", c.key, err)
	}

	switch {
	case len(values) == 0 && !c.includeNull:
		if c.negated {
			w.write("1=1")
		} else {
			w.write("1=0")
		}
	case len(values) == 0:
		if c.negated {
			w.write(expr, " IS NOT NULL")
		} else {
			w.write(expr, " IS NULL")
		}
	case !c.negated && !c.includeNull:
		w.write(expr, " ")
		w.inList(values)
	case !c.negated:
		w.write("(", expr, " ")
		w.inList(values)
		w.write(" OR ", expr, " IS NULL)")
	case c.includeNull:
		w.write("(NOT (", expr, " ")
		w.inList(values)
		w.write(") AND ", expr, " IS NOT NULL)")
	default:
		w.write("(NOT (", expr, " ")
		w.inList(values)
		w.write(") OR ", expr, " IS NULL)")
	}
	return nil
}

func (c *InClause) AppendFilterText(b *strings.Builder, format FieldFormatter) {
	b.WriteString(format(c.key))
	b.WriteByte(' ')
	if c.negated {
		b.WriteString(OpNotIn.Display())
	} else {
		b.WriteString(OpIn.Display())
	}
	b.WriteString(" (")
	for i, v := range c.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(displayValue(v))
	}
	if c.includeNull {
		if len(c.values) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("BLANK")
	}
	b.WriteByte(')')
}

func (c *InClause) ToURLParam(prefix string) (string, string, bool) {
	op := OpIn
	if c.negated {
		op = OpNotIn
	}
	return urlKey(prefix, c.key, op), encodeList(c.values, c.includeNull), true
}

func (c *InClause) MeetsCriteria(value any) (bool, error) {
	if isBlank(value) {
		return c.includeNull != c.negated, nil
	}
	found := false
	for _, v := range c.values {
		cmp, err := compareValues(value, v)
		if err == nil && cmp == 0 {
			found = true
			break
		}
	}
	return found != c.negated, nil
}

func (c *InClause) CacheKey() string {
	return cacheKey("in", c.FieldKeys(), c.negated, c.includeNull, c.values, true)
}
