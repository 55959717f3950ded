package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// CompareClause compares one field with a single value.
type CompareClause struct {
	flags
	key   FieldKey
	op    Operator
	value any
}

var _ Clause = (*CompareClause)(nil)

// NewCompareClause returns a comparison. Set operators are rejected, use NewInClause
// or NewContainsOneOfClause for them.
func NewCompareClause(field FieldKey, op Operator, value any) (*CompareClause, error) {
	if op.isSet() {
		return nil, fmt.Errorf("operator %s takes a list of values", op)
	}
	if !op.NeedsValue() {
		value = nil
	}
	return &CompareClause{key: field, op: op, value: value}, nil
}

func Eq(field FieldKey, value any) *CompareClause {
	return &CompareClause{key: field, op: OpEqual, value: value}
}

func Neq(field FieldKey, value any) *CompareClause {
	return &CompareClause{key: field, op: OpNotEqual, value: value}
}

func IsBlank(field FieldKey) *CompareClause {
	return &CompareClause{key: field, op: OpIsBlank}
}

func IsNonBlank(field FieldKey) *CompareClause {
	return &CompareClause{key: field, op: OpIsNonBlank}
}

func (c *CompareClause) Operator() Operator { return c.op }
func (c *CompareClause) Value() any         { return c.value }

func (c *CompareClause) FieldKeys() []FieldKey { return []FieldKey{c.key} }

func (c *CompareClause) Params() []any {
	if c.value == nil {
		return nil
	}
	return []any{c.value}
}

func (c *CompareClause) IncludeNull() bool {
	switch c.op {
	case OpIsBlank, OpNotEqualOrNull, OpDoesNotStartWith, OpDoesNotContain, OpDateNotEqual:
		return true
	case OpEqual:
		return c.value == nil
	}
	return false
}

func (c *CompareClause) Negated() bool { return c.op.Negated() }

func (c *CompareClause) field() FieldKey { return c.key }

func (c *CompareClause) ToSQLFragment(columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error) {
	return leafFragment(c, columns, d)
}

func (c *CompareClause) WhereText(columns ColumnMap) (string, error) {
	return leafWhereText(c, columns)
}

func (c *CompareClause) render(w sqlWriter, expr string, t sqlf.ValueType) error {
	switch c.op {
	case OpIsBlank:
		w.write(expr, " IS NULL")
		return nil
	case OpIsNonBlank:
		w.write(expr, " IS NOT NULL")
		return nil
	case OpStartsWith, OpDoesNotStartWith, OpContains, OpDoesNotContain:
		return c.renderLike(w, expr, t)
	case OpDateEqual, OpDateNotEqual:
		return c.renderDate(w, expr)
	}

	var v any
	if !isBlank(c.value) {
		var err error
		if v, err = t.Convert(c.value); err != nil {
			return fmt.Errorf("field %s: %w", c.key, err)
		}
	}
	if v == nil {
		switch c.op {
		case OpEqual:
			w.write(expr, " IS NULL")
			return nil
		case OpNotEqual, OpNotEqualOrNull:
			w.write(expr, " IS NOT NULL")
			return nil
		}
		return fmt.Errorf("field %s: operator %s requires a value", c.key, c.op)
	}

	switch c.op {
	case OpEqual:
		w.write(expr, " = ")
		w.param(v)
	case OpNotEqual:
		w.write(expr, " <> ")
		w.param(v)
	case OpNotEqualOrNull:
		w.write("(", expr, " <> ")
		w.param(v)
		w.write(" OR ", expr, " IS NULL)")
	case OpGreater:
		w.write(expr, " > ")
		w.param(v)
	case OpGreaterOrEqual:
		w.write(expr, " >= ")
		w.param(v)
	case OpLess:
		w.write(expr, " < ")
		w.param(v)
	case OpLessOrEqual:
		w.write(expr, " <= ")
		w.param(v)
	default:
		return fmt.Errorf("unsupported operator %s", c.op)
	}
	return nil
}

func (c *CompareClause) renderLike(w sqlWriter, expr string, t sqlf.ValueType) error {
	if isBlank(c.value) {
		return fmt.Errorf("field %s: operator %s requires a value", c.key, c.op)
	}
	pattern := escapeLike(textOf(c.value))
	switch c.op {
	case OpStartsWith, OpDoesNotStartWith:
		pattern += "%"
	default:
		pattern = "%" + pattern + "%"
	}
	if t != sqlf.TypeString {
		expr = w.castToText(expr)
	}
	if c.op.Negated() {
		w.write("(LOWER(", expr, ") NOT LIKE LOWER(")
		w.param(pattern)
		w.write(") ESCAPE '!' OR ", expr, " IS NULL)")
		return nil
	}
	w.write("LOWER(", expr, ") LIKE LOWER(")
	w.param(pattern)
	w.write(") ESCAPE '!'")
	return nil
}

func (c *CompareClause) renderDate(w sqlWriter, expr string) error {
	day, err := c.day()
	if err != nil {
		return err
	}
	next := day.AddDate(0, 0, 1)
	if c.op == OpDateEqual {
		w.write("(", expr, " >= ")
		w.param(day)
		w.write(" AND ", expr, " < ")
		w.param(next)
		w.write(")")
		return nil
	}
	w.write("(", expr, " < ")
	w.param(day)
	w.write(" OR ", expr, " >= ")
	w.param(next)
	w.write(" OR ", expr, " IS NULL)")
	return nil
}

func (c *CompareClause) day() (time.Time, error) {
	v, err := sqlf.TypeTimestamp.Convert(c.value)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", c.key, err)
	}
	if v == nil {
		return time.Time{}, fmt.Errorf("field %s: operator %s requires a value", c.key, c.op)
	}
	return startOfDay(v.(time.Time)), nil
}

func (c *CompareClause) AppendFilterText(b *strings.Builder, format FieldFormatter) {
	b.WriteString(format(c.key))
	b.WriteByte(' ')
	if c.value == nil && c.op == OpEqual {
		b.WriteString(OpIsBlank.Display())
		return
	}
	b.WriteString(c.op.Display())
	if c.op.NeedsValue() {
		b.WriteByte(' ')
		b.WriteString(displayValue(c.value))
	}
}

func (c *CompareClause) ToURLParam(prefix string) (string, string, bool) {
	return urlKey(prefix, c.key, c.op), displayValue(c.value), true
}

func (c *CompareClause) MeetsCriteria(value any) (bool, error) {
	blank := isBlank(value)
	switch c.op {
	case OpIsBlank:
		return blank, nil
	case OpIsNonBlank:
		return !blank, nil
	case OpStartsWith, OpDoesNotStartWith:
		match := !blank && strings.HasPrefix(strings.ToLower(textOf(value)), strings.ToLower(textOf(c.value)))
		return match != c.op.Negated(), nil
	case OpContains, OpDoesNotContain:
		match := !blank && strings.Contains(strings.ToLower(textOf(value)), strings.ToLower(textOf(c.value)))
		return match != c.op.Negated(), nil
	case OpDateEqual, OpDateNotEqual:
		day, err := c.day()
		if err != nil {
			return false, err
		}
		match := false
		if !blank {
			v, err := sqlf.TypeTimestamp.Convert(value)
			if err != nil {
				return false, err
			}
			match = startOfDay(v.(time.Time)).Equal(day)
		}
		return match != c.op.Negated(), nil
	}

	if isBlank(c.value) {
		switch c.op {
		case OpEqual:
			return blank, nil
		case OpNotEqual, OpNotEqualOrNull:
			return !blank, nil
		}
		return false, fmt.Errorf("field %s: operator %s requires a value", c.key, c.op)
	}
	if blank {
		return c.op == OpNotEqualOrNull, nil
	}

	cmp, err := compareValues(value, c.value)
	if err != nil {
		return false, err
	}
	switch c.op {
	case OpEqual:
		return cmp == 0, nil
	case OpNotEqual, OpNotEqualOrNull:
		return cmp != 0, nil
	case OpGreater:
		return cmp > 0, nil
	case OpGreaterOrEqual:
		return cmp >= 0, nil
	case OpLess:
		return cmp < 0, nil
	case OpLessOrEqual:
		return cmp <= 0, nil
	}
	return false, fmt.Errorf("unsupported operator %s", c.op)
}

func (c *CompareClause) CacheKey() string {
	return cacheKey("compare:"+c.op.URLKey(), c.FieldKeys(), false, false, c.Params(), false)
}
