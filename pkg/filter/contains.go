package filter

import (
	"strings"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// ContainsOneOfClause matches values containing at least one of several substrings,
// ignoring case. Null handling follows InClause.
type ContainsOneOfClause struct {
	flags
	key         FieldKey
	values      []any
	includeNull bool
	negated     bool
}

var _ Clause = (*ContainsOneOfClause)(nil)

func NewContainsOneOfClause(field FieldKey, values []any, negated bool) *ContainsOneOfClause {
	kept, blank := extractBlanks(values)
	return &ContainsOneOfClause{key: field, values: kept, includeNull: blank, negated: negated}
}

func (c *ContainsOneOfClause) FieldKeys() []FieldKey { return []FieldKey{c.key} }
func (c *ContainsOneOfClause) Params() []any         { return c.values }
func (c *ContainsOneOfClause) IncludeNull() bool     { return c.includeNull }
func (c *ContainsOneOfClause) Negated() bool         { return c.negated }
func (c *ContainsOneOfClause) field() FieldKey       { return c.key }

func (c *ContainsOneOfClause) ToSQLFragment(columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error) {
	return leafFragment(c, columns, d)
}

func (c *ContainsOneOfClause) WhereText(columns ColumnMap) (string, error) {
	return leafWhereText(c, columns)
}

func (c *ContainsOneOfClause) render(w sqlWriter, expr string, t sqlf.ValueType) error {
	if len(c.values) == 0 {
		switch {
		case !c.includeNull && c.negated:
			w.write("1=1")
		case !c.includeNull:
			w.write("1=0")
		case c.negated:
			w.write(expr, " IS NOT NULL")
		default:
			w.write(expr, " IS NULL")
		}
		return nil
	}

	text := expr
	if t != sqlf.TypeString {
		text = w.castToText(expr)
	}
	likes := func() {
		w.write("(")
		for i, v := range c.values {
			if i > 0 {
				w.write(" OR ")
			}
			w.write("LOWER(", text, ") LIKE LOWER(")
			w.param("%" + escapeLike(textOf(v)) + "%")
			w.write(") ESCAPE '!'")
		}
		w.write(")")
	}

	switch {
	case !c.negated && !c.includeNull:
		likes()
	case !c.negated:
		w.write("(")
		likes()
		w.write(" OR ", expr, " IS NULL)")
	case c.includeNull:
		w.write("(NOT ")
		likes()
		w.write(" AND ", expr, " IS NOT NULL)")
	default:
		w.write("(NOT ")
		likes()
		w.write(" OR ", expr, " IS NULL)")
	}
	return nil
}

func (c *ContainsOneOfClause) AppendFilterText(b *strings.Builder, format FieldFormatter) {
	b.WriteString(format(c.key))
	b.WriteByte(' ')
	if c.negated {
		b.WriteString(OpContainsNoneOf.Display())
	} else {
		b.WriteString(OpContainsOneOf.Display())
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

func (c *ContainsOneOfClause) ToURLParam(prefix string) (string, string, bool) {
	op := OpContainsOneOf
	if c.negated {
		op = OpContainsNoneOf
	}
	return urlKey(prefix, c.key, op), encodeList(c.values, c.includeNull), true
}

func (c *ContainsOneOfClause) MeetsCriteria(value any) (bool, error) {
	if isBlank(value) {
		return c.includeNull != c.negated, nil
	}
	s := strings.ToLower(textOf(value))
	found := false
	for _, v := range c.values {
		if strings.Contains(s, strings.ToLower(textOf(v))) {
			found = true
			break
		}
	}
	return found != c.negated, nil
}

func (c *ContainsOneOfClause) CacheKey() string {
	return cacheKey("containsoneof", c.FieldKeys(), c.negated, c.includeNull, c.values, true)
}
