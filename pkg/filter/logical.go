package filter

import (
	"strings"

	"github.com/kubev2v/relcore/pkg/dialect"
	srvErrors "github.com/kubev2v/relcore/pkg/errors"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// OperationClause joins child clauses with AND or OR. Every child is rendered and
// parenthesized; no short circuit is applied to the SQL.
type OperationClause struct {
	flags
	op       string
	children []Clause
}

var _ Clause = (*OperationClause)(nil)

// And returns the conjunction of clauses. An empty conjunction renders as 1=1 but
// MeetsCriteria reports false for it.
func And(clauses ...Clause) *OperationClause {
	return &OperationClause{op: "AND", children: clauses}
}

// Or returns the disjunction of clauses. An empty disjunction renders as 1=0.
func Or(clauses ...Clause) *OperationClause {
	return &OperationClause{op: "OR", children: clauses}
}

func (c *OperationClause) Add(clause Clause) *OperationClause {
	c.children = append(c.children, clause)
	return c
}

func (c *OperationClause) Clauses() []Clause { return c.children }

func (c *OperationClause) isAnd() bool { return c.op == "AND" }

func (c *OperationClause) FieldKeys() []FieldKey {
	return collectFieldKeys(c.children)
}

func (c *OperationClause) Params() []any {
	var params []any
	for _, child := range c.children {
		params = append(params, child.Params()...)
	}
	return params
}

func (c *OperationClause) IncludeNull() bool { return false }
func (c *OperationClause) Negated() bool     { return false }

func (c *OperationClause) ToSQLFragment(columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error) {
	if len(c.children) == 0 {
		if c.isAnd() {
			return sqlf.True(), nil
		}
		return sqlf.False(), nil
	}
	f := sqlf.New("")
	for i, child := range c.children {
		cf, err := child.ToSQLFragment(columns, d)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			f.Append(" ", c.op, " ")
		}
		f.Append("(").AppendFragment(cf).Append(")")
	}
	return f, nil
}

func (c *OperationClause) WhereText(columns ColumnMap) (string, error) {
	if len(c.children) == 0 {
		if c.isAnd() {
			return "1=1", nil
		}
		return "1=0", nil
	}
	parts := make([]string, 0, len(c.children))
	for _, child := range c.children {
		text, err := child.WhereText(columns)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+text+")")
	}
	return strings.Join(parts, " "+c.op+" "), nil
}

func (c *OperationClause) AppendFilterText(b *strings.Builder, format FieldFormatter) {
	for i, child := range c.children {
		if i > 0 {
			b.WriteString(" " + c.op + " ")
		}
		_, nested := child.(*OperationClause)
		if nested {
			b.WriteByte('(')
		}
		child.AppendFilterText(b, format)
		if nested {
			b.WriteByte(')')
		}
	}
}

func (c *OperationClause) ToURLParam(string) (string, string, bool) {
	return "", "", false
}

func (c *OperationClause) MeetsCriteria(value any) (bool, error) {
	if len(distinctKeys(c.FieldKeys())) > 1 {
		return false, srvErrors.NewUnsupportedError("in-memory evaluation of a clause reading several fields")
	}
	if c.isAnd() {
		if len(c.children) == 0 {
			return false, nil
		}
		for _, child := range c.children {
			ok, err := child.MeetsCriteria(value)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	for _, child := range c.children {
		ok, err := child.MeetsCriteria(value)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *OperationClause) CacheKey() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(c.op))
	b.WriteByte('[')
	for i, child := range c.children {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(child.CacheKey())
	}
	b.WriteByte(']')
	return b.String()
}

// NotClause negates its child.
type NotClause struct {
	flags
	child Clause
}

var _ Clause = (*NotClause)(nil)

func Not(clause Clause) *NotClause {
	return &NotClause{child: clause}
}

func (c *NotClause) Clause() Clause        { return c.child }
func (c *NotClause) FieldKeys() []FieldKey { return c.child.FieldKeys() }
func (c *NotClause) Params() []any         { return c.child.Params() }
func (c *NotClause) IncludeNull() bool     { return c.child.IncludeNull() }
func (c *NotClause) Negated() bool         { return true }

func (c *NotClause) ToSQLFragment(columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error) {
	cf, err := c.child.ToSQLFragment(columns, d)
	if err != nil {
		return nil, err
	}
	return sqlf.New("NOT (").AppendFragment(cf).Append(")"), nil
}

func (c *NotClause) WhereText(columns ColumnMap) (string, error) {
	text, err := c.child.WhereText(columns)
	if err != nil {
		return "", err
	}
	return "NOT (" + text + ")", nil
}

func (c *NotClause) AppendFilterText(b *strings.Builder, format FieldFormatter) {
	b.WriteString("NOT (")
	c.child.AppendFilterText(b, format)
	b.WriteByte(')')
}

func (c *NotClause) ToURLParam(string) (string, string, bool) {
	return "", "", false
}

func (c *NotClause) MeetsCriteria(value any) (bool, error) {
	ok, err := c.child.MeetsCriteria(value)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (c *NotClause) CacheKey() string {
	return "not[" + c.child.CacheKey() + "]"
}

func collectFieldKeys(clauses []Clause) []FieldKey {
	var keys []FieldKey
	for _, c := range clauses {
		keys = append(keys, c.FieldKeys()...)
	}
	return keys
}

func distinctKeys(keys []FieldKey) []FieldKey {
	seen := make(map[FieldKey]struct{}, len(keys))
	out := make([]FieldKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
