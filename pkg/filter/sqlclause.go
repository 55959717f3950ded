package filter

import (
	"strings"

	"github.com/kubev2v/relcore/pkg/dialect"
	srvErrors "github.com/kubev2v/relcore/pkg/errors"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// SQLClause passes raw SQL through. The text is used for every dialect as is and
// is not described in filter text unless DisplayAlways is set.
type SQLClause struct {
	flags
	sql    string
	params []any
	keys   []FieldKey
}

var _ Clause = (*SQLClause)(nil)

func NewSQLClause(sql string, params []any, fields ...FieldKey) *SQLClause {
	return &SQLClause{sql: sql, params: params, keys: fields}
}

func (c *SQLClause) FieldKeys() []FieldKey { return c.keys }
func (c *SQLClause) Params() []any         { return c.params }
func (c *SQLClause) IncludeNull() bool     { return false }
func (c *SQLClause) Negated() bool         { return false }

func (c *SQLClause) ToSQLFragment(ColumnMap, dialect.Dialect) (*sqlf.Fragment, error) {
	return sqlf.New(c.sql, c.params...), nil
}

func (c *SQLClause) WhereText(ColumnMap) (string, error) {
	return sqlf.New(c.sql, c.params...).String(), nil
}

func (c *SQLClause) AppendFilterText(b *strings.Builder, _ FieldFormatter) {
	if c.DisplayAlways() {
		b.WriteString(sqlf.New(c.sql, c.params...).String())
	}
}

func (c *SQLClause) ToURLParam(string) (string, string, bool) {
	return "", "", false
}

func (c *SQLClause) MeetsCriteria(any) (bool, error) {
	return false, srvErrors.NewUnsupportedError("in-memory evaluation of a SQL clause")
}

func (c *SQLClause) CacheKey() string {
	return cacheKey("sql:"+c.sql, c.keys, false, false, c.params, false)
}

// FalseClause never matches.
type FalseClause struct {
	flags
}

var _ Clause = (*FalseClause)(nil)

func False() *FalseClause { return &FalseClause{} }

func (c *FalseClause) FieldKeys() []FieldKey { return nil }
func (c *FalseClause) Params() []any         { return nil }
func (c *FalseClause) IncludeNull() bool     { return false }
func (c *FalseClause) Negated() bool         { return false }

func (c *FalseClause) ToSQLFragment(ColumnMap, dialect.Dialect) (*sqlf.Fragment, error) {
	return sqlf.False(), nil
}

func (c *FalseClause) WhereText(ColumnMap) (string, error) { return "1=0", nil }

func (c *FalseClause) AppendFilterText(b *strings.Builder, _ FieldFormatter) {
	b.WriteString("FALSE")
}

func (c *FalseClause) ToURLParam(string) (string, string, bool) {
	return "", "", false
}

func (c *FalseClause) MeetsCriteria(any) (bool, error) { return false, nil }

func (c *FalseClause) CacheKey() string { return "false" }
