package filter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// SimpleFilter is the ordered list of clauses that make up the WHERE of a grid. The
// clauses are ANDed.
type SimpleFilter struct {
	clauses []Clause
}

func NewSimpleFilter(clauses ...Clause) *SimpleFilter {
	return &SimpleFilter{clauses: clauses}
}

func (f *SimpleFilter) Add(c Clause) *SimpleFilter {
	f.clauses = append(f.clauses, c)
	return f
}

func (f *SimpleFilter) Clauses() []Clause { return f.clauses }

func (f *SimpleFilter) IsEmpty() bool { return len(f.clauses) == 0 }

func (f *SimpleFilter) FieldKeys() []FieldKey {
	return distinctKeys(collectFieldKeys(f.clauses))
}

// ToSQLFragment renders the filter. An empty filter is unrestricted.
func (f *SimpleFilter) ToSQLFragment(columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error) {
	if len(f.clauses) == 0 {
		return sqlf.True(), nil
	}
	if len(f.clauses) == 1 {
		return f.clauses[0].ToSQLFragment(columns, d)
	}
	return And(f.clauses...).ToSQLFragment(columns, d)
}

func (f *SimpleFilter) WhereText(columns ColumnMap) (string, error) {
	if len(f.clauses) == 0 {
		return "", nil
	}
	return And(f.clauses...).WhereText(columns)
}

// FilterText describes the filter for display, skipping clauses with an empty
// description.
func (f *SimpleFilter) FilterText(format FieldFormatter) string {
	parts := make([]string, 0, len(f.clauses))
	for _, c := range f.clauses {
		if text := FilterText(c, format); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " AND ")
}

// URLParams encodes every clause that has a URL form.
func (f *SimpleFilter) URLParams(prefix string) url.Values {
	values := url.Values{}
	for _, c := range f.clauses {
		if key, value, ok := c.ToURLParam(prefix); ok {
			values.Add(key, value)
		}
	}
	return values
}

// AddURLFilters appends the filters of region found in values. See ParseURLFilters.
func (f *SimpleFilter) AddURLFilters(values url.Values, region string, columns ColumnMap) *SimpleFilter {
	for _, key := range sortedKeys(values) {
		for _, value := range values[key] {
			c, ok := ParseURLParam(region, key, value)
			if !ok {
				continue
			}
			if columns != nil && !resolvable(columns, c) {
				continue
			}
			f.clauses = append(f.clauses, c)
		}
	}
	return f
}

func (f *SimpleFilter) CacheKey() string {
	return And(f.clauses...).CacheKey()
}

func resolvable(columns ColumnMap, c Clause) bool {
	for _, k := range c.FieldKeys() {
		if !columns.Has(k) {
			return false
		}
	}
	return true
}

func errMissingValue(field FieldKey, op Operator) error {
	return fmt.Errorf("field %s: operator %s requires a value", field, op)
}
