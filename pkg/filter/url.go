package filter

import (
	"net/url"
	"sort"
	"strings"
)

const listSeparator = ";"

// ParseURLParam decodes one "<region>.<field>~<op>=<value>" or "<region>~<op>=<value>"
// parameter. ok is false for anything that is not a filter of region, including
// unknown operators and values the operator cannot take.
func ParseURLParam(region, key, value string) (Clause, bool) {
	var field FieldKey
	switch {
	case strings.HasPrefix(key, region+"~"):
		field = RegionKey
		key = key[len(region):]
	case strings.HasPrefix(key, region+"."):
		key = key[len(region)+1:]
		i := strings.LastIndex(key, "~")
		if i <= 0 {
			return nil, false
		}
		field = FieldKey(key[:i])
		key = key[i:]
	default:
		return nil, false
	}

	op, ok := ParseOperator(strings.TrimPrefix(key, "~"))
	if !ok {
		return nil, false
	}
	c, err := NewClause(field, op, value)
	if err != nil {
		return nil, false
	}
	return c, true
}

// NewClause builds the clause for op from its URL value form.
func NewClause(field FieldKey, op Operator, value string) (Clause, error) {
	switch op {
	case OpIn, OpNotIn:
		values, blank := decodeList(value)
		return NewInClauseIncludeNull(field, values, blank, op == OpNotIn), nil
	case OpContainsOneOf, OpContainsNoneOf:
		values, blank := decodeList(value)
		c := NewContainsOneOfClause(field, values, op == OpContainsNoneOf)
		c.includeNull = c.includeNull || blank
		return c, nil
	}

	if !op.NeedsValue() {
		return NewCompareClause(field, op, nil)
	}
	if value == "" {
		switch op {
		case OpEqual, OpNotEqual, OpNotEqualOrNull:
			return NewCompareClause(field, op, nil)
		}
		return nil, errMissingValue(field, op)
	}
	return NewCompareClause(field, op, value)
}

// ParseURLFilters collects the filters of region from values. Parameters that do not
// parse are skipped, since unrelated parameters share the URL. With a non-nil
// columns map, filters on fields it cannot resolve are skipped too.
func ParseURLFilters(values url.Values, region string, columns ColumnMap) *SimpleFilter {
	f := NewSimpleFilter()
	f.AddURLFilters(values, region, columns)
	return f
}

func decodeList(value string) ([]any, bool) {
	if value == "" {
		return nil, false
	}
	blank := false
	var values []any
	for _, part := range strings.Split(value, listSeparator) {
		if part == "" {
			blank = true
			continue
		}
		values = append(values, part)
	}
	return values, blank
}

func encodeList(values []any, includeNull bool) string {
	parts := make([]string, 0, len(values)+1)
	for _, v := range values {
		parts = append(parts, displayValue(v))
	}
	s := strings.Join(parts, listSeparator)
	if includeNull {
		s += listSeparator
	}
	return s
}

func sortedKeys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
