package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// Clause is one node of a predicate tree.
//
// A clause maps to the same SQL for the same column map every time, and its
// identity (CacheKey, Equal) depends on its field keys, flags and parameter values
// only, never on generated SQL.
type Clause interface {
	// FieldKeys lists the fields the clause reads.
	FieldKeys() []FieldKey
	Params() []any
	IncludeNull() bool
	Negated() bool
	// DisplayAlways forces the clause into filter descriptions even when its kind is
	// normally hidden.
	DisplayAlways() bool

	// ToSQLFragment renders the clause for d, binding every value as a parameter.
	ToSQLFragment(columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error)
	// WhereText renders a dialect neutral where clause with inlined literals.
	WhereText(columns ColumnMap) (string, error)
	// AppendFilterText writes a human readable description.
	AppendFilterText(b *strings.Builder, format FieldFormatter)
	// ToURLParam encodes the clause as a URL parameter. ok is false when the clause
	// has no URL form.
	ToURLParam(prefix string) (key, value string, ok bool)
	// MeetsCriteria evaluates a single-field clause against value.
	MeetsCriteria(value any) (bool, error)
	CacheKey() string
}

// Equal reports whether a and b are the same predicate.
func Equal(a, b Clause) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.CacheKey() == b.CacheKey()
}

// FilterText describes c. A nil format prints field keys with dots.
func FilterText(c Clause, format FieldFormatter) string {
	var b strings.Builder
	if format == nil {
		format = defaultFieldFormatter
	}
	c.AppendFilterText(&b, format)
	return b.String()
}

type flags struct {
	displayAlways bool
}

func (f *flags) DisplayAlways() bool { return f.displayAlways }

// SetDisplayAlways sets the DisplayAlways flag.
func (f *flags) SetDisplayAlways(v bool) { f.displayAlways = v }

// sqlWriter receives the SQL of a leaf clause. The fragment writer binds values and
// the text writer inlines them, so one rendering routine serves both outputs.
type sqlWriter interface {
	write(s ...string)
	param(v any)
	inList(values []any)
	castToText(expr string) string
}

type fragmentWriter struct {
	f *sqlf.Fragment
	d dialect.Dialect
}

func newFragmentWriter(d dialect.Dialect) *fragmentWriter {
	return &fragmentWriter{f: sqlf.New(""), d: d}
}

func (w *fragmentWriter) write(s ...string) { w.f.Append(s...) }
func (w *fragmentWriter) param(v any)       { w.f.AppendParam(v) }
func (w *fragmentWriter) inList(values []any) {
	w.d.AppendInClause(w.f, values)
}
func (w *fragmentWriter) castToText(expr string) string {
	return w.d.Cast(expr, sqlf.TypeString)
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) write(s ...string) {
	for _, part := range s {
		w.b.WriteString(part)
	}
}

func (w *textWriter) param(v any) { w.b.WriteString(neutralLiteral(v)) }

func (w *textWriter) inList(values []any) {
	w.b.WriteString("IN (")
	for i, v := range values {
		if i > 0 {
			w.b.WriteString(", ")
		}
		w.b.WriteString(neutralLiteral(v))
	}
	w.b.WriteString(")")
}

func (w *textWriter) castToText(expr string) string {
	return "CAST(" + expr + " AS VARCHAR)"
}

// leaf is implemented by the single-field clauses.
type leaf interface {
	field() FieldKey
	render(w sqlWriter, expr string, t sqlf.ValueType) error
}

func leafFragment(c leaf, columns ColumnMap, d dialect.Dialect) (*sqlf.Fragment, error) {
	col, err := columns.Resolve(c.field())
	if err != nil {
		return nil, err
	}
	w := newFragmentWriter(d)
	if err := c.render(w, col.Expr, col.Type); err != nil {
		return nil, err
	}
	return w.f, nil
}

func leafWhereText(c leaf, columns ColumnMap) (string, error) {
	t := sqlf.TypeString
	if col, err := columns.Resolve(c.field()); err == nil {
		t = col.Type
	}
	w := &textWriter{}
	if err := c.render(w, quoteFieldKey(c.field()), t); err != nil {
		return "", err
	}
	return w.b.String(), nil
}

func neutralLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return "CAST('" + x.Format("2006-01-02 15:04:05") + "' AS TIMESTAMP)"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return "'" + strings.ReplaceAll(string(x), "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// displayValue renders a value for descriptions and URL parameters.
func displayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func convertAll(values []any, t sqlf.ValueType) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		cv, err := t.Convert(v)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, nil
}

// cacheKey builds the identity string of a clause. Set valued clauses pass sorted
// so that value order does not matter.
func cacheKey(kind string, keys []FieldKey, negated, includeNull bool, params []any, sorted bool) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte('(')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(string(k)))
	}
	b.WriteByte('|')
	if negated {
		b.WriteString("not")
	}
	b.WriteByte('|')
	if includeNull {
		b.WriteString("null")
	}
	b.WriteByte('|')
	vals := make([]string, 0, len(params))
	for _, p := range params {
		vals = append(vals, strconv.Quote(displayValue(p)))
	}
	if sorted {
		sort.Strings(vals)
	}
	b.WriteString(strings.Join(vals, ","))
	b.WriteByte(')')
	return b.String()
}

// extractBlanks removes nil and empty string entries. blank reports whether any was
// present.
func extractBlanks(values []any) (kept []any, blank bool) {
	kept = make([]any, 0, len(values))
	for _, v := range values {
		if isBlank(v) {
			blank = true
			continue
		}
		kept = append(kept, v)
	}
	return kept, blank
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func urlKey(prefix string, field FieldKey, op Operator) string {
	if field.IsRegion() {
		return prefix + "~" + op.URLKey()
	}
	return prefix + "." + string(field) + "~" + op.URLKey()
}

// escapeLike protects LIKE wildcards using "!" as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
