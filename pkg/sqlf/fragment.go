package sqlf

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Fragment is a piece of SQL text using "?" for positional parameters together with
// the ordered values bound to them.
//
// Fragment implements squirrel.Sqlizer so it can be handed to any squirrel builder:
//
//	sq.Select("*").From("t").Where(fragment)
type Fragment struct {
	sql    strings.Builder
	params []any
}

var _ sq.Sqlizer = (*Fragment)(nil)

// New returns a fragment holding sql and params.
func New(sql string, params ...any) *Fragment {
	f := &Fragment{}
	f.sql.WriteString(sql)
	f.params = append(f.params, params...)
	return f
}

// True and False are the unrestricted and unsatisfiable predicates.
func True() *Fragment  { return New("1=1") }
func False() *Fragment { return New("1=0") }

// Append adds raw text.
func (f *Fragment) Append(s ...string) *Fragment {
	for _, part := range s {
		f.sql.WriteString(part)
	}
	return f
}

// AppendParam adds a placeholder bound to v.
func (f *Fragment) AppendParam(v any) *Fragment {
	f.sql.WriteByte('?')
	f.params = append(f.params, v)
	return f
}

// AppendFragment adds the text and parameters of other.
func (f *Fragment) AppendFragment(other *Fragment) *Fragment {
	if other == nil {
		return f
	}
	f.sql.WriteString(other.sql.String())
	f.params = append(f.params, other.params...)
	return f
}

// AppendParams adds a comma separated list of placeholders.
func (f *Fragment) AppendParams(values []any) *Fragment {
	for i, v := range values {
		if i > 0 {
			f.sql.WriteString(", ")
		}
		f.AppendParam(v)
	}
	return f
}

// Prepend inserts text in front of the fragment. Parameters are unaffected, so s must
// not contain placeholders.
func (f *Fragment) Prepend(s string) *Fragment {
	rest := f.sql.String()
	f.sql.Reset()
	f.sql.WriteString(s)
	f.sql.WriteString(rest)
	return f
}

// Wrap surrounds the fragment with parentheses.
func (f *Fragment) Wrap() *Fragment {
	return f.Prepend("(").Append(")")
}

// AddAll appends parameters without touching the text. Used when the caller already
// wrote the placeholders.
func (f *Fragment) AddAll(params ...any) *Fragment {
	f.params = append(f.params, params...)
	return f
}

func (f *Fragment) SQL() string {
	return f.sql.String()
}

func (f *Fragment) Params() []any {
	return f.params
}

func (f *Fragment) IsEmpty() bool {
	return f == nil || f.sql.Len() == 0
}

// Clone returns an independent copy.
func (f *Fragment) Clone() *Fragment {
	c := New(f.sql.String())
	c.params = append(c.params, f.params...)
	return c
}

// ToSql implements squirrel.Sqlizer.
func (f *Fragment) ToSql() (string, []any, error) {
	if n := countPlaceholders(f.sql.String()); n != len(f.params) {
		return "", nil, fmt.Errorf("fragment has %d placeholders and %d parameters", n, len(f.params))
	}
	return f.sql.String(), f.params, nil
}

// Format rewrites the "?" placeholders with the given squirrel placeholder format.
func (f *Fragment) Format(pf sq.PlaceholderFormat) (string, error) {
	return FormatPlaceholders(f.sql.String(), pf)
}

// String renders the fragment with parameters inlined. Debug output only.
func (f *Fragment) String() string {
	var b strings.Builder
	i := 0
	s := f.sql.String()
	for j := 0; j < len(s); j++ {
		if s[j] == '?' {
			if j+1 < len(s) && s[j+1] == '?' {
				b.WriteByte('?')
				j++
				continue
			}
			if i < len(f.params) {
				b.WriteString(debugLiteral(f.params[i]))
				i++
				continue
			}
		}
		b.WriteByte(s[j])
	}
	return b.String()
}

// FormatPlaceholders rewrites "?" with pf. Literal question marks are written as "??"
// by EscapeLiteral and come out as a single "?".
func FormatPlaceholders(sql string, pf sq.PlaceholderFormat) (string, error) {
	if pf == nil || pf == sq.Question {
		return strings.ReplaceAll(sql, "??", "?"), nil
	}
	return pf.ReplacePlaceholders(sql)
}

// EscapeLiteral protects question marks in text that is embedded verbatim.
func EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "?", "??")
}

func countPlaceholders(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '?' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '?' {
			i++
			continue
		}
		n++
	}
	return n
}

func debugLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}
