package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kubev2v/relcore/pkg/sqlf"
)

const defaultInClauseThreshold = 1000

// base holds the ANSI behaviour shared by every dialect.
type base struct {
	self Dialect
}

func (b base) BooleanTrue() string { return "TRUE" }
func (b base) BooleanFalse() string { return "FALSE" }

func (b base) Cast(expr string, t sqlf.ValueType) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, b.self.SQLTypeName(t))
}

func (b base) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (b base) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (b base) NowLiteral() string { return "CURRENT_TIMESTAMP" }

func (b base) CaseInsensitiveLike() string { return "LIKE" }

func (b base) Concat(args ...string) string {
	return strings.Join(args, " || ")
}

func (b base) InClauseThreshold() int { return defaultInClauseThreshold }

func (b base) ParameterMarker(sqlf.ValueType) string { return "?" }

func (b base) Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case sqlf.NowValue:
		return b.self.NowLiteral(), nil
	case sqlf.Constant:
		return b.Literal(x.Value)
	case string:
		return sqlf.EscapeLiteral(b.self.QuoteString(x)), nil
	case bool:
		if x {
			return b.self.BooleanTrue(), nil
		}
		return b.self.BooleanFalse(), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case time.Time:
		return fmt.Sprintf("CAST('%s' AS %s)", x.Format("2006-01-02 15:04:05.000"), b.self.DateTimeType()), nil
	}
	return "", fmt.Errorf("no literal representation for %T", v)
}

// AppendInClause writes one parameter marker per value.
func (b base) AppendInClause(f *sqlf.Fragment, values []any) *sqlf.Fragment {
	f.Append("IN (")
	f.AppendParams(values)
	return f.Append(")")
}

// Plain dialects have no procedural glue. The compiler checks Family before
// calling any of these.
func (b base) VariableName(n int) string { return "" }
func (b base) InternalVariable(name string) string { return "" }
func (b base) DeclareVariables([]VariableDecl) string { return "" }
func (b base) AssignVariable(variable, expr string) string { return "" }
func (b base) If(string) string { return "" }
func (b base) EndIf() string { return "" }
func (b base) RowNotFound() string { return "" }
func (b base) CaptureInserted(string, string) (string, string) { return "", "" }
func (b base) CaptureUpdated(string, string) (string, string) { return "", "" }
func (b base) RaiseConflict(string) string { return "" }
func (b base) TempObjectPrefix() string { return "" }

func (b base) VersionExpression(column string, t sqlf.ValueType, insert bool) (string, bool) {
	switch t {
	case sqlf.TypeTimestamp:
		return b.self.NowLiteral(), true
	case sqlf.TypeInteger, sqlf.TypeBigInt:
		if insert {
			return "1", true
		}
		return fmt.Sprintf("COALESCE(%s, 0) + 1", column), true
	}
	return "", false
}

// literalList renders values as literals when every one of them has a safe literal
// form (strings and integers). ok is false otherwise.
func literalList(d Dialect, values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		switch v.(type) {
		case string, int, int32, int64:
		default:
			return nil, false
		}
		s, err := d.Literal(v)
		if err != nil {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
