package dialect

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/relcore/pkg/sqlf"
)

// Postgres targets PostgreSQL. Multi-statement programs are wrapped in a temporary
// plpgsql function.
type Postgres struct {
	base
	tempSchema string
}

var _ Dialect = (*Postgres)(nil)

func NewPostgres() *Postgres {
	p := &Postgres{tempSchema: "temp"}
	p.base = base{self: p}
	return p
}

// WithTempSchema sets the schema holding the temporary functions and row types.
func (p *Postgres) WithTempSchema(schema string) *Postgres {
	p.tempSchema = schema
	return p
}

func (p *Postgres) Name() string                            { return "postgres" }
func (p *Postgres) Family() Family                          { return FamilyFunction }
func (p *Postgres) PlaceholderFormat() sq.PlaceholderFormat { return sq.Dollar }
func (p *Postgres) BooleanType() string                     { return "BOOLEAN" }
func (p *Postgres) DateTimeType() string                    { return "TIMESTAMP" }
func (p *Postgres) CaseInsensitiveLike() string             { return "ILIKE" }

func (p *Postgres) SQLTypeName(t sqlf.ValueType) string {
	switch t {
	case sqlf.TypeInteger:
		return "INTEGER"
	case sqlf.TypeBigInt:
		return "BIGINT"
	case sqlf.TypeFloat:
		return "DOUBLE PRECISION"
	case sqlf.TypeDecimal:
		return "NUMERIC"
	case sqlf.TypeBoolean:
		return "BOOLEAN"
	case sqlf.TypeTimestamp:
		return "TIMESTAMP"
	case sqlf.TypeGUID:
		return "VARCHAR(36)"
	case sqlf.TypeBinary:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

// ParameterMarker casts every parameter. PostgreSQL cannot infer the type of a bare
// parameter in a select list (INSERT ... SELECT $1 WHERE NOT EXISTS ...).
func (p *Postgres) ParameterMarker(t sqlf.ValueType) string {
	return p.Cast("?", t)
}

// AppendInClause switches to "= ANY(?)" with a single array parameter for large sets.
func (p *Postgres) AppendInClause(f *sqlf.Fragment, values []any) *sqlf.Fragment {
	if len(values) < p.InClauseThreshold() {
		return p.base.AppendInClause(f, values)
	}
	if strs, ok := stringSlice(values); ok {
		return f.Append("= ANY(").AppendParam(strs).Append(")")
	}
	if ints, ok := int64Slice(values); ok {
		return f.Append("= ANY(").AppendParam(ints).Append(")")
	}
	return p.base.AppendInClause(f, values)
}

func (p *Postgres) Returning(column string) (string, bool) {
	return "RETURNING " + column, false
}

func (p *Postgres) VariableName(n int) string {
	return fmt.Sprintf("p%d", n)
}

func (p *Postgres) InternalVariable(name string) string {
	return "_" + name
}

func (p *Postgres) DeclareVariables(decls []VariableDecl) string {
	if len(decls) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("DECLARE\n")
	for _, d := range decls {
		fmt.Fprintf(&b, "\t%s %s;\n", d.Name, p.SQLTypeName(d.Type))
	}
	return b.String()
}

func (p *Postgres) AssignVariable(variable, expr string) string {
	return fmt.Sprintf("%s := %s", variable, expr)
}

func (p *Postgres) If(condition string) string { return "IF " + condition + " THEN\n" }
func (p *Postgres) EndIf() string              { return "\nEND IF" }
func (p *Postgres) RowNotFound() string        { return "NOT FOUND" }

func (p *Postgres) CaptureInserted(column, variable string) (string, string) {
	return fmt.Sprintf(" RETURNING %s INTO %s", column, variable), ""
}

func (p *Postgres) CaptureUpdated(column, variable string) (string, string) {
	return "", fmt.Sprintf(" RETURNING %s INTO %s", column, variable)
}

func (p *Postgres) RaiseConflict(message string) string {
	return fmt.Sprintf("RAISE EXCEPTION %s USING ERRCODE = '40001'", p.QuoteString(message))
}

func (p *Postgres) TempObjectPrefix() string {
	if p.tempSchema == "" {
		return ""
	}
	return p.tempSchema + "."
}

func stringSlice(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func int64Slice(values []any) ([]int64, bool) {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		switch x := v.(type) {
		case int:
			out = append(out, int64(x))
		case int32:
			out = append(out, int64(x))
		case int64:
			out = append(out, x)
		default:
			return nil, false
		}
	}
	return out, true
}
