package dialect

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/relcore/pkg/sqlf"
)

// Family selects how the statement compiler emits multi-statement programs.
type Family int

const (
	// FamilyPlain backends only run single statements. The compiler rejects anything
	// that needs procedural glue.
	FamilyPlain Family = iota
	// FamilyBranch backends keep session variables across the statements of a batch
	// and have IF/BEGIN/END branching (SQL Server).
	FamilyBranch
	// FamilyFunction backends have no batch variables; programs are wrapped into a
	// temporary function taking a composite row argument (PostgreSQL).
	FamilyFunction
)

func (f Family) String() string {
	switch f {
	case FamilyPlain:
		return "plain"
	case FamilyBranch:
		return "branch"
	case FamilyFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Dialect supplies the backend specific syntax used by the filter algebra, the scope
// resolver and the statement compiler.
type Dialect interface {
	Name() string
	Family() Family
	PlaceholderFormat() sq.PlaceholderFormat

	BooleanType() string
	BooleanTrue() string
	BooleanFalse() string
	DateTimeType() string
	SQLTypeName(t sqlf.ValueType) string
	Cast(expr string, t sqlf.ValueType) string
	QuoteString(s string) string
	QuoteIdentifier(s string) string
	Literal(v any) (string, error)
	NowLiteral() string
	CaseInsensitiveLike() string
	Concat(args ...string) string

	// AppendInClause appends "IN (...)" (including the IN keyword) for values.
	AppendInClause(f *sqlf.Fragment, values []any) *sqlf.Fragment
	InClauseThreshold() int

	// ParameterMarker is the text for one positional parameter of type t.
	ParameterMarker(t sqlf.ValueType) string
	// Returning is the clause re-selecting column from an INSERT or UPDATE. When
	// beforeValues is true it goes in front of VALUES (INSERT) or WHERE (UPDATE),
	// otherwise at the end of the statement.
	Returning(column string) (clause string, beforeValues bool)

	// Procedural support, unused for FamilyPlain.
	VariableName(n int) string
	InternalVariable(name string) string
	DeclareVariables(decls []VariableDecl) string
	AssignVariable(variable, expr string) string
	If(condition string) string
	EndIf() string
	RowNotFound() string
	CaptureInserted(column, variable string) (suffix string, followUp string)
	CaptureUpdated(column, variable string) (setItem string, suffix string)
	RaiseConflict(message string) string
	TempObjectPrefix() string

	// VersionExpression is the value written to a version column. ok is false when the
	// backend maintains the column itself.
	VersionExpression(column string, t sqlf.ValueType, insert bool) (expr string, ok bool)
}

// VariableDecl is one declared procedural variable.
type VariableDecl struct {
	Name string
	Type sqlf.ValueType
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgsql", "pgx":
		return NewPostgres(), nil
	case "sqlserver", "mssql":
		return NewSQLServer(), nil
	case "duckdb":
		return NewDuckDB(), nil
	}
	return nil, fmt.Errorf("unknown dialect %q", name)
}
