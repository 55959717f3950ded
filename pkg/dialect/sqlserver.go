package dialect

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/relcore/pkg/sqlf"
)

// SQLServer targets Microsoft SQL Server. Multi-statement programs run as one T-SQL
// batch using DECLAREd variables and IF ... BEGIN ... END blocks.
type SQLServer struct {
	base
}

var _ Dialect = (*SQLServer)(nil)

func NewSQLServer() *SQLServer {
	s := &SQLServer{}
	s.base = base{self: s}
	return s
}

func (s *SQLServer) Name() string                            { return "sqlserver" }
func (s *SQLServer) Family() Family                          { return FamilyBranch }
func (s *SQLServer) PlaceholderFormat() sq.PlaceholderFormat { return sq.AtP }
func (s *SQLServer) BooleanType() string                     { return "BIT" }
func (s *SQLServer) BooleanTrue() string                     { return "1" }
func (s *SQLServer) BooleanFalse() string                    { return "0" }
func (s *SQLServer) DateTimeType() string                    { return "DATETIME" }
func (s *SQLServer) NowLiteral() string                      { return "GETDATE()" }

func (s *SQLServer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (s *SQLServer) QuoteString(str string) string {
	return "N'" + strings.ReplaceAll(str, "'", "''") + "'"
}

func (s *SQLServer) Concat(args ...string) string {
	return strings.Join(args, " + ")
}

func (s *SQLServer) SQLTypeName(t sqlf.ValueType) string {
	switch t {
	case sqlf.TypeInteger:
		return "INT"
	case sqlf.TypeBigInt:
		return "BIGINT"
	case sqlf.TypeFloat:
		return "FLOAT"
	case sqlf.TypeDecimal:
		return "DECIMAL(38,10)"
	case sqlf.TypeBoolean:
		return "BIT"
	case sqlf.TypeTimestamp:
		return "DATETIME"
	case sqlf.TypeGUID:
		return "NVARCHAR(36)"
	case sqlf.TypeBinary:
		return "VARBINARY(MAX)"
	default:
		return "NVARCHAR(MAX)"
	}
}

// AppendInClause embeds large sets as a derived VALUES table of literals, which keeps
// the statement below the 2100 parameter limit.
func (s *SQLServer) AppendInClause(f *sqlf.Fragment, values []any) *sqlf.Fragment {
	if len(values) < s.InClauseThreshold() {
		return s.base.AppendInClause(f, values)
	}
	lits, ok := literalList(s, values)
	if !ok {
		return s.base.AppendInClause(f, values)
	}
	f.Append("IN (SELECT x FROM (VALUES (")
	f.Append(strings.Join(lits, "), ("))
	return f.Append(")) AS _inlist(x))")
}

func (s *SQLServer) Returning(column string) (string, bool) {
	return "OUTPUT INSERTED." + column, true
}

func (s *SQLServer) VariableName(n int) string {
	return fmt.Sprintf("@_v%d", n)
}

func (s *SQLServer) InternalVariable(name string) string {
	return "@_" + name
}

func (s *SQLServer) DeclareVariables(decls []VariableDecl) string {
	if len(decls) == 0 {
		return ""
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Name+" "+s.SQLTypeName(d.Type))
	}
	return "DECLARE " + strings.Join(parts, ", ")
}

func (s *SQLServer) AssignVariable(variable, expr string) string {
	return fmt.Sprintf("SET %s = %s", variable, expr)
}

func (s *SQLServer) If(condition string) string { return "IF " + condition + "\nBEGIN\n" }
func (s *SQLServer) EndIf() string              { return "\nEND" }
func (s *SQLServer) RowNotFound() string        { return "@@ROWCOUNT = 0" }

func (s *SQLServer) CaptureInserted(column, variable string) (string, string) {
	return "", fmt.Sprintf("SET %s = SCOPE_IDENTITY()", variable)
}

func (s *SQLServer) CaptureUpdated(column, variable string) (string, string) {
	return fmt.Sprintf("%s = %s", variable, column), ""
}

func (s *SQLServer) RaiseConflict(message string) string {
	return fmt.Sprintf("THROW 50409, %s, 1", s.QuoteString(message))
}

func (s *SQLServer) TempObjectPrefix() string { return "#" }

// VersionExpression leaves ROWVERSION columns to the server.
func (s *SQLServer) VersionExpression(column string, t sqlf.ValueType, insert bool) (string, bool) {
	if t == sqlf.TypeBinary {
		return "", false
	}
	return s.base.VersionExpression(column, t, insert)
}
