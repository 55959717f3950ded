package dialect

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/relcore/pkg/sqlf"
)

// DuckDB targets the embedded DuckDB engine. It has no procedural language, so only
// single-statement programs compile against it.
type DuckDB struct {
	base
}

var _ Dialect = (*DuckDB)(nil)

func NewDuckDB() *DuckDB {
	d := &DuckDB{}
	d.base = base{self: d}
	return d
}

func (d *DuckDB) Name() string                            { return "duckdb" }
func (d *DuckDB) Family() Family                          { return FamilyPlain }
func (d *DuckDB) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }
func (d *DuckDB) BooleanType() string                     { return "BOOLEAN" }
func (d *DuckDB) DateTimeType() string                    { return "TIMESTAMP" }
func (d *DuckDB) CaseInsensitiveLike() string             { return "ILIKE" }

func (d *DuckDB) SQLTypeName(t sqlf.ValueType) string {
	switch t {
	case sqlf.TypeInteger:
		return "INTEGER"
	case sqlf.TypeBigInt:
		return "BIGINT"
	case sqlf.TypeFloat:
		return "DOUBLE"
	case sqlf.TypeDecimal:
		return "DECIMAL(18,6)"
	case sqlf.TypeBoolean:
		return "BOOLEAN"
	case sqlf.TypeTimestamp:
		return "TIMESTAMP"
	case sqlf.TypeBinary:
		return "BLOB"
	default:
		return "VARCHAR"
	}
}

func (d *DuckDB) Returning(column string) (string, bool) {
	return "RETURNING " + column, false
}
