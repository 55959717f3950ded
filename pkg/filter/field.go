package filter

import (
	"strings"

	srvErrors "github.com/kubev2v/relcore/pkg/errors"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// FieldKey names a column, possibly through lookups ("Dept/Name").
type FieldKey string

// RegionKey addresses a whole data region rather than a single column.
const RegionKey FieldKey = "*"

func NewFieldKey(parts ...string) FieldKey {
	return FieldKey(strings.Join(parts, "/"))
}

func (k FieldKey) Parts() []string {
	return strings.Split(string(k), "/")
}

// Name is the last part of the key.
func (k FieldKey) Name() string {
	parts := k.Parts()
	return parts[len(parts)-1]
}

func (k FieldKey) IsRegion() bool {
	return k == RegionKey
}

func (k FieldKey) String() string {
	return string(k)
}

// Column is the SQL expression a field resolves to, with the type its values are
// converted to before binding.
type Column struct {
	Expr string
	Type sqlf.ValueType
}

// ColumnMap resolves field keys to columns.
type ColumnMap map[FieldKey]Column

// Resolve looks k up, falling back to a case-insensitive match.
func (m ColumnMap) Resolve(k FieldKey) (Column, error) {
	if c, ok := m[k]; ok {
		return c, nil
	}
	for key, c := range m {
		if strings.EqualFold(string(key), string(k)) {
			return c, nil
		}
	}
	return Column{}, srvErrors.NewFieldNotFoundError(k.String())
}

// Has reports whether k resolves.
func (m ColumnMap) Has(k FieldKey) bool {
	_, err := m.Resolve(k)
	return err == nil
}

// FieldFormatter renders a field key for human readable descriptions.
type FieldFormatter func(FieldKey) string

func defaultFieldFormatter(k FieldKey) string {
	return strings.Join(k.Parts(), ".")
}

// quoteFieldKey renders k the way the dialect neutral where text expects it:
// every part double quoted and joined by dots.
func quoteFieldKey(k FieldKey) string {
	parts := k.Parts()
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
