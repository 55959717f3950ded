package schema

import (
	"strings"

	"github.com/kubev2v/relcore/pkg/filter"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// Shape tells how a table stores its rows.
type Shape string

const (
	// ShapePlain tables keep every value in their own columns.
	ShapePlain Shape = "plain"
	// ShapeEAVExtended tables keep extra properties as rows of exp.ObjectProperty,
	// attached to the row through its object URI.
	ShapeEAVExtended Shape = "eav"
)

// DefaultObjectURIColumn names the column joining a row to its exp.Object entry.
const DefaultObjectURIColumn = "objecturi"

// Builtin audit columns, filled by the statement compiler when present.
const (
	ColumnContainer  = "Container"
	ColumnOwner      = "Owner"
	ColumnCreated    = "Created"
	ColumnCreatedBy  = "CreatedBy"
	ColumnModified   = "Modified"
	ColumnModifiedBy = "ModifiedBy"
)

type Table struct {
	Schema          string            `yaml:"schema"`
	Name            string            `yaml:"name" validate:"required"`
	Shape           Shape             `yaml:"shape" default:"plain" validate:"oneof=plain eav"`
	Columns         []*Column         `yaml:"columns" validate:"required,min=1,dive,required"`
	PrimaryKey      []string          `yaml:"primaryKey"`
	Extension       *Extension        `yaml:"extension"`
	ObjectURIColumn string            `yaml:"objectUriColumn" default:"objecturi"`
	ObjectIDColumn  string            `yaml:"objectIdColumn"`
	Remap           map[string]string `yaml:"remap"`
	SkipProperties  []string          `yaml:"skipProperties"`
}

// QualifiedName is "schema.name", or the bare name for tables outside a schema.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

func (t *Table) String() string { return t.QualifiedName() }

// Column looks a column up by name ignoring case.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// KeyColumns returns the primary key columns in declaration order.
func (t *Table) KeyColumns() []*Column {
	out := make([]*Column, 0, len(t.PrimaryKey))
	for _, name := range t.PrimaryKey {
		if c, ok := t.Column(name); ok {
			out = append(out, c)
		}
	}
	return out
}

// VersionColumn returns the optimistic concurrency column, if any.
func (t *Table) VersionColumn() *Column {
	for _, c := range t.Columns {
		if c.Version {
			return c
		}
	}
	return nil
}

func (t *Table) AutoIncrementColumn() *Column {
	for _, c := range t.Columns {
		if c.AutoIncrement {
			return c
		}
	}
	return nil
}

// IsExtended reports whether the table carries a property extension.
func (t *Table) IsExtended() bool {
	return t.Shape == ShapeEAVExtended
}

// Properties returns the extension properties, nil for plain tables.
func (t *Table) Properties() []Property {
	if t.Shape != ShapeEAVExtended || t.Extension == nil {
		return nil
	}
	return t.Extension.Properties
}

// ObjectURI returns the column holding the object URI, nil when the table has none.
func (t *Table) ObjectURI() *Column {
	name := t.ObjectURIColumn
	if name == "" {
		name = DefaultObjectURIColumn
	}
	c, _ := t.Column(name)
	return c
}

// RemapName maps an input field name to the column it should be written to.
func (t *Table) RemapName(name string) string {
	for from, to := range t.Remap {
		if strings.EqualFold(from, name) {
			return to
		}
	}
	return name
}

// ColumnMap exposes the table to the filter package, keyed by column name.
func (t *Table) ColumnMap(alias string) filter.ColumnMap {
	m := make(filter.ColumnMap, len(t.Columns))
	for _, c := range t.Columns {
		expr := c.Expr()
		if alias != "" {
			expr = alias + "." + expr
		}
		m[filter.FieldKey(c.Name)] = filter.Column{Expr: expr, Type: c.Type}
	}
	return m
}

type Column struct {
	Name string `yaml:"name" validate:"required"`
	// SelectName is the physical column name when it differs from Name.
	SelectName    string         `yaml:"selectName"`
	Type          sqlf.ValueType `yaml:"type"`
	Required      bool           `yaml:"required"`
	AutoIncrement bool           `yaml:"autoIncrement"`
	Version       bool           `yaml:"version"`
	ReadOnly      bool           `yaml:"readOnly"`
	MaxLength     int            `yaml:"maxLength" validate:"gte=0"`
	// Validate holds go-playground/validator rules applied to every written value.
	Validate string `yaml:"validate"`

	validators []Validator
}

// Expr is the name to use in SQL text.
func (c *Column) Expr() string {
	if c.SelectName != "" {
		return c.SelectName
	}
	return c.Name
}

type Extension struct {
	Domain     string     `yaml:"domain" validate:"required"`
	Properties []Property `yaml:"properties" validate:"dive"`
}

// StorageType is the exp.ObjectProperty type tag.
type StorageType string

const (
	StorageString   StorageType = "s"
	StorageDateTime StorageType = "d"
	StorageFloat    StorageType = "f"
)

// ValueColumn is the exp.ObjectProperty column holding values of this storage type.
func (s StorageType) ValueColumn() string {
	switch s {
	case StorageDateTime:
		return "dateTimeValue"
	case StorageFloat:
		return "floatValue"
	default:
		return "stringValue"
	}
}

// ValueType is the type values are bound with.
func (s StorageType) ValueType() sqlf.ValueType {
	switch s {
	case StorageDateTime:
		return sqlf.TypeTimestamp
	case StorageFloat:
		return sqlf.TypeFloat
	default:
		return sqlf.TypeString
	}
}

type Property struct {
	ID   int64          `yaml:"id" validate:"required"`
	Name string         `yaml:"name" validate:"required"`
	URI  string         `yaml:"uri"`
	Type sqlf.ValueType `yaml:"type"`
}

// StorageType maps the property type to its storage bucket. ok is false for types
// with no property storage.
func (p Property) StorageType() (StorageType, bool) {
	switch p.Type {
	case sqlf.TypeString, sqlf.TypeGUID:
		return StorageString, true
	case sqlf.TypeTimestamp:
		return StorageDateTime, true
	case sqlf.TypeInteger, sqlf.TypeBigInt, sqlf.TypeFloat, sqlf.TypeDecimal, sqlf.TypeBoolean:
		return StorageFloat, true
	}
	return "", false
}

// MVIndicatorSuffix is appended to a property name to address its missing value
// indicator.
const MVIndicatorSuffix = "_MVIndicator"
