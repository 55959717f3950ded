package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	srvErrors "github.com/kubev2v/relcore/pkg/errors"
)

// Catalog holds the tables of one metadata file.
type Catalog struct {
	tables []*Table
}

type catalogFile struct {
	Tables []*Table `yaml:"tables"`
}

// LoadTables decodes a YAML document of the form
//
//	tables:
//	  - schema: lists
//	    name: samples
//	    primaryKey: [rowid]
//	    columns:
//	      - {name: rowid, type: bigint, autoIncrement: true}
//	      - {name: name, type: string, required: true, maxLength: 200}
func LoadTables(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	c := &Catalog{}
	for _, t := range f.Tables {
		if err := c.Add(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func LoadTablesFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadTables(f)
}

// Add initialises t and registers it.
func (c *Catalog) Add(t *Table) error {
	if err := t.Init(); err != nil {
		return err
	}
	if _, err := c.Get(t.QualifiedName()); err == nil {
		return srvErrors.NewConfigurationError(t.QualifiedName(), "table defined twice")
	}
	c.tables = append(c.tables, t)
	return nil
}

// Get finds a table by qualified or bare name, ignoring case.
func (c *Catalog) Get(name string) (*Table, error) {
	for _, t := range c.tables {
		if strings.EqualFold(t.QualifiedName(), name) {
			return t, nil
		}
	}
	var found *Table
	for _, t := range c.tables {
		if strings.EqualFold(t.Name, name) {
			if found != nil {
				return nil, fmt.Errorf("table name %s is ambiguous", name)
			}
			found = t
		}
	}
	if found == nil {
		return nil, srvErrors.NewTableNotFoundError(name)
	}
	return found, nil
}

func (c *Catalog) Tables() []*Table {
	out := make([]*Table, len(c.tables))
	copy(out, c.tables)
	return out
}
