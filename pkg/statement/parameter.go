package statement

import (
	"strings"

	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// Mode is how a parameter reaches the SQL text.
type Mode int

const (
	// Positional parameters are bound to a placeholder at every use.
	Positional Mode = iota
	// Variable parameters are bound once into a program variable.
	Variable
	// Constant parameters are embedded as literals.
	Constant
)

func (m Mode) String() string {
	switch m {
	case Variable:
		return "variable"
	case Constant:
		return "constant"
	default:
		return "positional"
	}
}

type paramKind int

const (
	kindColumn paramKind = iota
	kindProperty
	kindMVIndicator
	kindContainer
	kindObjectURI
)

// Parameter is one logical value of a compiled statement.
type Parameter struct {
	Name string
	// URI identifies property parameters.
	URI  string
	Type sqlf.ValueType
	Mode Mode
	// Variable is the program variable holding the value in Variable mode.
	Variable string

	kind     paramKind
	column   *schema.Column
	constant any
	index    int
}

// registry hands out one Parameter per logical name.
type registry struct {
	params []*Parameter
	byName map[string]*Parameter
}

func newRegistry() *registry {
	return &registry{byName: make(map[string]*Parameter)}
}

func (r *registry) get(name string) (*Parameter, bool) {
	p, ok := r.byName[strings.ToLower(name)]
	return p, ok
}

func (r *registry) add(p *Parameter) *Parameter {
	key := strings.ToLower(p.Name)
	if existing, ok := r.byName[key]; ok {
		return existing
	}
	p.index = len(r.params)
	r.params = append(r.params, p)
	r.byName[key] = p
	return p
}

func (r *registry) column(c *schema.Column) *Parameter {
	return r.add(&Parameter{Name: c.Name, Type: c.Type, kind: kindColumn, column: c})
}

func (r *registry) constant(name string, t sqlf.ValueType, v any) *Parameter {
	return r.add(&Parameter{Name: name, Type: t, Mode: Constant, kind: kindColumn, constant: v})
}
