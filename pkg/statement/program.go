package statement

import (
	"strings"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// part is either literal SQL text or a reference to a parameter value.
type part struct {
	text  string
	param *Parameter
}

// fragment is SQL whose value references are resolved only when a strategy renders
// it, so the same program can use placeholders, variables or row fields.
type fragment []part

func text(s ...string) fragment {
	return fragment{}.add(s...)
}

func value(p *Parameter) fragment {
	return fragment{{param: p}}
}

func (f fragment) add(s ...string) fragment {
	for _, t := range s {
		f = append(f, part{text: t})
	}
	return f
}

func (f fragment) value(p *Parameter) fragment {
	return append(f, part{param: p})
}

func (f fragment) join(o fragment) fragment {
	return append(f, o...)
}

func joinFragments(fs []fragment, sep string) fragment {
	var out fragment
	for i, f := range fs {
		if i > 0 {
			out = out.add(sep)
		}
		out = out.join(f)
	}
	return out
}

// step is one top level statement of a program. A step with a condition runs its
// body only when the condition holds.
type step struct {
	cond fragment
	body []fragment
}

type resultKind int

const (
	resultRowID resultKind = iota
	resultObjectID
	resultObjectURI
)

type resultColumn struct {
	kind     resultKind
	name     string
	variable string
	typ      sqlf.ValueType
}

// program is the dialect neutral form of a compiled statement.
type program struct {
	d     dialect.Dialect
	table *schema.Table
	op    Operation

	params    *registry
	steps     []step
	internals []dialect.VariableDecl
	results   []resultColumn

	// single statement programs only
	returning bool

	keys     []*Parameter
	probe    fragment
	required []*Parameter
	uri      *Parameter
}

// single reports whether the program is one plain statement.
func (p *program) single() bool {
	return len(p.steps) == 1 && p.steps[0].cond == nil && len(p.steps[0].body) == 1
}

func (p *program) resultIndex(kind resultKind) int {
	for i, r := range p.results {
		if r.kind == kind {
			return i
		}
	}
	return -1
}

// binder writes the SQL for one parameter reference.
type binder interface {
	bind(b *strings.Builder, p *Parameter) error
}

type positionalBinder struct {
	d     dialect.Dialect
	order []int
}

func (pb *positionalBinder) bind(b *strings.Builder, p *Parameter) error {
	if p.Mode == Constant {
		return writeLiteral(b, pb.d, p)
	}
	b.WriteString(pb.d.ParameterMarker(p.Type))
	pb.order = append(pb.order, p.index)
	return nil
}

type variableBinder struct {
	d      dialect.Dialect
	prefix string
}

func (vb variableBinder) bind(b *strings.Builder, p *Parameter) error {
	if p.Mode == Constant {
		return writeLiteral(b, vb.d, p)
	}
	b.WriteString(vb.prefix)
	b.WriteString(p.Variable)
	return nil
}

func writeLiteral(b *strings.Builder, d dialect.Dialect, p *Parameter) error {
	v, err := p.Type.Convert(p.constant)
	if err != nil {
		return err
	}
	lit, err := d.Literal(v)
	if err != nil {
		return err
	}
	b.WriteString(lit)
	return nil
}

func render(f fragment, bd binder) (string, error) {
	var b strings.Builder
	for _, pt := range f {
		if pt.param == nil {
			b.WriteString(pt.text)
			continue
		}
		if err := bd.bind(&b, pt.param); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func renderStep(d dialect.Dialect, s step, bd binder) (string, error) {
	bodies := make([]string, 0, len(s.body))
	for _, f := range s.body {
		r, err := render(f, bd)
		if err != nil {
			return "", err
		}
		bodies = append(bodies, r)
	}
	if s.cond == nil {
		return strings.Join(bodies, ";\n"), nil
	}
	cond, err := render(s.cond, bd)
	if err != nil {
		return "", err
	}
	return d.If(cond) + strings.Join(bodies, ";\n") + ";" + d.EndIf(), nil
}
