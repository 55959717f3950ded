package statement

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kubev2v/relcore/pkg/dialect"
	srvErrors "github.com/kubev2v/relcore/pkg/errors"
)

// assembly is a program rendered for one backend. Text uses "?" placeholders.
type assembly struct {
	strategy    string
	setup       []string
	teardown    []string
	sql         string
	order       []int
	returnsRows bool
}

// strategy renders a program into executable SQL.
type strategy interface {
	name() string
	assemble(p *program) (*assembly, error)
}

func strategyFor(p *program) (strategy, error) {
	if p.single() {
		return singleStrategy{}, nil
	}
	switch p.d.Family() {
	case dialect.FamilyBranch:
		return branchStrategy{}, nil
	case dialect.FamilyFunction:
		return functionStrategy{}, nil
	}
	return nil, srvErrors.NewConfigurationError(p.table.QualifiedName(), "dialect %s cannot run multi-statement programs", p.d.Name())
}

// singleStrategy binds every parameter positionally into one statement.
type singleStrategy struct{}

func (singleStrategy) name() string { return "single" }

func (s singleStrategy) assemble(p *program) (*assembly, error) {
	bd := &positionalBinder{d: p.d}
	sql, err := renderStep(p.d, p.steps[0], bd)
	if err != nil {
		return nil, err
	}
	return &assembly{strategy: s.name(), sql: sql, order: bd.order, returnsRows: p.returning}, nil
}

// variables switches every bound parameter to Variable mode, numbering them in
// registration order.
func variables(p *program) []*Parameter {
	var out []*Parameter
	for _, prm := range p.params.params {
		if prm.Mode == Constant {
			continue
		}
		prm.Mode = Variable
		prm.Variable = p.d.VariableName(len(out) + 1)
		out = append(out, prm)
	}
	return out
}

// branchStrategy runs the program as one batch: parameters are copied once into
// declared variables and the statements follow.
type branchStrategy struct{}

func (branchStrategy) name() string { return "branch" }

func (s branchStrategy) assemble(p *program) (*assembly, error) {
	vars := variables(p)
	decls := make([]dialect.VariableDecl, 0, len(vars)+len(p.internals))
	for _, v := range vars {
		decls = append(decls, dialect.VariableDecl{Name: v.Variable, Type: v.Type})
	}
	decls = append(decls, p.internals...)

	var b strings.Builder
	asm := &assembly{strategy: s.name()}
	if len(decls) > 0 {
		b.WriteString(p.d.DeclareVariables(decls))
		b.WriteString(";\n")
	}
	if len(vars) > 0 {
		assigns := make([]string, 0, len(vars))
		for _, v := range vars {
			assigns = append(assigns, v.Variable+" = "+p.d.ParameterMarker(v.Type))
			asm.order = append(asm.order, v.index)
		}
		b.WriteString("SELECT ")
		b.WriteString(strings.Join(assigns, ", "))
		b.WriteString(";\n")
	}

	bd := variableBinder{d: p.d}
	for _, st := range p.steps {
		sql, err := renderStep(p.d, st, bd)
		if err != nil {
			return nil, err
		}
		b.WriteString(sql)
		b.WriteString(";\n")
	}

	if len(p.results) > 0 {
		items := make([]string, 0, len(p.results))
		for _, r := range p.results {
			items = append(items, resultExpr(p, r, bd)+" AS "+r.name)
		}
		b.WriteString("SELECT ")
		b.WriteString(strings.Join(items, ", "))
		asm.returnsRows = true
	}
	asm.sql = strings.TrimSuffix(b.String(), "\n")
	return asm, nil
}

// resultExpr is the program value reported for r. The object URI of rows keyed by
// their URI never lands in a variable of its own.
func resultExpr(p *program, r resultColumn, bd binder) string {
	if r.variable != "" {
		return r.variable
	}
	var b strings.Builder
	if err := bd.bind(&b, p.uri); err != nil {
		return "NULL"
	}
	return b.String()
}

// functionStrategy wraps the program into a temporary function taking every parameter
// as one field of a composite row type. The function and the type are created when the
// statement is compiled and dropped when it is closed.
type functionStrategy struct{}

func (functionStrategy) name() string { return "function" }

func (s functionStrategy) assemble(p *program) (*assembly, error) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	prefix := p.d.TempObjectPrefix()
	fn := prefix + "fn_" + suffix
	rowType := prefix + "rt_" + suffix

	vars := variables(p)
	asm := &assembly{strategy: s.name()}

	fields := make([]string, 0, len(vars))
	markers := make([]string, 0, len(vars))
	for _, v := range vars {
		fields = append(fields, v.Variable+" "+p.d.SQLTypeName(v.Type))
		markers = append(markers, p.d.ParameterMarker(v.Type))
		asm.order = append(asm.order, v.index)
	}
	if len(fields) == 0 {
		// composite types need at least one attribute
		fields = append(fields, "unused INTEGER")
		markers = append(markers, "NULL")
	}
	asm.setup = append(asm.setup, fmt.Sprintf("CREATE TYPE %s AS (%s)", rowType, strings.Join(fields, ", ")))

	bd := variableBinder{d: p.d, prefix: "_row."}
	var body strings.Builder
	for _, st := range p.steps {
		sql, err := renderStep(p.d, st, bd)
		if err != nil {
			return nil, err
		}
		body.WriteString(sql)
		body.WriteString(";\n")
	}

	returns := "void"
	if len(p.results) > 0 {
		outs := make([]string, 0, len(p.results))
		items := make([]string, 0, len(p.results))
		for _, r := range p.results {
			outs = append(outs, "out_"+r.name+" "+p.d.SQLTypeName(r.typ))
			items = append(items, resultExpr(p, r, bd))
		}
		returns = "TABLE(" + strings.Join(outs, ", ") + ")"
		body.WriteString("RETURN QUERY SELECT " + strings.Join(items, ", ") + ";\n")
		asm.returnsRows = true
	} else {
		body.WriteString("RETURN;\n")
	}

	asm.setup = append(asm.setup, fmt.Sprintf("CREATE FUNCTION %s(_row %s) RETURNS %s AS $$\n%sBEGIN\n%sEND;\n$$ LANGUAGE plpgsql",
		fn, rowType, returns, p.d.DeclareVariables(p.internals), body.String()))

	call := fmt.Sprintf("%s(ROW(%s)::%s)", fn, strings.Join(markers, ", "), rowType)
	if asm.returnsRows {
		asm.sql = "SELECT * FROM " + call
	} else {
		asm.sql = "SELECT " + call
	}

	asm.teardown = []string{
		fmt.Sprintf("DROP FUNCTION IF EXISTS %s(%s)", fn, rowType),
		fmt.Sprintf("DROP TYPE IF EXISTS %s", rowType),
	}
	return asm, nil
}
