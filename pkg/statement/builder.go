package statement

import (
	"strconv"
	"strings"

	"github.com/kubev2v/relcore/pkg/dialect"
	srvErrors "github.com/kubev2v/relcore/pkg/errors"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

// Tables holding the property values of extended rows.
const (
	ObjectTable         = "exp.Object"
	ObjectPropertyTable = "exp.ObjectProperty"
)

// containerParam is the row field carrying the container id when no container is fixed
// at compile time and the table has no Container column.
const containerParam = "container"

type assignment struct {
	column string
	value  fragment
	// data is false for audit and version columns, which alone never make a MERGE
	// worth updating.
	data bool
}

type builder struct {
	d    dialect.Dialect
	t    *schema.Table
	op   Operation
	opts Options

	params   *registry
	props    []schema.Property
	extended bool
	keys     []*schema.Column

	uriColumn *schema.Column
	uriParam  *Parameter
	// internal variables of extended programs
	objectIDVar  string
	objectURIVar string
	rowIDVar     string
}

func newBuilder(d dialect.Dialect, t *schema.Table, op Operation, opts Options) *builder {
	return &builder{d: d, t: t, op: op, opts: opts, params: newRegistry()}
}

func (b *builder) configError(format string, args ...any) error {
	return srvErrors.NewConfigurationError(b.t.QualifiedName(), format, args...)
}

func (b *builder) build() (*program, error) {
	for _, p := range b.t.Properties() {
		if b.skipsProperty(p.Name) || b.t.HasColumn(p.Name) {
			continue
		}
		b.props = append(b.props, p)
	}
	for _, p := range b.opts.VocabularyProperties {
		if b.skipsProperty(p.Name) || b.t.HasColumn(p.Name) {
			continue
		}
		if _, ok := p.StorageType(); !ok {
			return nil, b.configError("property %s: type %s cannot be stored", p.Name, p.Type)
		}
		b.props = append(b.props, p)
	}
	b.extended = len(b.props) > 0

	if b.extended {
		b.uriColumn = b.t.ObjectURI()
		if b.uriColumn == nil {
			return nil, b.configError("properties need an object URI column")
		}
		// registered first so the key lookup below reuses it
		b.uriParam = b.params.add(&Parameter{
			Name:   b.uriColumn.Name,
			Type:   sqlf.TypeString,
			kind:   kindObjectURI,
			column: b.uriColumn,
		})
		b.objectIDVar = b.d.InternalVariable("objectid")
	} else if c := b.t.ObjectURI(); c != nil && !b.opts.skips(c.Name) && !c.ReadOnly {
		b.uriColumn = c
		b.uriParam = b.params.add(&Parameter{Name: c.Name, Type: c.Type, kind: kindObjectURI, column: c})
	}

	if err := b.resolveKeys(); err != nil {
		return nil, err
	}
	if b.extended && b.op != Insert && !b.keyed(b.uriColumn) {
		b.objectURIVar = b.d.InternalVariable("objecturi")
	}

	insertCols := b.assignments(true)
	var updateCols []assignment
	if b.op != Insert {
		updateCols = b.assignments(false)
	}

	degrade := b.op == Merge && !hasData(updateCols)
	if b.op == Update && len(updateCols) == 0 {
		return nil, b.configError("update has no columns to set")
	}
	if b.op != Update && len(insertCols) == 0 {
		return nil, b.configError("insert has no columns to write")
	}

	multi := b.extended || (b.op == Merge && !degrade)
	if multi && b.d.Family() == dialect.FamilyPlain {
		return nil, b.configError("%s on %s needs procedural support, which dialect %s lacks", b.op, b.t.QualifiedName(), b.d.Name())
	}

	p := &program{
		d:      b.d,
		table:  b.t,
		op:     b.op,
		params: b.params,
		uri:    b.uriParam,
	}

	rowID := b.t.AutoIncrementColumn()
	if !b.opts.SelectIDs {
		rowID = nil
	}
	if multi {
		b.declareInternals(p, rowID)
	}

	if b.op != Insert {
		for _, k := range b.keys {
			for _, pt := range b.columnValue(k) {
				if pt.param != nil {
					p.keys = append(p.keys, pt.param)
				}
			}
		}
		p.probe = text("SELECT COUNT(*) FROM ", b.t.QualifiedName(), " WHERE ").join(b.whereKeys())
		if b.op == Update {
			p.required = append(p.required, p.keys...)
		}
	}

	if b.extended {
		p.steps = append(p.steps, b.objectSteps()...)
	}

	switch {
	case b.op == Insert:
		p.steps = append(p.steps, step{body: b.insert(insertCols, rowID, multi, false)})
	case degrade:
		p.steps = append(p.steps, step{body: b.insert(insertCols, rowID, multi, true)})
	case b.op == Merge:
		p.steps = append(p.steps,
			step{body: []fragment{b.update(p, updateCols, rowID, true, false)}},
			step{cond: text(b.d.RowNotFound()), body: b.insert(insertCols, rowID, true, false)},
		)
	default:
		p.steps = append(p.steps, step{body: []fragment{b.update(p, updateCols, rowID, multi, true)}})
		if multi {
			p.steps = append(p.steps, step{
				cond: text(b.d.RowNotFound()),
				body: []fragment{text(b.d.RaiseConflict(srvErrors.ConflictMessage))},
			})
		}
	}

	if b.extended {
		p.steps = append(p.steps, b.propertySteps()...)
	}

	if !multi {
		p.returning = rowID != nil
		if rowID != nil {
			p.results = append(p.results, resultColumn{kind: resultRowID, name: rowID.Expr(), typ: rowID.Type})
		}
		return p, nil
	}

	if rowID != nil {
		p.results = append(p.results, resultColumn{kind: resultRowID, name: "rowid", variable: b.rowIDVar, typ: rowID.Type})
	}
	if b.extended && b.opts.SelectIDs {
		p.results = append(p.results, resultColumn{kind: resultObjectID, name: "objectid", variable: b.objectIDVar, typ: sqlf.TypeBigInt})
	}
	if b.extended && b.opts.SelectObjectURI {
		r := resultColumn{kind: resultObjectURI, name: "objecturi", typ: sqlf.TypeString}
		if b.objectURIVar != "" {
			r.variable = b.objectURIVar
		}
		p.results = append(p.results, r)
	}
	return p, nil
}

func (b *builder) skipsProperty(name string) bool {
	if b.opts.skips(name) {
		return true
	}
	for _, s := range b.t.SkipProperties {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

func (b *builder) declareInternals(p *program, rowID *schema.Column) {
	if b.extended {
		p.internals = append(p.internals, dialect.VariableDecl{Name: b.objectIDVar, Type: sqlf.TypeBigInt})
	}
	if b.objectURIVar != "" {
		p.internals = append(p.internals, dialect.VariableDecl{Name: b.objectURIVar, Type: sqlf.TypeString})
	}
	if rowID != nil {
		b.rowIDVar = b.d.InternalVariable("rowid")
		p.internals = append(p.internals, dialect.VariableDecl{Name: b.rowIDVar, Type: rowID.Type})
	}
}

func (b *builder) resolveKeys() error {
	if b.op == Insert {
		return nil
	}
	names := b.opts.Keys
	if len(names) == 0 {
		if b.extended {
			names = []string{b.uriColumn.Name}
		} else {
			names = b.t.PrimaryKey
		}
	}
	if len(names) == 0 {
		return b.configError("%s needs key columns", b.op)
	}
	for _, name := range names {
		c, ok := b.t.Column(name)
		if !ok {
			return b.configError("key column %s does not exist", name)
		}
		b.keys = append(b.keys, c)
	}
	return nil
}

func (b *builder) keyed(c *schema.Column) bool {
	for _, k := range b.keys {
		if k == c {
			return true
		}
	}
	return false
}

// assignments lists the columns written by an INSERT (insert true) or set by an
// UPDATE, in table order after the builtin columns.
func (b *builder) assignments(insert bool) []assignment {
	var out []assignment
	done := make(map[string]bool)
	add := func(c *schema.Column, v fragment, data bool) {
		out = append(out, assignment{column: c.Expr(), value: v, data: data})
		done[strings.ToLower(c.Name)] = true
	}
	builtin := func(name string) (*schema.Column, bool) {
		c, ok := b.t.Column(name)
		if !ok || b.opts.skips(c.Name) || done[strings.ToLower(c.Name)] {
			return nil, false
		}
		return c, true
	}

	if c, ok := builtin(schema.ColumnContainer); ok {
		add(c, b.containerValue(), false)
	}

	if b.opts.AutoFillDefaultColumns {
		if !insert {
			// creation audit is written once
			for _, name := range []string{schema.ColumnOwner, schema.ColumnCreatedBy, schema.ColumnCreated} {
				if c, ok := b.t.Column(name); ok {
					done[strings.ToLower(c.Name)] = true
				}
			}
		}
		if b.opts.User != nil {
			user := text(strconv.FormatInt(b.opts.User.ID, 10))
			if insert {
				for _, name := range []string{schema.ColumnOwner, schema.ColumnCreatedBy} {
					if c, ok := builtin(name); ok {
						add(c, user, false)
					}
				}
			}
			if c, ok := builtin(schema.ColumnModifiedBy); ok {
				add(c, user, false)
			}
		}
		now := text(b.d.NowLiteral())
		if insert {
			if c, ok := builtin(schema.ColumnCreated); ok {
				add(c, now, false)
			}
		}
		if c, ok := builtin(schema.ColumnModified); ok {
			add(c, now, false)
		}
	}

	if v := b.t.VersionColumn(); v != nil && !b.opts.skips(v.Name) {
		if expr, ok := b.d.VersionExpression(v.Expr(), v.Type, insert); ok {
			add(v, text(expr), false)
		}
		done[strings.ToLower(v.Name)] = true
	}

	for _, c := range b.t.Columns {
		switch {
		case done[strings.ToLower(c.Name)]:
			continue
		case c.AutoIncrement && !b.opts.AllowAutoIncrement:
			continue
		case c.ReadOnly || b.opts.skips(c.Name):
			continue
		case !insert && b.keyed(c):
			continue
		}
		add(c, b.columnValue(c), true)
	}
	return out
}

func hasData(as []assignment) bool {
	for _, a := range as {
		if a.data {
			return true
		}
	}
	return false
}

// columnValue is the value written to or compared with column c.
func (b *builder) columnValue(c *schema.Column) fragment {
	if v, ok := b.opts.constant(c.Name); ok {
		return value(b.params.constant(c.Name, c.Type, v))
	}
	if b.extended && b.t.ObjectIDColumn != "" && strings.EqualFold(c.Name, b.t.ObjectIDColumn) {
		return text(b.objectIDVar)
	}
	if b.uriColumn == c {
		if b.objectURIVar != "" && !b.keyed(c) {
			return text(b.objectURIVar)
		}
		return value(b.uriParam)
	}
	if strings.EqualFold(c.Name, schema.ColumnContainer) {
		return b.containerValue()
	}
	return value(b.params.column(c))
}

func (b *builder) containerValue() fragment {
	if b.opts.Container != nil {
		return value(b.params.constant(containerParam, sqlf.TypeString, b.opts.Container.ID))
	}
	if c, ok := b.t.Column(schema.ColumnContainer); ok {
		return value(b.params.column(c))
	}
	return value(b.params.add(&Parameter{Name: containerParam, Type: sqlf.TypeString, kind: kindContainer}))
}

// uriValue is the object URI as seen by the object steps: the preselected value when
// the row is not keyed by its URI, the bound one otherwise.
func (b *builder) uriValue() fragment {
	if b.objectURIVar != "" {
		return text(b.objectURIVar)
	}
	return value(b.uriParam)
}

func (b *builder) whereKeys() fragment {
	parts := make([]fragment, 0, len(b.keys))
	for _, k := range b.keys {
		parts = append(parts, text(k.Expr(), " = ").join(b.columnValue(k)))
	}
	return joinFragments(parts, " AND ")
}

// objectSteps make sure the row's exp.Object entry exists and load its id.
func (b *builder) objectSteps() []step {
	var steps []step
	if b.objectURIVar != "" {
		pre := text(b.d.AssignVariable(b.objectURIVar, "COALESCE((SELECT "+b.uriColumn.Expr()+" FROM "+b.t.QualifiedName()+" WHERE ")).
			join(b.whereKeys()).
			add("), ").
			join(value(b.uriParam)).
			add(")")
		steps = append(steps, step{body: []fragment{pre}})
	}

	match := text("Container = ").join(b.containerValue()).add(" AND ObjectURI = ").join(b.uriValue())

	ensure := text("INSERT INTO ", ObjectTable, " (Container, ObjectURI) SELECT ").
		join(b.containerValue()).
		add(", ").
		join(b.uriValue()).
		add(" WHERE NOT EXISTS (SELECT ObjectURI FROM ", ObjectTable, " WHERE ").
		join(match).
		add(")")

	load := text(b.d.AssignVariable(b.objectIDVar, "(SELECT ObjectId FROM "+ObjectTable+" WHERE ")).
		join(match).
		add(")")

	steps = append(steps, step{body: []fragment{ensure}}, step{body: []fragment{load}})

	if b.op != Insert {
		ids := make([]string, 0, len(b.props))
		for _, p := range b.props {
			ids = append(ids, strconv.FormatInt(p.ID, 10))
		}
		del := text("DELETE FROM ", ObjectPropertyTable, " WHERE ObjectId = ", b.objectIDVar,
			" AND PropertyId IN (", strings.Join(ids, ", "), ")")
		steps = append(steps, step{body: []fragment{del}})
	}
	return steps
}

// propertySteps write one exp.ObjectProperty row per property that has a value or a
// missing value indicator.
func (b *builder) propertySteps() []step {
	steps := make([]step, 0, len(b.props))
	for _, p := range b.props {
		st, _ := p.StorageType()
		v := b.params.add(&Parameter{Name: p.Name, URI: p.URI, Type: p.Type, kind: kindProperty})
		mv := b.params.add(&Parameter{
			Name: p.Name + schema.MVIndicatorSuffix,
			URI:  p.URI + schema.MVIndicatorSuffix,
			Type: sqlf.TypeString,
			kind: kindMVIndicator,
		})

		stored := value(v)
		if p.Type == sqlf.TypeBoolean {
			stored = text("CASE CAST(").
				join(value(v)).
				add(" AS ", b.d.BooleanType(), ") WHEN ", b.d.BooleanTrue(), " THEN 1.0 WHEN ", b.d.BooleanFalse(), " THEN 0.0 ELSE NULL END")
		}

		cond := text("(").join(value(v)).add(" IS NOT NULL OR ").join(value(mv)).add(" IS NOT NULL)")
		insert := text("INSERT INTO ", ObjectPropertyTable, " (ObjectId, PropertyId, TypeTag, MvIndicator, ", st.ValueColumn(), ") VALUES (",
			b.objectIDVar, ", ", strconv.FormatInt(p.ID, 10), ", '", string(st), "', ").
			join(value(mv)).
			add(", ").
			join(stored).
			add(")")
		steps = append(steps, step{cond: cond, body: []fragment{insert}})
	}
	return steps
}

// insert builds the INSERT of a program. With guard the row is only inserted when no
// row matches the keys, which is how a MERGE without updatable columns runs.
func (b *builder) insert(cols []assignment, rowID *schema.Column, multi, guard bool) []fragment {
	names := make([]string, 0, len(cols))
	values := make([]fragment, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.column)
		values = append(values, c.value)
	}

	f := text("INSERT INTO ", b.t.QualifiedName(), " (", strings.Join(names, ", "), ")")

	var trailer, followUp string
	if rowID != nil {
		if multi {
			trailer, followUp = b.d.CaptureInserted(rowID.Expr(), b.rowIDVar)
		} else {
			clause, before := b.d.Returning(rowID.Expr())
			if before {
				f = f.add(" ", clause)
			} else {
				trailer = " " + clause
			}
		}
	}

	if guard {
		f = f.add(" SELECT ").
			join(joinFragments(values, ", ")).
			add(" WHERE NOT EXISTS (SELECT 1 FROM ", b.t.QualifiedName(), " WHERE ").
			join(b.whereKeys()).
			add(")")
	} else {
		f = f.add(" VALUES (").join(joinFragments(values, ", ")).add(")")
	}
	f = f.add(trailer)

	out := []fragment{f}
	if followUp != "" {
		out = append(out, text(followUp))
	}
	return out
}

// update builds the UPDATE of a program. checkVersion adds the optimistic concurrency
// comparison against the version the caller read.
func (b *builder) update(p *program, cols []assignment, rowID *schema.Column, multi, checkVersion bool) fragment {
	sets := make([]fragment, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, text(c.column, " = ").join(c.value))
	}

	var before, trailer string
	if rowID != nil {
		if multi {
			setItem, suffix := b.d.CaptureUpdated(rowID.Expr(), b.rowIDVar)
			if setItem != "" {
				sets = append(sets, text(setItem))
			}
			trailer = suffix
		} else {
			clause, inFront := b.d.Returning(rowID.Expr())
			if inFront {
				before = " " + clause
			} else {
				trailer = " " + clause
			}
		}
	}

	f := text("UPDATE ", b.t.QualifiedName(), " SET ").
		join(joinFragments(sets, ", ")).
		add(before, " WHERE ").
		join(b.whereKeys())

	if v := b.t.VersionColumn(); checkVersion && v != nil && !b.keyed(v) && !b.opts.skips(v.Name) {
		old := b.params.column(v)
		p.required = append(p.required, old)
		f = f.add(" AND ", v.Expr(), " = ").join(value(old))
	}
	return f.add(trailer)
}
