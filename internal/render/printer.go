// Package render prints resolved EventQL trees as dialect SQL.
package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

// Context carries per-query printing settings.
type Context struct {
	Database *schema.Database
	// TeamID filters every physical table with a team column when set.
	TeamID *int64
	// LogComment is attached to the outermost statement of dialects with
	// SETTINGS.
	LogComment string
	// PropertyGroups reads properties from property group map columns.
	PropertyGroups bool
}

// Printer renders one tree. It implements types.Visitor[string].
type Printer struct {
	d      Dialect
	caps   Capabilities
	ctx    Context
	inline map[types.Type]types.Expr
}

// Print renders a resolved tree. Every expression must carry a type, except
// SAMPLE clauses and their ratios.
func Print(n types.Node, d Dialect, ctx Context) (string, error) {
	if ctx.Database == nil {
		return "", errors.New("render: no database in context")
	}
	if d == nil {
		return "", errors.New("render: no dialect")
	}
	p := &Printer{d: d, caps: d.Capabilities(), ctx: ctx, inline: map[types.Type]types.Expr{}}
	out, err := p.node(n)
	if err != nil {
		return "", err
	}
	switch n.(type) {
	case *types.SelectQuery, *types.SelectUnionQuery:
		if ctx.LogComment != "" && p.caps.Settings {
			out += " SETTINGS log_comment = " + d.QuoteString(ctx.LogComment)
		}
	}
	return out, nil
}

func (p *Printer) unsupported(node string, hint ...string) error {
	return NewUnsupportedNodeError(p.d.Name(), node, hint...)
}

// node prints n as it stands; selects are not parenthesized.
func (p *Printer) node(n types.Node) (string, error) {
	switch e := n.(type) {
	case *types.SampleExpr, *types.RatioExpr, *types.Macro:
	case types.Expr:
		if e.GetType() == nil {
			return "", UnresolvedNodeError{Node: types.ShapeOf(e)}
		}
	}
	return types.Visit[string](p, n)
}

// expr prints e in an argument position.
func (p *Printer) expr(e types.Expr) (string, error) {
	s, err := p.node(e)
	if err != nil {
		return "", err
	}
	switch e.(type) {
	case *types.SelectQuery, *types.SelectUnionQuery:
		return "(" + s + ")", nil
	}
	return s, nil
}

// operand prints e next to an infix or postfix operator.
func (p *Printer) operand(e types.Expr) (string, error) {
	s, err := p.expr(e)
	if err != nil {
		return "", err
	}
	if p.infix(e) {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (p *Printer) infix(e types.Expr) bool {
	switch e := e.(type) {
	case *types.Alias, *types.Lambda:
		return true
	case *types.BinaryOperation, *types.CompareOperation, *types.Not:
		return !p.caps.FunctionOperators
	case *types.And:
		return len(e.Exprs) > 1 && !p.caps.FunctionOperators
	case *types.Or:
		return len(e.Exprs) > 1 && !p.caps.FunctionOperators
	case *types.Constant:
		return numeric(e.Value) && strings.HasPrefix(fmt.Sprint(e.Value), "-")
	}
	return false
}

func numeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, float32, float64:
		return true
	}
	return false
}

func (p *Printer) exprs(es []types.Expr) ([]string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		s, err := p.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// join combines printed conditions with a logical operator.
func (p *Printer) join(parts []string, fn, keyword string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	if p.caps.FunctionOperators {
		return fn + "(" + strings.Join(parts, ", ") + ")"
	}
	return strings.Join(parts, " "+keyword+" ")
}

// conditions ANDs printed guards with the non-nil expressions.
func (p *Printer) conditions(guards []string, es ...types.Expr) (string, error) {
	var present []types.Expr
	for _, e := range es {
		if e != nil {
			present = append(present, e)
		}
	}
	if len(guards) == 0 && len(present) == 1 {
		return p.expr(present[0])
	}
	parts := append([]string(nil), guards...)
	for _, e := range present {
		s, err := p.operand(e)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return p.join(parts, "and", "AND"), nil
}

func (p *Printer) compare(op types.CompareOperationOp, left, right string) (string, error) {
	if p.caps.FunctionOperators {
		return op.FunctionName() + "(" + left + ", " + right + ")", nil
	}
	tok, ok := p.d.Operator(op)
	if !ok {
		return "", p.unsupported("operator " + string(op))
	}
	return left + " " + tok + " " + right, nil
}

// ===== Literals =====

func (p *Printer) VisitConstant(n *types.Constant) (string, error) {
	return p.constant(n.Value)
}

func (p *Printer) constant(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		return p.d.Bool(v), nil
	case string:
		return p.d.QuoteString(v), nil
	case float32:
		return p.float(float64(v))
	case float64:
		return p.float(v)
	case time.Time:
		return p.d.Call("toDateTime", []string{p.d.QuoteString(v.UTC().Format(time.DateTime))})
	case uuid.UUID:
		return p.d.QuoteString(v.String()), nil
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			s, err := p.constant(item)
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return p.d.Call("array", items)
	}
	if !types.ValidConstant(v) {
		return "", p.unsupported(fmt.Sprintf("constant of type %T", v))
	}
	return fmt.Sprint(v), nil
}

func (p *Printer) float(f float64) (string, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", p.unsupported("non-finite number")
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

func (p *Printer) VisitPlaceholder(n *types.Placeholder) (string, error) {
	return "", p.unsupported("placeholder {"+n.Name+"}", "substitute placeholders before printing")
}

// ===== Fields =====

func (p *Printer) VisitField(n *types.Field) (string, error) {
	if p.caps.Logical {
		return p.chain(n.Chain), nil
	}
	switch t := n.Type.(type) {
	case *types.FieldType:
		return p.column(t)
	case *types.PropertyType:
		return p.property(t)
	case *types.FieldAliasType:
		return p.aliasReference(t)
	case *types.AsteriskType:
		return "*", nil
	case *types.LambdaArgumentType:
		return p.d.QuoteIdentifier(t.Name), nil
	}
	return "", p.unsupported(fmt.Sprintf("field %s of type %T", strings.Join(n.Chain, "."), n.Type))
}

func (p *Printer) chain(chain []string) string {
	parts := make([]string, len(chain))
	for i, part := range chain {
		if part == "*" {
			parts[i] = part
			continue
		}
		parts[i] = p.d.QuoteIdentifier(part)
	}
	return strings.Join(parts, ".")
}

func qualify(qualifier, column string) string {
	if qualifier == "" {
		return column
	}
	return qualifier + "." + column
}

// qualifier prints the name columns of t are reached through.
func (p *Printer) qualifier(t types.Type) (string, error) {
	switch t := t.(type) {
	case *types.TableType:
		return p.d.QuoteIdentifier(t.Table), nil
	case *types.TableAliasType:
		return p.d.QuoteIdentifier(t.Alias), nil
	case *types.SelectQueryAliasType:
		return p.d.QuoteIdentifier(t.Alias), nil
	case *types.SelectQueryType, *types.SelectUnionQueryType:
		return "", nil
	case *types.VirtualTableType:
		return p.qualifier(t.Table)
	case *types.LazyTableType, *types.LazyJoinType:
		return "", p.unsupported("lazy table", "expand lazy tables before printing")
	}
	return "", p.unsupported(fmt.Sprintf("table of type %T", t))
}

func (p *Printer) column(t *types.FieldType) (string, error) {
	qual, err := p.qualifier(t.Table)
	if err != nil {
		return "", err
	}
	if _, ok := types.ColumnsOf(t.Table); ok {
		return qualify(qual, p.d.QuoteIdentifier(t.Name)), nil
	}
	f, err := p.ctx.Database.FieldOf(t)
	if err != nil {
		return "", p.unsupported("field "+t.Name, err.Error())
	}
	switch f := f.(type) {
	case *schema.DatabaseField:
		return qualify(qual, p.d.QuoteIdentifier(f.Name)), nil
	case *schema.JSONField:
		return qualify(qual, p.d.QuoteIdentifier(f.Name)), nil
	}
	return "", p.unsupported(fmt.Sprintf("%s field %s", schema.KindOf(f), t.Name))
}

func (p *Printer) property(t *types.PropertyType) (string, error) {
	if _, sub := types.ColumnsOf(t.Field.Table); !sub && len(t.Chain) == 1 {
		f, err := p.ctx.Database.FieldOf(t.Field)
		if jf, ok := f.(*schema.JSONField); ok && err == nil {
			qual, err := p.qualifier(t.Field.Table)
			if err != nil {
				return "", err
			}
			key := t.Chain[0]
			if col, ok := jf.Materialized[key]; ok && p.caps.MaterializedColumns {
				return qualify(qual, p.d.QuoteIdentifier(col)), nil
			}
			if g, ok := jf.GroupFor(key); ok && p.caps.PropertyGroups && p.ctx.PropertyGroups {
				group := qualify(qual, p.d.QuoteIdentifier(jf.GroupColumn(g)))
				k := p.d.QuoteString(key)
				return fmt.Sprintf("if(has(%s, %s), %s[%s], NULL)", group, k, group, k), nil
			}
		}
	}
	col, err := p.column(t.Field)
	if err != nil {
		return "", err
	}
	return p.d.Property(col, t.Chain), nil
}

// aliasReference prints a use of a select alias or column macro, inlining
// the expression where the dialect cannot refer to it by name.
func (p *Printer) aliasReference(t *types.FieldAliasType) (string, error) {
	if e, ok := p.inline[t]; ok {
		return p.operand(e)
	}
	return p.d.QuoteIdentifier(t.Alias), nil
}

// ===== Operators =====

func (p *Printer) VisitCall(n *types.Call) (string, error) {
	args, err := p.exprs(n.Args)
	if err != nil {
		return "", err
	}
	if n.Distinct && len(args) > 0 {
		args[0] = "DISTINCT " + args[0]
	}
	return p.d.Call(n.Name, args)
}

func (p *Printer) VisitBinaryOperation(n *types.BinaryOperation) (string, error) {
	left, err := p.operand(n.Left)
	if err != nil {
		return "", err
	}
	right, err := p.operand(n.Right)
	if err != nil {
		return "", err
	}
	if p.caps.FunctionOperators {
		return n.Op.FunctionName() + "(" + left + ", " + right + ")", nil
	}
	return left + " " + string(n.Op) + " " + right, nil
}

func isNull(e types.Expr) bool {
	c, ok := e.(*types.Constant)
	return ok && c.Value == nil
}

func (p *Printer) VisitCompareOperation(n *types.CompareOperation) (string, error) {
	if (n.Op == types.Eq || n.Op == types.NotEq) && (isNull(n.Left) || isNull(n.Right)) {
		other := n.Left
		if isNull(n.Left) {
			other = n.Right
		}
		s, err := p.operand(other)
		if err != nil {
			return "", err
		}
		switch {
		case p.caps.FunctionOperators && n.Op == types.Eq:
			return "isNull(" + s + ")", nil
		case p.caps.FunctionOperators:
			return "isNotNull(" + s + ")", nil
		case n.Op == types.Eq:
			return s + " IS NULL", nil
		}
		return s + " IS NOT NULL", nil
	}

	left, err := p.operand(n.Left)
	if err != nil {
		return "", err
	}
	var right string
	if arr, ok := n.Right.(*types.Array); ok && !p.caps.Logical && (n.Op == types.In || n.Op == types.NotIn) {
		// SQL has no empty IN list.
		if len(arr.Exprs) == 0 {
			if n.Op == types.In {
				return p.compare(types.Eq, "1", "0")
			}
			return p.compare(types.Eq, "1", "1")
		}
		items, err := p.exprs(arr.Exprs)
		if err != nil {
			return "", err
		}
		right = "(" + strings.Join(items, ", ") + ")"
	} else if right, err = p.operand(n.Right); err != nil {
		return "", err
	}
	return p.compare(n.Op, left, right)
}

func (p *Printer) logical(es []types.Expr, fn, keyword string, empty bool) (string, error) {
	switch len(es) {
	case 0:
		return p.d.Bool(empty), nil
	case 1:
		return p.expr(es[0])
	}
	parts := make([]string, len(es))
	for i, e := range es {
		s, err := p.operand(e)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return p.join(parts, fn, keyword), nil
}

func (p *Printer) VisitAnd(n *types.And) (string, error) {
	return p.logical(n.Exprs, "and", "AND", true)
}

func (p *Printer) VisitOr(n *types.Or) (string, error) {
	return p.logical(n.Exprs, "or", "OR", false)
}

func (p *Printer) VisitNot(n *types.Not) (string, error) {
	if p.caps.FunctionOperators {
		s, err := p.expr(n.Expr)
		if err != nil {
			return "", err
		}
		return "not(" + s + ")", nil
	}
	s, err := p.operand(n.Expr)
	if err != nil {
		return "", err
	}
	return "NOT " + s, nil
}

func (p *Printer) VisitArray(n *types.Array) (string, error) {
	items, err := p.exprs(n.Exprs)
	if err != nil {
		return "", err
	}
	return p.d.Call("array", items)
}

func (p *Printer) VisitTuple(n *types.Tuple) (string, error) {
	items, err := p.exprs(n.Exprs)
	if err != nil {
		return "", err
	}
	return p.d.Call("tuple", items)
}

func (p *Printer) VisitArrayAccess(n *types.ArrayAccess) (string, error) {
	arr, err := p.operand(n.Array)
	if err != nil {
		return "", err
	}
	idx, err := p.expr(n.Index)
	if err != nil {
		return "", err
	}
	return p.d.Call("arrayElement", []string{arr, idx})
}

func (p *Printer) VisitTupleAccess(n *types.TupleAccess) (string, error) {
	tup, err := p.operand(n.Tuple)
	if err != nil {
		return "", err
	}
	return p.d.Call("tupleElement", []string{tup, strconv.Itoa(n.Index)})
}

func (p *Printer) VisitLambda(n *types.Lambda) (string, error) {
	if !p.caps.Lambdas {
		return "", p.unsupported("lambda")
	}
	body, err := p.expr(n.Expr)
	if err != nil {
		return "", err
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = p.d.QuoteIdentifier(a)
	}
	if len(args) == 1 {
		return args[0] + " -> " + body, nil
	}
	return "(" + strings.Join(args, ", ") + ") -> " + body, nil
}

// VisitAlias prints an alias nested inside an expression. Select-list
// aliases are printed by selectItem.
func (p *Printer) VisitAlias(n *types.Alias) (string, error) {
	s, err := p.expr(n.Expr)
	if err != nil {
		return "", err
	}
	if !p.caps.AliasReferences {
		return s, nil
	}
	return s + " AS " + p.d.QuoteIdentifier(n.Alias), nil
}

func (p *Printer) VisitOrderExpr(n *types.OrderExpr) (string, error) {
	s, err := p.expr(n.Expr)
	if err != nil {
		return "", err
	}
	order := n.Order
	if order == "" {
		order = types.ASC
	}
	return s + " " + string(order), nil
}

// ===== FROM =====

func crossJoin(j *types.JoinExpr) bool {
	return strings.Contains(j.JoinType, "CROSS")
}

// VisitJoinExpr prints the join chain starting at n.
func (p *Printer) VisitJoinExpr(n *types.JoinExpr) (string, error) {
	var b strings.Builder
	for j := n; j != nil; j = j.Next {
		if j.Type == nil {
			return "", UnresolvedNodeError{Node: "JoinExpr"}
		}
		if j != n {
			kw := j.JoinType
			if kw == "" {
				kw = "JOIN"
			}
			b.WriteString(" " + kw + " ")
		}
		table, err := p.joinTable(j)
		if err != nil {
			return "", err
		}
		b.WriteString(table)
		if j.Final {
			if !p.caps.Final {
				return "", p.unsupported("FINAL")
			}
			b.WriteString(" FINAL")
		}
		if j.Sample != nil {
			if !p.caps.Sample {
				return "", p.unsupported("SAMPLE")
			}
			s, err := p.node(j.Sample)
			if err != nil {
				return "", err
			}
			b.WriteString(" SAMPLE " + s)
		}
		if j == n {
			continue
		}
		var guards []string
		if !crossJoin(j) {
			g, ok, err := p.guard(j)
			if err != nil {
				return "", err
			}
			if ok {
				guards = append(guards, g)
			}
		}
		if j.Constraint != nil || len(guards) > 0 {
			s, err := p.conditions(guards, j.Constraint)
			if err != nil {
				return "", err
			}
			b.WriteString(" ON " + s)
		}
	}
	return b.String(), nil
}

func (p *Printer) joinTable(j *types.JoinExpr) (string, error) {
	alias := j.Alias
	var s string
	switch t := j.Table.(type) {
	case *types.Field:
		if p.caps.Logical {
			s = p.chain(t.Chain)
			break
		}
		name, printed, err := p.tableName(j.Type)
		if err != nil {
			return "", err
		}
		if printed == "" {
			s = p.chain(t.Chain)
			break
		}
		s = p.chain(strings.Split(printed, "."))
		if alias == "" && printed != name {
			alias = name
		}
	case *types.SelectQuery, *types.SelectUnionQuery:
		q, err := p.node(t)
		if err != nil {
			return "", err
		}
		s = "(" + q + ")"
	default:
		return "", p.unsupported("FROM " + types.ShapeOf(j.Table))
	}
	if alias != "" {
		s += " AS " + p.d.QuoteIdentifier(alias)
	}
	return s, nil
}

// tableName returns the logical and printed name of a physical table. Macro
// references return an empty printed name.
func (p *Printer) tableName(t types.Type) (string, string, error) {
	switch t := t.(type) {
	case *types.TableType:
		table, err := p.ctx.Database.Table(t.Table)
		if err != nil {
			return "", "", p.unsupported("table "+t.Table, err.Error())
		}
		return t.Table, table.PrintedName(), nil
	case *types.TableAliasType:
		return p.tableName(t.Table)
	case *types.SelectQueryAliasType:
		return t.Alias, "", nil
	case *types.LazyTableType:
		return "", "", p.unsupported("lazy table "+t.Table, "expand lazy tables before printing")
	}
	return "", "", p.unsupported(fmt.Sprintf("table of type %T", t))
}

// guard builds the team filter for a physical table entry.
func (p *Printer) guard(j *types.JoinExpr) (string, bool, error) {
	if !p.caps.TeamGuards || p.ctx.TeamID == nil {
		return "", false, nil
	}
	var name, qual string
	switch t := j.Type.(type) {
	case *types.TableType:
		name, qual = t.Table, t.Table
	case *types.TableAliasType:
		inner, ok := t.Table.(*types.TableType)
		if !ok {
			return "", false, nil
		}
		name, qual = inner.Table, t.Alias
	default:
		return "", false, nil
	}
	table, err := p.ctx.Database.Table(name)
	if err != nil {
		return "", false, p.unsupported("table "+name, err.Error())
	}
	team := table.TeamColumn()
	if team == "" {
		return "", false, nil
	}
	left := qualify(p.d.QuoteIdentifier(qual), p.d.QuoteIdentifier(team))
	s, err := p.compare(types.Eq, left, strconv.FormatInt(*p.ctx.TeamID, 10))
	return s, err == nil, err
}

// whereGuards returns the team filters of the first table and of cross
// joins, which have no ON clause to carry them.
func (p *Printer) whereGuards(n *types.JoinExpr) ([]string, error) {
	var out []string
	for j := n; j != nil; j = j.Next {
		if j != n && !crossJoin(j) {
			continue
		}
		g, ok, err := p.guard(j)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (p *Printer) VisitSampleExpr(n *types.SampleExpr) (string, error) {
	if n.Ratio == nil {
		return "", types.StructuralError{Node: "SampleExpr", Attribute: "ratio", Reason: "missing"}
	}
	s, err := p.node(n.Ratio)
	if err != nil {
		return "", err
	}
	if n.Offset != nil {
		off, err := p.node(n.Offset)
		if err != nil {
			return "", err
		}
		s += " OFFSET " + off
	}
	return s, nil
}

func (p *Printer) VisitRatioExpr(n *types.RatioExpr) (string, error) {
	if n.Left == nil {
		return "", types.StructuralError{Node: "RatioExpr", Attribute: "left", Reason: "missing"}
	}
	s, err := p.constant(n.Left.Value)
	if err != nil {
		return "", err
	}
	if n.Right != nil {
		r, err := p.constant(n.Right.Value)
		if err != nil {
			return "", err
		}
		s += "/" + r
	}
	return s, nil
}

// ===== SELECT =====

// VisitMacro prints one WITH entry, or "" for a column macro the dialect
// inlines.
func (p *Printer) VisitMacro(n *types.Macro) (string, error) {
	if n.Kind == types.SubqueryMacro {
		s, err := p.node(n.Expr)
		if err != nil {
			return "", err
		}
		return p.d.QuoteIdentifier(n.Name) + " AS (" + s + ")", nil
	}
	if !p.caps.ColumnMacros {
		return "", nil
	}
	s, err := p.expr(n.Expr)
	if err != nil {
		return "", err
	}
	return s + " AS " + p.d.QuoteIdentifier(n.Name), nil
}

// register records the aliases and column macros of q that must be inlined.
func (p *Printer) register(q *types.SelectQuery, sq *types.SelectQueryType) {
	if !p.caps.AliasReferences {
		for _, e := range q.Select {
			types.Inspect(e, func(n types.Node) bool {
				switch n := n.(type) {
				case *types.SelectQuery, *types.SelectUnionQuery:
					return false
				case *types.Alias:
					if n.Type != nil {
						p.inline[n.Type] = n.Expr
					}
				}
				return true
			})
		}
	}
	if !p.caps.ColumnMacros {
		for _, m := range q.With {
			if t, ok := sq.Macros[m.Name]; ok && m.Kind == types.ColumnMacro {
				p.inline[t] = m.Expr
			}
		}
	}
}

// selectItem prints a select-list entry. Bare fields whose printed form
// does not end in their column name are aliased back to it.
func (p *Printer) selectItem(e types.Expr) (string, error) {
	if a, ok := e.(*types.Alias); ok {
		if a.Type == nil {
			return "", UnresolvedNodeError{Node: "Alias"}
		}
		s, err := p.expr(a.Expr)
		if err != nil {
			return "", err
		}
		return s + " AS " + p.d.QuoteIdentifier(a.Alias), nil
	}
	s, err := p.expr(e)
	if err != nil {
		return "", err
	}
	f, ok := e.(*types.Field)
	if !ok || p.caps.Logical || len(f.Chain) == 0 {
		return s, nil
	}
	name := f.Chain[len(f.Chain)-1]
	if name == "*" {
		return s, nil
	}
	col := p.d.QuoteIdentifier(name)
	if s == col || strings.HasSuffix(s, "."+col) {
		return s, nil
	}
	return s + " AS " + col, nil
}

func (p *Printer) VisitSelectQuery(q *types.SelectQuery) (string, error) {
	sq, ok := q.Type.(*types.SelectQueryType)
	if !ok {
		return "", UnresolvedNodeError{Node: "SelectQuery"}
	}
	p.register(q, sq)

	var b strings.Builder
	var with []string
	for _, m := range q.With {
		s, err := p.node(m)
		if err != nil {
			return "", err
		}
		if s != "" {
			with = append(with, s)
		}
	}
	if len(with) > 0 {
		b.WriteString("WITH " + strings.Join(with, ", ") + " ")
	}

	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	cols := make([]string, len(q.Select))
	for i, e := range q.Select {
		s, err := p.selectItem(e)
		if err != nil {
			return "", err
		}
		cols[i] = s
	}
	b.WriteString(strings.Join(cols, ", "))

	var guards []string
	if q.SelectFrom != nil {
		from, err := p.node(q.SelectFrom)
		if err != nil {
			return "", err
		}
		b.WriteString(" FROM " + from)
		if guards, err = p.whereGuards(q.SelectFrom); err != nil {
			return "", err
		}
	}

	filters := []types.Expr{q.Where}
	if q.Prewhere != nil {
		if p.caps.Prewhere {
			s, err := p.expr(q.Prewhere)
			if err != nil {
				return "", err
			}
			b.WriteString(" PREWHERE " + s)
		} else {
			filters = []types.Expr{q.Prewhere, q.Where}
		}
	}
	if len(guards) > 0 || q.Where != nil || (q.Prewhere != nil && !p.caps.Prewhere) {
		s, err := p.conditions(guards, filters...)
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE " + s)
	}

	if len(q.GroupBy) > 0 {
		groups, err := p.exprs(q.GroupBy)
		if err != nil {
			return "", err
		}
		b.WriteString(" GROUP BY " + strings.Join(groups, ", "))
	}
	if q.Having != nil {
		s, err := p.expr(q.Having)
		if err != nil {
			return "", err
		}
		b.WriteString(" HAVING " + s)
	}
	if len(q.OrderBy) > 0 {
		orders := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			s, err := p.node(o)
			if err != nil {
				return "", err
			}
			orders[i] = s
		}
		b.WriteString(" ORDER BY " + strings.Join(orders, ", "))
	}
	if p.caps.FetchPaging {
		paging, err := p.fetchPaging(q)
		if err != nil {
			return "", err
		}
		b.WriteString(paging)
		return b.String(), nil
	}
	switch {
	case q.Limit != nil:
		s, err := p.expr(q.Limit)
		if err != nil {
			return "", err
		}
		b.WriteString(" LIMIT " + s)
	case q.Offset != nil && p.d.UnboundedLimit() != "":
		b.WriteString(" LIMIT " + p.d.UnboundedLimit())
	}
	if q.Offset != nil {
		s, err := p.expr(q.Offset)
		if err != nil {
			return "", err
		}
		b.WriteString(" OFFSET " + s)
	}
	return b.String(), nil
}

// fetchPaging prints OFFSET n ROWS FETCH NEXT m ROWS ONLY, which is only
// valid after an ORDER BY.
func (p *Printer) fetchPaging(q *types.SelectQuery) (string, error) {
	if q.Limit == nil && q.Offset == nil {
		return "", nil
	}
	if len(q.OrderBy) == 0 {
		return "", UnsupportedNodeError{
			Node:    "LIMIT without ORDER BY",
			Dialect: p.d.Name(),
			Hint:    "add ORDER BY when using LIMIT or OFFSET",
		}
	}
	offset := "0"
	if q.Offset != nil {
		s, err := p.expr(q.Offset)
		if err != nil {
			return "", err
		}
		offset = s
	}
	out := " OFFSET " + offset + " ROWS"
	if q.Limit != nil {
		s, err := p.expr(q.Limit)
		if err != nil {
			return "", err
		}
		out += " FETCH NEXT " + s + " ROWS ONLY"
	}
	return out, nil
}

func (p *Printer) VisitSelectUnionQuery(n *types.SelectUnionQuery) (string, error) {
	parts := make([]string, len(n.SelectQueries))
	for i, q := range n.SelectQueries {
		s, err := p.node(q)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, " UNION ALL "), nil
}
