// Package resolver binds every identifier of a query tree to the schema
// entity, scope or value it refers to.
package resolver

import (
	"sort"

	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

// DefaultMaxDepth bounds how deeply expressions and selects may nest.
const DefaultMaxDepth = 256

// Clauses an expression can be resolved in. Aliases may only be declared
// in the select list.
const (
	clauseSelect     = "SELECT"
	clauseWith       = "WITH"
	clauseConstraint = "JOIN constraint"
	clausePrewhere   = "PREWHERE"
	clauseWhere      = "WHERE"
	clauseGroupBy    = "GROUP BY"
	clauseHaving     = "HAVING"
	clauseOrderBy    = "ORDER BY"
	clauseLimit      = "LIMIT"
	clauseExpression = "expression"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth sets the nesting limit.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// Resolver annotates a tree with types. A Resolver is used for one
// compilation and is not safe for concurrent use; the database it reads is.
type Resolver struct {
	types.Unhandled[types.Type]

	db       *schema.Database
	maxDepth int
	depth    int
	clause   string
	scopes   []*scope
	lambdas  []map[string]bool
	// macro names in the order their resolution started
	inMacros []string
}

// scope is the resolver state of one select statement.
type scope struct {
	typ     *types.SelectQueryType
	aliases map[string]*types.Alias
	macros  map[string]*macro
}

type macro struct {
	node      *types.Macro
	typ       types.Type
	level     int
	resolving bool
}

// New creates a resolver over db.
func New(db *schema.Database, opts ...Option) *Resolver {
	r := &Resolver{
		Unhandled: types.Unhandled[types.Type]{Name: "Resolver"},
		db:        db,
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve annotates n and every expression below it. n is usually a
// SelectQuery or SelectUnionQuery; other expressions resolve in an empty
// scope. An already resolved root is rejected.
func (r *Resolver) Resolve(n types.Expr) error {
	if n == nil {
		return types.StructuralError{Node: "query", Reason: "missing"}
	}
	if n.GetType() != nil {
		return types.StructuralError{Node: types.ShapeOf(n), Reason: "already resolved"}
	}
	switch n.(type) {
	case *types.SelectQuery, *types.SelectUnionQuery:
		_, err := r.expr(n)
		return err
	}
	return r.resolveIn(n, types.NewSelectQueryType(), clauseExpression)
}

// ResolveInScope resolves e as if it appeared in a join constraint of the
// select described by sq. Used for expressions synthesized after the
// select was resolved.
func (r *Resolver) ResolveInScope(e types.Expr, sq *types.SelectQueryType) error {
	return r.resolveIn(e, sq, clauseConstraint)
}

func (r *Resolver) resolveIn(e types.Expr, sq *types.SelectQueryType, clause string) error {
	r.push(sq)
	defer r.pop()
	return r.in(clause, e)
}

func (r *Resolver) push(sq *types.SelectQueryType) *scope {
	if sq.Tables == nil {
		sq.Tables = map[string]types.Type{}
	}
	if sq.Columns == nil {
		sq.Columns = map[string]types.Type{}
	}
	if sq.Aliases == nil {
		sq.Aliases = map[string]*types.FieldAliasType{}
	}
	if sq.Macros == nil {
		sq.Macros = map[string]types.Type{}
	}
	s := &scope{typ: sq, aliases: map[string]*types.Alias{}, macros: map[string]*macro{}}
	r.scopes = append(r.scopes, s)
	return s
}

func (r *Resolver) pop() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) top() *scope {
	return r.scopes[len(r.scopes)-1]
}

// scopeNames lists the table keys visible in the current scope.
func (r *Resolver) scopeNames() []string {
	if len(r.scopes) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.top().typ.Tables))
	for name := range r.top().typ.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expr resolves e and stores its type.
func (r *Resolver) expr(e types.Expr) (types.Type, error) {
	if e == nil {
		return nil, nil
	}
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.maxDepth {
		return nil, types.RecursionLimitError{Limit: r.maxDepth}
	}
	t, err := types.Visit[types.Type](r, e)
	if err != nil {
		return nil, err
	}
	e.SetType(t)
	return t, nil
}

func (r *Resolver) exprs(in []types.Expr) ([]types.Type, error) {
	out := make([]types.Type, 0, len(in))
	for _, e := range in {
		t, err := r.expr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// in resolves e within clause.
func (r *Resolver) in(clause string, e types.Expr) error {
	saved := r.clause
	r.clause = clause
	defer func() { r.clause = saved }()
	_, err := r.expr(e)
	return err
}

// VisitSelectQuery opens a scope, resolves the clauses in binding order and
// returns the finished scope record.
func (r *Resolver) VisitSelectQuery(q *types.SelectQuery) (types.Type, error) {
	// Lambda arguments of an enclosing expression are not visible inside.
	savedLambdas, savedClause := r.lambdas, r.clause
	r.lambdas = nil
	defer func() { r.lambdas, r.clause = savedLambdas, savedClause }()

	sq := types.NewSelectQueryType()
	s := r.push(sq)
	defer r.pop()

	level := len(r.scopes) - 1
	for _, m := range q.With {
		if _, ok := s.macros[m.Name]; ok {
			return nil, types.DuplicateAliasError{Alias: m.Name, Scope: []string{clauseWith}}
		}
		s.macros[m.Name] = &macro{node: m, level: level}
	}
	// Subquery macros cannot see the tables of the select declaring them.
	for _, m := range q.With {
		if m.Kind == types.SubqueryMacro {
			if _, err := r.resolveMacro(s.macros[m.Name]); err != nil {
				return nil, err
			}
		}
	}

	for j := q.SelectFrom; j != nil; j = j.Next {
		if err := r.join(j); err != nil {
			return nil, err
		}
	}

	for _, m := range q.With {
		if m.Kind == types.ColumnMacro {
			if _, err := r.resolveMacro(s.macros[m.Name]); err != nil {
				return nil, err
			}
		}
	}

	if err := r.selectList(q); err != nil {
		return nil, err
	}

	clauses := []struct {
		clause string
		expr   types.Expr
	}{
		{clausePrewhere, q.Prewhere},
		{clauseWhere, q.Where},
	}
	for _, c := range clauses {
		if err := r.in(c.clause, c.expr); err != nil {
			return nil, err
		}
	}
	for _, e := range q.GroupBy {
		if err := r.in(clauseGroupBy, e); err != nil {
			return nil, err
		}
	}
	if err := r.in(clauseHaving, q.Having); err != nil {
		return nil, err
	}
	for _, o := range q.OrderBy {
		if err := r.in(clauseOrderBy, o); err != nil {
			return nil, err
		}
	}
	if err := r.in(clauseLimit, q.Limit); err != nil {
		return nil, err
	}
	if err := r.in(clauseLimit, q.Offset); err != nil {
		return nil, err
	}
	return sq, nil
}

// VisitSelectUnionQuery resolves every branch independently. Enclosing
// scopes see the columns of the first branch only; branch compatibility is
// not checked.
func (r *Resolver) VisitSelectUnionQuery(u *types.SelectUnionQuery) (types.Type, error) {
	ut := &types.SelectUnionQueryType{}
	for _, q := range u.SelectQueries {
		t, err := r.expr(q)
		if err != nil {
			return nil, err
		}
		ut.Types = append(ut.Types, t.(*types.SelectQueryType))
	}
	return ut, nil
}

// resolveMacro resolves a WITH entry in the scope that declared it.
func (r *Resolver) resolveMacro(m *macro) (types.Type, error) {
	if m.typ != nil {
		return m.typ, nil
	}
	if m.resolving {
		return nil, types.AliasCycleError{Alias: m.node.Name, Chain: r.macroChain(m.node.Name)}
	}
	m.resolving = true
	r.inMacros = append(r.inMacros, m.node.Name)
	defer func() {
		m.resolving = false
		r.inMacros = r.inMacros[:len(r.inMacros)-1]
	}()

	savedScopes, savedLambdas, savedClause := r.scopes, r.lambdas, r.clause
	r.scopes = append([]*scope(nil), r.scopes[:m.level+1]...)
	r.lambdas, r.clause = nil, clauseWith
	defer func() { r.scopes, r.lambdas, r.clause = savedScopes, savedLambdas, savedClause }()

	t, err := r.expr(m.node.Expr)
	if err != nil {
		return nil, err
	}
	if m.node.Kind == types.ColumnMacro {
		t = &types.FieldAliasType{Alias: m.node.Name, Type: t}
	}
	m.typ = t
	r.scopes[m.level].typ.Macros[m.node.Name] = t
	return t, nil
}

// macroChain returns the cycle through name in resolution order.
func (r *Resolver) macroChain(name string) []string {
	start := 0
	for i := len(r.inMacros) - 1; i >= 0; i-- {
		if r.inMacros[i] == name {
			start = i
			break
		}
	}
	chain := append([]string(nil), r.inMacros[start:]...)
	return append(chain, name)
}

// lookupMacro finds the innermost visible macro called name.
func (r *Resolver) lookupMacro(name string) (*macro, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if m, ok := r.scopes[i].macros[name]; ok {
			return m, true
		}
	}
	return nil, false
}
