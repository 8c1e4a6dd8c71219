// Package lazy materializes lazy tables and lazy joins of a resolved tree
// into subqueries that project only the fields the query uses.
package lazy

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/zoobzio/eventql/internal/resolver"
	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

// Expander rewrites lazy entities. It holds no per-query state and may be
// shared.
type Expander struct {
	db      *schema.Database
	logger  *slog.Logger
	options []resolver.Option
}

// New creates an expander over db. Synthesized subqueries are resolved with
// opts.
func New(db *schema.Database, logger *slog.Logger, opts ...resolver.Option) *Expander {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Expander{db: db, logger: logger, options: opts}
}

// Expand rewrites every lazy table and lazy join used under n. Selects are
// processed innermost first. A tree without lazy types is left untouched,
// so expanding twice is the same as expanding once.
func (x *Expander) Expand(n types.Node) error {
	var selects []*types.SelectQuery
	types.Inspect(n, func(n types.Node) bool {
		if q, ok := n.(*types.SelectQuery); ok {
			selects = append(selects, q)
		}
		return true
	})
	for i := len(selects) - 1; i >= 0; i-- {
		if err := x.expandSelect(selects[i]); err != nil {
			return err
		}
	}
	return nil
}

// tablePlan collects the fields used from one lazy table in FROM/JOIN.
type tablePlan struct {
	name   string
	join   *types.JoinExpr
	fields []string
	sets   []func(types.Type)
}

// joinPlan collects the fields used through one lazy join path, e.g.
// events.pdi.person.
type joinPlan struct {
	key         string
	alias       string
	parentAlias string
	lazy        *schema.LazyJoin
	fields      []string
	sets        []func(types.Type)
}

func addField(fields []string, name string) []string {
	if name == "" {
		return fields
	}
	for _, f := range fields {
		if f == name {
			return fields
		}
	}
	return append(fields, name)
}

// plan is the expansion state of one select.
type plan struct {
	x      *Expander
	q      *types.SelectQuery
	sq     *types.SelectQueryType
	tables map[types.Type]*tablePlan
	order  []*tablePlan
	joins  map[string]*joinPlan
}

func (x *Expander) expandSelect(q *types.SelectQuery) error {
	sq, ok := q.Type.(*types.SelectQueryType)
	if !ok {
		return types.StructuralError{Node: "SelectQuery", Reason: "not resolved"}
	}
	p := &plan{x: x, q: q, sq: sq, tables: map[types.Type]*tablePlan{}, joins: map[string]*joinPlan{}}

	for _, j := range q.Joins() {
		if name, ok := lazyTable(j.Type); ok {
			tp := &tablePlan{name: name, join: j}
			p.tables[j.Type] = tp
			p.order = append(p.order, tp)
		}
	}

	err := types.Walk(q, func(n types.Node) (bool, error) {
		switch n.(type) {
		case *types.SelectQuery, *types.SelectUnionQuery:
			if n != types.Node(q) {
				return false, nil
			}
		}
		if e, ok := n.(types.Expr); ok {
			return true, p.use(e.GetType())
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	for _, tp := range p.order {
		if err := p.expandTable(tp); err != nil {
			return err
		}
	}

	joins := make([]*joinPlan, 0, len(p.joins))
	for _, jp := range p.joins {
		joins = append(joins, jp)
	}
	// Parents before children, so a constraint can see the table it hangs off.
	sort.Slice(joins, func(i, j int) bool {
		di, dj := strings.Count(joins[i].key, "."), strings.Count(joins[j].key, ".")
		if di != dj {
			return di < dj
		}
		return joins[i].key < joins[j].key
	})
	for _, jp := range joins {
		if err := p.expandJoin(jp); err != nil {
			return err
		}
	}
	return nil
}

// lazyTable reports whether a FROM/JOIN type is an unexpanded lazy table.
func lazyTable(t types.Type) (string, bool) {
	switch t := t.(type) {
	case *types.LazyTableType:
		return t.Table, true
	case *types.TableAliasType:
		return lazyTable(t.Table)
	}
	return "", false
}

// use records what a resolved type needs from lazy entities.
func (p *plan) use(t types.Type) error {
	switch t := t.(type) {
	case *types.FieldType:
		return p.request(t.Table, t.Name, func(nt types.Type) { t.Table = nt })
	case *types.PropertyType:
		return p.use(t.Field)
	case *types.AsteriskType:
		if t.Table != nil {
			return p.request(t.Table, "", func(nt types.Type) { t.Table = nt })
		}
	}
	return nil
}

func (p *plan) request(table types.Type, field string, set func(types.Type)) error {
	switch t := table.(type) {
	case *types.LazyJoinType:
		jp, err := p.join(t)
		if err != nil {
			return err
		}
		jp.fields = addField(jp.fields, field)
		jp.sets = append(jp.sets, set)
	case *types.VirtualTableType:
		if p.lazyOwner(t.Table) {
			name, _ := p.key(t.Table)
			return types.LazyExpansionError{
				Table:  name,
				Fields: []string{t.Field},
				Err:    errors.New("virtual tables below lazy entities are not supported"),
			}
		}
	default:
		if tp, ok := p.tables[table]; ok {
			tp.fields = addField(tp.fields, field)
			tp.sets = append(tp.sets, set)
		}
	}
	return nil
}

func (p *plan) lazyOwner(t types.Type) bool {
	if _, ok := t.(*types.LazyJoinType); ok {
		return true
	}
	_, ok := p.tables[t]
	return ok
}

// join returns the plan for a lazy join path, creating the plans of its
// parents and asking each parent for the key the join hangs off.
func (p *plan) join(t *types.LazyJoinType) (*joinPlan, error) {
	key, err := p.key(t)
	if err != nil {
		return nil, err
	}
	if jp, ok := p.joins[key]; ok {
		return jp, nil
	}
	lj, err := p.x.db.LazyJoinOf(t)
	if err != nil {
		return nil, types.LazyExpansionError{Table: key, Err: err}
	}
	jp := &joinPlan{key: key, alias: strings.ReplaceAll(key, ".", "__"), lazy: lj}

	switch parent := t.Table.(type) {
	case *types.LazyJoinType:
		pp, err := p.join(parent)
		if err != nil {
			return nil, err
		}
		pp.fields = addField(pp.fields, lj.From)
		jp.parentAlias = pp.alias
	default:
		if tp, ok := p.tables[t.Table]; ok {
			tp.fields = addField(tp.fields, lj.From)
		}
		jp.parentAlias = key[:strings.LastIndex(key, ".")]
	}
	p.joins[key] = jp
	return jp, nil
}

// key names a table type by its path from a FROM/JOIN entry.
func (p *plan) key(t types.Type) (string, error) {
	if lj, ok := t.(*types.LazyJoinType); ok {
		parent, err := p.key(lj.Table)
		if err != nil {
			return "", err
		}
		return parent + "." + lj.Field, nil
	}
	for name, typ := range p.sq.Tables {
		if typ == t {
			return name, nil
		}
	}
	return "", types.LazyExpansionError{Err: errors.New("lazy join does not hang off a table in scope")}
}

// prepare resolves and expands a synthesized select.
func (x *Expander) prepare(q *types.SelectQuery) error {
	if err := resolver.New(x.db, x.options...).Resolve(q); err != nil {
		return err
	}
	return x.Expand(q)
}

func (p *plan) expandTable(tp *tablePlan) error {
	fail := func(err error) error {
		return types.LazyExpansionError{Table: tp.name, Fields: tp.fields, Err: err}
	}
	table, err := p.x.db.Table(tp.name)
	if err != nil {
		return fail(err)
	}
	lt, ok := table.(schema.LazyTable)
	if !ok {
		return fail(errors.New("table is not lazy"))
	}
	sub, err := lt.LazySelect(tp.fields)
	if err != nil {
		return fail(err)
	}
	if err := p.x.prepare(sub); err != nil {
		return fail(err)
	}

	if tp.join.Alias == "" {
		tp.join.Alias = tp.name
	}
	nt := &types.SelectQueryAliasType{Alias: tp.join.Alias, SelectQuery: sub.Type}
	old := tp.join.Type
	tp.join.Table = sub
	tp.join.Type = nt
	for name, t := range p.sq.Tables {
		if t == old {
			p.sq.Tables[name] = nt
		}
	}
	for i, t := range p.sq.AnonymousTables {
		if t == old {
			p.sq.AnonymousTables[i] = nt
		}
	}
	for _, set := range tp.sets {
		set(nt)
	}
	p.x.logger.Debug("expanded lazy table",
		slog.String("table", tp.name),
		slog.String("alias", tp.join.Alias),
		slog.Any("fields", tp.fields),
	)
	return nil
}

func (p *plan) expandJoin(jp *joinPlan) error {
	fail := func(err error) error {
		return types.LazyExpansionError{Table: jp.lazy.Table, Fields: jp.fields, Err: err}
	}
	if _, ok := p.sq.Tables[jp.alias]; ok {
		return fail(types.DuplicateAliasError{Alias: jp.alias})
	}
	je, err := jp.lazy.Join(p.x.db, jp.parentAlias, jp.alias, jp.fields)
	if err != nil {
		return fail(err)
	}
	sub := je.Table.(*types.SelectQuery)
	if err := p.x.prepare(sub); err != nil {
		return fail(err)
	}

	nt := &types.SelectQueryAliasType{Alias: jp.alias, SelectQuery: sub.Type}
	je.Type = nt
	p.sq.Tables[jp.alias] = nt
	p.q.AppendJoin(je)
	if err := resolver.New(p.x.db, p.x.options...).ResolveInScope(je.Constraint, p.sq); err != nil {
		return fail(err)
	}
	for _, set := range jp.sets {
		set(nt)
	}
	p.x.logger.Debug("expanded lazy join",
		slog.String("path", jp.key),
		slog.String("table", jp.lazy.Table),
		slog.String("alias", jp.alias),
		slog.Any("fields", jp.fields),
	)
	return nil
}
