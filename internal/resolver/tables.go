package resolver

import (
	"sort"
	"strings"

	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

// join registers one FROM/JOIN link and then resolves its constraint, which
// sees this table and the ones joined before it.
func (r *Resolver) join(j *types.JoinExpr) error {
	t, err := r.joinTable(j)
	if err != nil {
		return err
	}
	sq := r.top().typ
	switch {
	case j.Alias != "":
		if _, ok := sq.Tables[j.Alias]; ok {
			return types.DuplicateAliasError{Alias: j.Alias, Scope: r.scopeNames()}
		}
		sq.Tables[j.Alias] = t
	default:
		if name := implicitName(t); name != "" {
			if _, ok := sq.Tables[name]; ok {
				return types.AmbiguousTableError{Table: name}
			}
			sq.Tables[name] = t
		}
		sq.AnonymousTables = append(sq.AnonymousTables, t)
	}
	j.Type = t

	if j.Sample != nil {
		typeRatio(j.Sample.Ratio)
		typeRatio(j.Sample.Offset)
	}
	return r.in(clauseConstraint, j.Constraint)
}

func typeRatio(ratio *types.RatioExpr) {
	if ratio == nil {
		return
	}
	for _, c := range []*types.Constant{ratio.Left, ratio.Right} {
		if c != nil {
			c.Type = &types.ConstantType{DataType: types.DataTypeOf(c.Value)}
		}
	}
}

// implicitName is the name an unaliased table is reachable under.
func implicitName(t types.Type) string {
	switch t := t.(type) {
	case *types.TableType:
		return t.Table
	case *types.LazyTableType:
		return t.Table
	case *types.SelectQueryAliasType:
		return t.Alias
	}
	return ""
}

// joinTable resolves the table of a link and wraps it with the link alias.
func (r *Resolver) joinTable(j *types.JoinExpr) (types.Type, error) {
	switch table := j.Table.(type) {
	case *types.Field:
		t, err := r.namedTable(table.Chain, j.Alias)
		if err != nil {
			return nil, err
		}
		table.Type = t
		return t, nil
	case *types.SelectQuery, *types.SelectUnionQuery:
		saved := r.clause
		defer func() { r.clause = saved }()
		t, err := r.expr(table)
		if err != nil {
			return nil, err
		}
		if j.Alias != "" {
			return &types.SelectQueryAliasType{Alias: j.Alias, SelectQuery: t}, nil
		}
		return t, nil
	case *types.Placeholder:
		return nil, types.StructuralError{Node: "Placeholder", Attribute: table.Name, Reason: "no value supplied"}
	}
	return nil, types.StructuralError{Node: "JoinExpr", Attribute: "table", Reason: "must name a table or select"}
}

// namedTable resolves a FROM name: a subquery macro, a lazy table or a
// table.
func (r *Resolver) namedTable(chain []string, alias string) (types.Type, error) {
	if len(chain) != 1 {
		return nil, types.UnknownTableError{Table: strings.Join(chain, "."), Scope: r.scopeNames()}
	}
	name := chain[0]
	if m, ok := r.lookupMacro(name); ok && m.node.Kind == types.SubqueryMacro {
		t, err := r.resolveMacro(m)
		if err != nil {
			return nil, err
		}
		if alias == "" {
			alias = name
		}
		return &types.SelectQueryAliasType{Alias: alias, SelectQuery: t}, nil
	}
	table, err := r.db.Table(name)
	if err != nil {
		return nil, types.UnknownTableError{Table: name, Scope: r.scopeNames()}
	}
	var t types.Type = &types.TableType{Table: name}
	if _, ok := table.(schema.LazyTable); ok {
		t = &types.LazyTableType{Table: name}
	}
	if alias != "" {
		t = &types.TableAliasType{Alias: alias, Table: t}
	}
	return t, nil
}

// visible is one table reachable from the current scope.
type visible struct {
	name string
	typ  types.Type
}

// visibleTables lists the tables of the current scope: named entries in
// name order, then unnamed subqueries in join order.
func (r *Resolver) visibleTables() []visible {
	sq := r.top().typ
	names := make([]string, 0, len(sq.Tables))
	for name := range sq.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]visible, 0, len(names))
	named := map[types.Type]bool{}
	for _, name := range names {
		out = append(out, visible{name: name, typ: sq.Tables[name]})
		named[sq.Tables[name]] = true
	}
	for _, t := range sq.AnonymousTables {
		if !named[t] {
			out = append(out, visible{typ: t})
		}
	}
	return out
}

// displayName names a table type in errors.
func displayName(t types.Type) string {
	switch t := t.(type) {
	case *types.TableType:
		return t.Table
	case *types.LazyTableType:
		return t.Table
	case *types.TableAliasType:
		return t.Alias
	case *types.SelectQueryAliasType:
		return t.Alias
	case *types.LazyJoinType:
		return displayName(t.Table) + "." + t.Field
	case *types.VirtualTableType:
		return displayName(t.Table) + "." + t.Field
	}
	return ""
}
