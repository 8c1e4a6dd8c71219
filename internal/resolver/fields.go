package resolver

import (
	"strings"

	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

// selectList resolves the select list, expanding top-level wildcards and
// exporting aliases and bare fields as columns.
func (r *Resolver) selectList(q *types.SelectQuery) error {
	saved := r.clause
	r.clause = clauseSelect
	defer func() { r.clause = saved }()

	sq := r.top().typ
	out := make([]types.Expr, 0, len(q.Select))
	for _, e := range q.Select {
		if f, ok := e.(*types.Field); ok && f.Chain[len(f.Chain)-1] == "*" {
			fields, err := r.expandAsterisk(f)
			if err != nil {
				return err
			}
			for _, field := range fields {
				sq.AddColumn(field.Chain[len(field.Chain)-1], field.Type)
				out = append(out, field)
			}
			continue
		}

		t, err := r.expr(e)
		if err != nil {
			return err
		}
		switch e := e.(type) {
		case *types.Alias:
			sq.AddColumn(e.Alias, t)
		case *types.Field:
			sq.AddColumn(e.Chain[len(e.Chain)-1], t)
		}
		out = append(out, e)
	}
	q.Select = out
	return nil
}

// expandAsterisk turns * or t.* into one resolved field per column.
func (r *Resolver) expandAsterisk(f *types.Field) ([]*types.Field, error) {
	var prefix []string
	var table types.Type
	if len(f.Chain) == 1 {
		tables := r.visibleTables()
		switch len(tables) {
		case 0:
			return nil, types.FieldNotFoundError{Field: "*", Scope: r.scopeNames()}
		case 1:
			table = tables[0].typ
		default:
			names := make([]string, 0, len(tables))
			for _, t := range tables {
				names = append(names, t.name)
			}
			return nil, types.AmbiguousFieldError{Field: "*", Tables: names}
		}
	} else {
		prefix = f.Chain[:len(f.Chain)-1]
		if t, ok := r.top().typ.Tables[prefix[0]]; ok && len(prefix) == 1 {
			table = t
		} else {
			t, err := r.lookup(prefix)
			if err != nil {
				return nil, err
			}
			table = t
		}
	}

	var fields []*types.Field
	add := func(name string, t types.Type) {
		chain := append(append([]string(nil), prefix...), name)
		fields = append(fields, &types.Field{Chain: chain, Type: t})
	}
	if cols, ok := types.ColumnsOf(table); ok {
		for _, name := range cols.ColumnNames {
			add(name, &types.FieldType{Name: name, Table: table})
		}
		return fields, nil
	}
	c, err := r.db.ContainerOf(table)
	if err != nil {
		return nil, types.PropertyAccessError{Field: strings.Join(prefix, "."), Kind: "value", Property: "*"}
	}
	for _, name := range c.FieldNames() {
		field, _ := c.Field(name)
		if schema.Selectable(field) {
			add(name, &types.FieldType{Name: name, Table: table})
		}
	}
	return fields, nil
}

// lookup resolves an identifier chain in the current scope: lambda
// arguments, then a table alias heading a dotted chain, then select
// aliases, then macros, then the single visible table exposing the name.
func (r *Resolver) lookup(chain []string) (types.Type, error) {
	name, rest := chain[0], chain[1:]

	for i := len(r.lambdas) - 1; i >= 0; i-- {
		if r.lambdas[i][name] {
			return r.descend(&types.LambdaArgumentType{Name: name}, rest, name)
		}
	}

	s := r.top()
	if len(rest) > 0 {
		if t, ok := s.typ.Tables[name]; ok {
			return r.descend(t, rest, "")
		}
	}
	if a, ok := s.typ.Aliases[name]; ok {
		return r.descend(a, rest, name)
	}
	if m, ok := r.lookupMacro(name); ok {
		t, err := r.resolveMacro(m)
		if err != nil {
			return nil, err
		}
		return r.descend(t, rest, name)
	}

	if name == "*" {
		tables := r.visibleTables()
		if len(tables) == 1 {
			return &types.AsteriskType{Table: tables[0].typ}, nil
		}
		return &types.AsteriskType{}, nil
	}

	var matches []visible
	for _, v := range r.visibleTables() {
		if r.exposes(v.typ, name) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 0:
		return nil, types.FieldNotFoundError{Field: name, Scope: r.scopeNames()}
	case 1:
		return r.descend(matches[0].typ, chain, "")
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, displayName(m.typ))
	}
	return nil, types.AmbiguousFieldError{Field: name, Tables: names}
}

// exposes reports whether a table type has a field or column called name.
func (r *Resolver) exposes(t types.Type, name string) bool {
	if cols, ok := types.ColumnsOf(t); ok {
		_, ok := cols.Columns[name]
		return ok
	}
	c, err := r.db.ContainerOf(t)
	if err != nil {
		return false
	}
	_, ok := c.Field(name)
	return ok
}

// descend follows chain below t. field names the chain so far for errors.
func (r *Resolver) descend(t types.Type, chain []string, field string) (types.Type, error) {
	for _, name := range chain {
		next, err := r.child(t, name, field)
		if err != nil {
			return nil, err
		}
		t = next
		if field == "" {
			field = name
		} else {
			field += "." + name
		}
	}
	return t, nil
}

// child resolves one step of a chain.
func (r *Resolver) child(parent types.Type, name, field string) (types.Type, error) {
	switch p := parent.(type) {
	case *types.TableType, *types.TableAliasType, *types.LazyTableType, *types.LazyJoinType, *types.VirtualTableType:
		if name == "*" {
			return &types.AsteriskType{Table: parent}, nil
		}
		c, err := r.db.ContainerOf(parent)
		if err != nil {
			return nil, err
		}
		f, ok := c.Field(name)
		if !ok {
			return nil, types.FieldNotFoundError{Field: name, Table: displayName(parent)}
		}
		switch f := f.(type) {
		case *schema.LazyJoin:
			return &types.LazyJoinType{Table: parent, Field: name}, nil
		case *schema.VirtualTable:
			return &types.VirtualTableType{Table: parent, Field: name}, nil
		case *schema.FieldTraverser:
			r.depth++
			defer func() { r.depth-- }()
			if r.depth > r.maxDepth {
				return nil, types.RecursionLimitError{Limit: r.maxDepth}
			}
			return r.descend(parent, f.Chain, field)
		}
		return &types.FieldType{Name: name, Table: parent}, nil

	case *types.SelectQueryType, *types.SelectQueryAliasType, *types.SelectUnionQueryType:
		if name == "*" {
			return &types.AsteriskType{Table: parent}, nil
		}
		cols, ok := types.ColumnsOf(parent)
		if !ok {
			return nil, types.FieldNotFoundError{Field: name, Table: displayName(parent)}
		}
		if _, ok := cols.Columns[name]; !ok {
			return nil, types.FieldNotFoundError{Field: name, Table: displayName(parent)}
		}
		return &types.FieldType{Name: name, Table: parent}, nil

	case *types.FieldAliasType:
		return r.child(types.Unalias(p), name, field)

	case *types.FieldType:
		f, err := r.db.FieldOf(p)
		if err != nil {
			return nil, err
		}
		if _, ok := f.(*schema.JSONField); ok {
			return &types.PropertyType{Chain: []string{name}, Field: p}, nil
		}
		kind := "expression"
		if f != nil {
			kind = schema.KindOf(f)
		}
		return nil, types.PropertyAccessError{Field: field, Kind: kind, Property: name}

	case *types.PropertyType:
		chain := append(append([]string(nil), p.Chain...), name)
		return &types.PropertyType{Chain: chain, Field: p.Field}, nil

	case *types.LambdaArgumentType:
		return nil, types.PropertyAccessError{Field: field, Kind: "lambda argument", Property: name}
	}
	return nil, types.PropertyAccessError{Field: field, Kind: "expression", Property: name}
}
