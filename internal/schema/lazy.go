package schema

import (
	"fmt"

	"github.com/zoobzio/eventql/internal/types"
)

// PayloadTable is a lazy table over a physical Source table. Some of its
// fields live inside a JSON Payload column of the source and are extracted
// on demand; the rest are columns of the source under the same name.
type PayloadTable struct {
	*Fields
	name string
	// Source is the physical table the select reads from.
	Source string
	// Payload is the JSON column of Source holding the extracted fields.
	Payload string
	// StringFields are extracted with JSONExtractString.
	StringFields []string
	// IntFields are extracted with JSONExtractInt.
	IntFields []string
}

// NewPayloadTable creates an empty payload table.
func NewPayloadTable(name, source, payload string) *PayloadTable {
	return &PayloadTable{Fields: NewFields(), name: name, Source: source, Payload: payload}
}

func (t *PayloadTable) Name() string        { return t.name }
func (t *PayloadTable) PrintedName() string { return t.name }
func (t *PayloadTable) TeamColumn() string  { return "" }

// LazySelect builds a select over Source projecting exactly the requested
// fields, each aliased to its logical name.
func (t *PayloadTable) LazySelect(requested []string) (*types.SelectQuery, error) {
	q := &types.SelectQuery{
		SelectFrom: &types.JoinExpr{Table: &types.Field{Chain: []string{t.Source}}},
	}
	seen := map[string]bool{}
	for _, name := range requested {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := t.Field(name); !ok {
			return nil, types.FieldNotFoundError{Field: name, Table: t.name}
		}
		var expr types.Expr
		switch {
		case contains(t.StringFields, name):
			expr = t.extract("JSONExtractString", name)
		case contains(t.IntFields, name):
			expr = t.extract("JSONExtractInt", name)
		default:
			expr = &types.Field{Chain: []string{t.Source, name}}
		}
		q.Select = append(q.Select, &types.Alias{Alias: name, Expr: expr})
	}
	if len(q.Select) == 0 {
		q.Select = []types.Expr{&types.Constant{Value: int64(1)}}
	}
	return q, nil
}

func (t *PayloadTable) extract(fn, name string) types.Expr {
	return &types.Call{
		Name: fn,
		Args: []types.Expr{
			&types.Field{Chain: []string{t.Source, t.Payload}},
			&types.Constant{Value: name},
		},
	}
}

// Join builds the LEFT JOIN that materializes the lazy join for the
// requested fields of the joined table. The joined select always projects
// the To key. fromAlias names the owning table in the outer scope; alias
// names the joined select.
func (j *LazyJoin) Join(db *Database, fromAlias, alias string, requested []string) (*types.JoinExpr, error) {
	target, err := db.Table(j.Table)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(requested)+1)
	seen := map[string]bool{}
	for _, name := range append(append([]string(nil), requested...), j.To) {
		if seen[name] {
			continue
		}
		seen[name] = true
		f, ok := target.Field(name)
		if !ok {
			return nil, types.FieldNotFoundError{Field: name, Table: j.Table}
		}
		if !Selectable(f) {
			return nil, fmt.Errorf("field %q of table %q is a %s and cannot be projected", name, j.Table, KindOf(f))
		}
		names = append(names, name)
	}

	q := &types.SelectQuery{
		SelectFrom: &types.JoinExpr{Table: &types.Field{Chain: []string{j.Table}}},
	}
	for _, name := range names {
		field := &types.Field{Chain: []string{j.Table, name}}
		switch {
		case j.Versioned == nil || name == j.To:
			q.Select = append(q.Select, &types.Alias{Alias: name, Expr: field})
		default:
			q.Select = append(q.Select, &types.Alias{Alias: name, Expr: j.latest(field)})
		}
	}
	if j.Versioned != nil {
		q.GroupBy = []types.Expr{&types.Field{Chain: []string{j.Table, j.To}}}
		q.Having = &types.CompareOperation{
			Op:    types.Eq,
			Left:  j.latest(&types.Field{Chain: []string{j.Table, j.Versioned.Deleted}}),
			Right: &types.Constant{Value: int64(0)},
		}
	}

	return &types.JoinExpr{
		JoinType: "LEFT JOIN",
		Table:    q,
		Alias:    alias,
		Constraint: &types.CompareOperation{
			Op:    types.Eq,
			Left:  &types.Field{Chain: []string{fromAlias, j.From}},
			Right: &types.Field{Chain: []string{alias, j.To}},
		},
	}, nil
}

func (j *LazyJoin) latest(f types.Expr) types.Expr {
	return &types.Call{
		Name: "argMax",
		Args: []types.Expr{f, &types.Field{Chain: []string{j.Table, j.Versioned.Version}}},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
