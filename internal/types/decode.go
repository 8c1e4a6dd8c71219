package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// DecodeJSON builds an expression tree from its JSON form. Every object
// names its shape in "node"; attributes use snake_case names:
//
//	{"node": "CompareOperation", "op": "==",
//	 "left": {"node": "Field", "chain": ["event"]},
//	 "right": {"node": "Constant", "value": "$pageview"}}
//
// Unknown shapes, unknown attributes and attributes of the wrong JSON type
// are StructuralErrors.
func DecodeJSON(data []byte) (Expr, error) {
	n, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	e, ok := n.(Expr)
	if !ok || missing(e) {
		return nil, StructuralError{Node: ShapeOf(n), Reason: "not an expression"}
	}
	return e, nil
}

type decoder struct {
	shape string
	attrs map[string]json.RawMessage
	err   error
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeNode(raw json.RawMessage) (Node, error) {
	if isNull(raw) {
		return nil, nil
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, StructuralError{Node: "Unknown", Reason: fmt.Sprintf("expected an object: %v", err)}
	}
	var shape string
	if err := json.Unmarshal(attrs["node"], &shape); err != nil || shape == "" {
		return nil, StructuralError{Node: "Unknown", Attribute: "node", Reason: "missing shape name"}
	}
	delete(attrs, "node")
	d := &decoder{shape: shape, attrs: attrs}
	n := d.build()
	if d.err != nil {
		return nil, d.err
	}
	if len(d.attrs) > 0 {
		keys := make([]string, 0, len(d.attrs))
		for k := range d.attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, StructuralError{Node: shape, Attribute: keys[0], Reason: "unknown attribute"}
	}
	return n, nil
}

func (d *decoder) build() Node {
	switch d.shape {
	case "Constant":
		return &Constant{Value: d.value("value")}
	case "Field":
		return &Field{Chain: d.strings("chain")}
	case "Placeholder":
		return &Placeholder{Name: d.string("name")}
	case "Call":
		return &Call{Name: d.string("name"), Args: d.exprs("args"), Distinct: d.bool("distinct")}
	case "BinaryOperation":
		return &BinaryOperation{Left: d.expr("left"), Right: d.expr("right"), Op: BinaryOperationOp(d.string("op"))}
	case "CompareOperation":
		return &CompareOperation{Left: d.expr("left"), Right: d.expr("right"), Op: CompareOperationOp(d.string("op"))}
	case "And":
		return &And{Exprs: d.exprs("exprs")}
	case "Or":
		return &Or{Exprs: d.exprs("exprs")}
	case "Not":
		return &Not{Expr: d.expr("expr")}
	case "Array":
		return &Array{Exprs: d.exprs("exprs")}
	case "Tuple":
		return &Tuple{Exprs: d.exprs("exprs")}
	case "ArrayAccess":
		return &ArrayAccess{Array: d.expr("array"), Index: d.expr("index")}
	case "TupleAccess":
		return &TupleAccess{Tuple: d.expr("tuple"), Index: d.int("index")}
	case "Lambda":
		return &Lambda{Args: d.strings("args"), Expr: d.expr("expr")}
	case "Alias":
		return &Alias{Alias: d.string("alias"), Expr: d.expr("expr")}
	case "OrderExpr":
		return d.order()
	case "JoinExpr":
		return d.join()
	case "SampleExpr":
		return &SampleExpr{Ratio: d.ratio("ratio"), Offset: d.ratio("offset")}
	case "RatioExpr":
		return &RatioExpr{Left: d.constant("left"), Right: d.constant("right")}
	case "Macro":
		return &Macro{Name: d.string("name"), Expr: d.expr("expr"), Kind: MacroKind(d.string("kind"))}
	case "SelectQuery":
		return d.selectQuery()
	case "SelectUnionQuery":
		u := &SelectUnionQuery{}
		for _, n := range d.nodes("select_queries") {
			if q, ok := n.(*SelectQuery); ok {
				u.SelectQueries = append(u.SelectQueries, q)
			} else {
				d.fail("select_queries", "expected SelectQuery, got %s", ShapeOf(n))
			}
		}
		return u
	}
	d.fail("node", "unknown shape %q", d.shape)
	return nil
}

func (d *decoder) fail(attr, format string, args ...any) {
	if d.err == nil {
		d.err = StructuralError{Node: d.shape, Attribute: attr, Reason: fmt.Sprintf(format, args...)}
	}
}

func (d *decoder) take(attr string) (json.RawMessage, bool) {
	raw, ok := d.attrs[attr]
	delete(d.attrs, attr)
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func (d *decoder) scalar(attr string, dst any) {
	raw, ok := d.take(attr)
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail(attr, "%v", err)
	}
}

func (d *decoder) string(attr string) string {
	var s string
	d.scalar(attr, &s)
	return s
}

func (d *decoder) strings(attr string) []string {
	var s []string
	d.scalar(attr, &s)
	return s
}

func (d *decoder) bool(attr string) bool {
	var b bool
	d.scalar(attr, &b)
	return b
}

func (d *decoder) int(attr string) int {
	var i int
	d.scalar(attr, &i)
	return i
}

func (d *decoder) value(attr string) any {
	raw, ok := d.take(attr)
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		d.fail(attr, "%v", err)
		return nil
	}
	out, err := normalizeValue(v)
	if err != nil {
		d.fail(attr, "%v", err)
	}
	return out
}

func normalizeValue(v any) (any, error) {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return v.Float64()
	case []any:
		for i := range v {
			var err error
			if v[i], err = normalizeValue(v[i]); err != nil {
				return nil, err
			}
		}
		return v, nil
	case map[string]any:
		return nil, fmt.Errorf("objects are not constants")
	}
	return v, nil
}

func (d *decoder) node(attr string) Node {
	raw, ok := d.take(attr)
	if !ok {
		return nil
	}
	n, err := decodeNode(raw)
	if err != nil && d.err == nil {
		d.err = err
	}
	return n
}

func (d *decoder) nodes(attr string) []Node {
	raw, ok := d.take(attr)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.fail(attr, "expected a list: %v", err)
		return nil
	}
	out := make([]Node, 0, len(items))
	for _, item := range items {
		n, err := decodeNode(item)
		if err != nil {
			if d.err == nil {
				d.err = err
			}
			return nil
		}
		out = append(out, n)
	}
	return out
}

func (d *decoder) expr(attr string) Expr {
	n := d.node(attr)
	if n == nil {
		return nil
	}
	e, ok := n.(Expr)
	if !ok {
		d.fail(attr, "expected an expression, got %s", ShapeOf(n))
		return nil
	}
	return e
}

func (d *decoder) exprs(attr string) []Expr {
	nodes := d.nodes(attr)
	if nodes == nil {
		return nil
	}
	out := make([]Expr, 0, len(nodes))
	for _, n := range nodes {
		e, ok := n.(Expr)
		if !ok {
			d.fail(attr, "expected an expression, got %s", ShapeOf(n))
			return nil
		}
		out = append(out, e)
	}
	return out
}

func (d *decoder) constant(attr string) *Constant {
	n := d.node(attr)
	if n == nil {
		return nil
	}
	c, ok := n.(*Constant)
	if !ok {
		d.fail(attr, "expected Constant, got %s", ShapeOf(n))
	}
	return c
}

func (d *decoder) ratio(attr string) *RatioExpr {
	n := d.node(attr)
	if n == nil {
		return nil
	}
	r, ok := n.(*RatioExpr)
	if !ok {
		d.fail(attr, "expected RatioExpr, got %s", ShapeOf(n))
	}
	return r
}

func (d *decoder) order() *OrderExpr {
	o := &OrderExpr{Expr: d.expr("expr"), Order: Order(d.string("order"))}
	if o.Order == "" {
		o.Order = ASC
	}
	return o
}

func (d *decoder) join() *JoinExpr {
	j := &JoinExpr{
		JoinType:   d.string("join_type"),
		Table:      d.expr("table"),
		Alias:      d.string("alias"),
		Final:      d.bool("final"),
		Constraint: d.expr("constraint"),
	}
	if n := d.node("sample"); n != nil {
		s, ok := n.(*SampleExpr)
		if !ok {
			d.fail("sample", "expected SampleExpr, got %s", ShapeOf(n))
		}
		j.Sample = s
	}
	if n := d.node("next"); n != nil {
		next, ok := n.(*JoinExpr)
		if !ok {
			d.fail("next", "expected JoinExpr, got %s", ShapeOf(n))
		}
		j.Next = next
	}
	return j
}

func (d *decoder) selectQuery() *SelectQuery {
	q := &SelectQuery{
		Select:   d.exprs("select"),
		Distinct: d.bool("distinct"),
		Prewhere: d.expr("prewhere"),
		Where:    d.expr("where"),
		GroupBy:  d.exprs("group_by"),
		Having:   d.expr("having"),
		Limit:    d.expr("limit"),
		Offset:   d.expr("offset"),
	}
	for _, n := range d.nodes("with") {
		m, ok := n.(*Macro)
		if !ok {
			d.fail("with", "expected Macro, got %s", ShapeOf(n))
			continue
		}
		q.With = append(q.With, m)
	}
	if n := d.node("select_from"); n != nil {
		j, ok := n.(*JoinExpr)
		if !ok {
			d.fail("select_from", "expected JoinExpr, got %s", ShapeOf(n))
		}
		q.SelectFrom = j
	}
	for _, n := range d.nodes("order_by") {
		o, ok := n.(*OrderExpr)
		if !ok {
			d.fail("order_by", "expected OrderExpr, got %s", ShapeOf(n))
			continue
		}
		q.OrderBy = append(q.OrderBy, o)
	}
	return q
}
