package types

import "reflect"

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(e Expr) {
		if e != nil && !reflect.ValueOf(e).IsNil() {
			out = append(out, e)
		}
	}
	switch n := n.(type) {
	case *Call:
		for _, a := range n.Args {
			add(a)
		}
	case *BinaryOperation:
		add(n.Left)
		add(n.Right)
	case *CompareOperation:
		add(n.Left)
		add(n.Right)
	case *And:
		for _, e := range n.Exprs {
			add(e)
		}
	case *Or:
		for _, e := range n.Exprs {
			add(e)
		}
	case *Not:
		add(n.Expr)
	case *Array:
		for _, e := range n.Exprs {
			add(e)
		}
	case *Tuple:
		for _, e := range n.Exprs {
			add(e)
		}
	case *ArrayAccess:
		add(n.Array)
		add(n.Index)
	case *TupleAccess:
		add(n.Tuple)
	case *Lambda:
		add(n.Expr)
	case *Alias:
		add(n.Expr)
	case *OrderExpr:
		add(n.Expr)
	case *JoinExpr:
		add(n.Table)
		if n.Sample != nil {
			add(n.Sample)
		}
		add(n.Constraint)
		if n.Next != nil {
			add(n.Next)
		}
	case *SampleExpr:
		if n.Ratio != nil {
			add(n.Ratio)
		}
		if n.Offset != nil {
			add(n.Offset)
		}
	case *RatioExpr:
		if n.Left != nil {
			add(n.Left)
		}
		if n.Right != nil {
			add(n.Right)
		}
	case *Macro:
		add(n.Expr)
	case *SelectQuery:
		for _, m := range n.With {
			out = append(out, m)
		}
		for _, e := range n.Select {
			add(e)
		}
		if n.SelectFrom != nil {
			add(n.SelectFrom)
		}
		add(n.Prewhere)
		add(n.Where)
		for _, e := range n.GroupBy {
			add(e)
		}
		add(n.Having)
		for _, o := range n.OrderBy {
			add(o)
		}
		add(n.Limit)
		add(n.Offset)
	case *SelectUnionQuery:
		for _, q := range n.SelectQueries {
			add(q)
		}
	}
	return out
}

// Walk visits n and its descendants depth first. When fn returns false the
// children of that node are skipped.
func Walk(n Node, fn func(Node) (bool, error)) error {
	descend, err := fn(n)
	if err != nil || !descend {
		return err
	}
	for _, c := range Children(n) {
		if err := Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Inspect is Walk for callbacks that cannot fail.
func Inspect(n Node, fn func(Node) bool) {
	_ = Walk(n, func(n Node) (bool, error) { return fn(n), nil })
}
