package types

import "reflect"

// cloner copies a tree without its types, splicing placeholder values when
// a value map is set.
type cloner struct {
	values map[string]Expr
}

// Clone returns an unresolved deep copy of n.
func Clone[N Node](n N) N {
	out, err := Visit[Node](&cloner{}, n)
	if err != nil {
		// Only placeholder substitution can fail.
		panic(err)
	}
	return out.(N)
}

// ReplacePlaceholders returns an unresolved copy of n in which every
// Placeholder is replaced by a copy of the matching value. A placeholder
// without a value is a StructuralError.
func ReplacePlaceholders(n Expr, values map[string]Expr) (Expr, error) {
	if values == nil {
		values = map[string]Expr{}
	}
	out, err := Visit[Node](&cloner{values: values}, n)
	if err != nil {
		return nil, err
	}
	return out.(Expr), nil
}

// EqualIgnoringTypes reports whether two trees have the same shape and
// values regardless of resolution.
func EqualIgnoringTypes(a, b Node) bool {
	return reflect.DeepEqual(Clone(a), Clone(b))
}

func (c *cloner) expr(e Expr) (Expr, error) {
	if e == nil || reflect.ValueOf(e).IsNil() {
		return nil, nil
	}
	out, err := Visit[Node](c, e)
	if err != nil {
		return nil, err
	}
	return out.(Expr), nil
}

func (c *cloner) exprs(in []Expr) ([]Expr, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		var err error
		if out[i], err = c.expr(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *cloner) constant(n *Constant) *Constant {
	if n == nil {
		return nil
	}
	return &Constant{Value: cloneValue(n.Value)}
}

func cloneValue(v any) any {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

func (c *cloner) VisitConstant(n *Constant) (Node, error) {
	return c.constant(n), nil
}

func (c *cloner) VisitField(n *Field) (Node, error) {
	return &Field{Chain: append([]string(nil), n.Chain...)}, nil
}

func (c *cloner) VisitPlaceholder(n *Placeholder) (Node, error) {
	if c.values == nil {
		return &Placeholder{Name: n.Name}, nil
	}
	v, ok := c.values[n.Name]
	if !ok {
		return nil, StructuralError{Node: "Placeholder", Attribute: n.Name, Reason: "no value supplied"}
	}
	// Values are spliced as written; placeholders inside them stay literal.
	return Visit[Node](&cloner{}, v)
}

func (c *cloner) VisitCall(n *Call) (Node, error) {
	args, err := c.exprs(n.Args)
	if err != nil {
		return nil, err
	}
	return &Call{Name: n.Name, Args: args, Distinct: n.Distinct}, nil
}

func (c *cloner) VisitBinaryOperation(n *BinaryOperation) (Node, error) {
	left, err := c.expr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.expr(n.Right)
	if err != nil {
		return nil, err
	}
	return &BinaryOperation{Left: left, Right: right, Op: n.Op}, nil
}

func (c *cloner) VisitCompareOperation(n *CompareOperation) (Node, error) {
	left, err := c.expr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.expr(n.Right)
	if err != nil {
		return nil, err
	}
	return &CompareOperation{Left: left, Right: right, Op: n.Op}, nil
}

func (c *cloner) VisitAnd(n *And) (Node, error) {
	exprs, err := c.exprs(n.Exprs)
	if err != nil {
		return nil, err
	}
	return &And{Exprs: exprs}, nil
}

func (c *cloner) VisitOr(n *Or) (Node, error) {
	exprs, err := c.exprs(n.Exprs)
	if err != nil {
		return nil, err
	}
	return &Or{Exprs: exprs}, nil
}

func (c *cloner) VisitNot(n *Not) (Node, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return &Not{Expr: e}, nil
}

func (c *cloner) VisitArray(n *Array) (Node, error) {
	exprs, err := c.exprs(n.Exprs)
	if err != nil {
		return nil, err
	}
	return &Array{Exprs: exprs}, nil
}

func (c *cloner) VisitTuple(n *Tuple) (Node, error) {
	exprs, err := c.exprs(n.Exprs)
	if err != nil {
		return nil, err
	}
	return &Tuple{Exprs: exprs}, nil
}

func (c *cloner) VisitArrayAccess(n *ArrayAccess) (Node, error) {
	arr, err := c.expr(n.Array)
	if err != nil {
		return nil, err
	}
	idx, err := c.expr(n.Index)
	if err != nil {
		return nil, err
	}
	return &ArrayAccess{Array: arr, Index: idx}, nil
}

func (c *cloner) VisitTupleAccess(n *TupleAccess) (Node, error) {
	tup, err := c.expr(n.Tuple)
	if err != nil {
		return nil, err
	}
	return &TupleAccess{Tuple: tup, Index: n.Index}, nil
}

func (c *cloner) VisitLambda(n *Lambda) (Node, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return &Lambda{Args: append([]string(nil), n.Args...), Expr: e}, nil
}

func (c *cloner) VisitAlias(n *Alias) (Node, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return &Alias{Alias: n.Alias, Expr: e}, nil
}

func (c *cloner) VisitOrderExpr(n *OrderExpr) (Node, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return &OrderExpr{Expr: e, Order: n.Order}, nil
}

func (c *cloner) VisitJoinExpr(n *JoinExpr) (Node, error) {
	table, err := c.expr(n.Table)
	if err != nil {
		return nil, err
	}
	constraint, err := c.expr(n.Constraint)
	if err != nil {
		return nil, err
	}
	out := &JoinExpr{
		JoinType:   n.JoinType,
		Table:      table,
		Alias:      n.Alias,
		Final:      n.Final,
		Constraint: constraint,
	}
	if n.Sample != nil {
		s, err := c.VisitSampleExpr(n.Sample)
		if err != nil {
			return nil, err
		}
		out.Sample = s.(*SampleExpr)
	}
	if n.Next != nil {
		next, err := c.VisitJoinExpr(n.Next)
		if err != nil {
			return nil, err
		}
		out.Next = next.(*JoinExpr)
	}
	return out, nil
}

func (c *cloner) VisitSampleExpr(n *SampleExpr) (Node, error) {
	out := &SampleExpr{}
	if n.Ratio != nil {
		r, _ := c.VisitRatioExpr(n.Ratio)
		out.Ratio = r.(*RatioExpr)
	}
	if n.Offset != nil {
		r, _ := c.VisitRatioExpr(n.Offset)
		out.Offset = r.(*RatioExpr)
	}
	return out, nil
}

func (c *cloner) VisitRatioExpr(n *RatioExpr) (Node, error) {
	return &RatioExpr{Left: c.constant(n.Left), Right: c.constant(n.Right)}, nil
}

func (c *cloner) VisitMacro(n *Macro) (Node, error) {
	e, err := c.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return &Macro{Name: n.Name, Expr: e, Kind: n.Kind}, nil
}

func (c *cloner) VisitSelectQuery(n *SelectQuery) (Node, error) {
	out := &SelectQuery{Distinct: n.Distinct}
	var err error
	if n.With != nil {
		out.With = make([]*Macro, len(n.With))
		for i, m := range n.With {
			cm, err := c.VisitMacro(m)
			if err != nil {
				return nil, err
			}
			out.With[i] = cm.(*Macro)
		}
	}
	if out.Select, err = c.exprs(n.Select); err != nil {
		return nil, err
	}
	if n.SelectFrom != nil {
		j, err := c.VisitJoinExpr(n.SelectFrom)
		if err != nil {
			return nil, err
		}
		out.SelectFrom = j.(*JoinExpr)
	}
	if out.Prewhere, err = c.expr(n.Prewhere); err != nil {
		return nil, err
	}
	if out.Where, err = c.expr(n.Where); err != nil {
		return nil, err
	}
	if out.GroupBy, err = c.exprs(n.GroupBy); err != nil {
		return nil, err
	}
	if out.Having, err = c.expr(n.Having); err != nil {
		return nil, err
	}
	if n.OrderBy != nil {
		out.OrderBy = make([]*OrderExpr, len(n.OrderBy))
		for i, o := range n.OrderBy {
			co, err := c.VisitOrderExpr(o)
			if err != nil {
				return nil, err
			}
			out.OrderBy[i] = co.(*OrderExpr)
		}
	}
	if out.Limit, err = c.expr(n.Limit); err != nil {
		return nil, err
	}
	if out.Offset, err = c.expr(n.Offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cloner) VisitSelectUnionQuery(n *SelectUnionQuery) (Node, error) {
	out := &SelectUnionQuery{SelectQueries: make([]*SelectQuery, len(n.SelectQueries))}
	for i, q := range n.SelectQueries {
		cq, err := c.VisitSelectQuery(q)
		if err != nil {
			return nil, err
		}
		out.SelectQueries[i] = cq.(*SelectQuery)
	}
	return out, nil
}
