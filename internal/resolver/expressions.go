package resolver

import (
	"github.com/zoobzio/eventql/internal/types"
)

func (r *Resolver) VisitConstant(n *types.Constant) (types.Type, error) {
	return &types.ConstantType{DataType: types.DataTypeOf(n.Value)}, nil
}

func (r *Resolver) VisitField(n *types.Field) (types.Type, error) {
	return r.lookup(n.Chain)
}

func (r *Resolver) VisitPlaceholder(n *types.Placeholder) (types.Type, error) {
	return nil, types.StructuralError{Node: "Placeholder", Attribute: n.Name, Reason: "no value supplied"}
}

func (r *Resolver) VisitCall(n *types.Call) (types.Type, error) {
	if err := types.CheckCall(n.Name, len(n.Args)); err != nil {
		return nil, err
	}
	args, err := r.exprs(n.Args)
	if err != nil {
		return nil, err
	}
	return &types.CallType{Name: n.Name, ArgTypes: args}, nil
}

func (r *Resolver) VisitBinaryOperation(n *types.BinaryOperation) (types.Type, error) {
	return r.call(n.Op.FunctionName(), n.Left, n.Right)
}

func (r *Resolver) VisitCompareOperation(n *types.CompareOperation) (types.Type, error) {
	return r.call(n.Op.FunctionName(), n.Left, n.Right)
}

func (r *Resolver) VisitAnd(n *types.And) (types.Type, error) {
	return r.call("and", n.Exprs...)
}

func (r *Resolver) VisitOr(n *types.Or) (types.Type, error) {
	return r.call("or", n.Exprs...)
}

func (r *Resolver) VisitNot(n *types.Not) (types.Type, error) {
	return r.call("not", n.Expr)
}

func (r *Resolver) VisitArray(n *types.Array) (types.Type, error) {
	return r.call("array", n.Exprs...)
}

func (r *Resolver) VisitTuple(n *types.Tuple) (types.Type, error) {
	return r.call("tuple", n.Exprs...)
}

func (r *Resolver) VisitArrayAccess(n *types.ArrayAccess) (types.Type, error) {
	return r.call("arrayElement", n.Array, n.Index)
}

func (r *Resolver) VisitTupleAccess(n *types.TupleAccess) (types.Type, error) {
	return r.call("tupleElement", n.Tuple)
}

// VisitLambda makes the arguments visible to the body only.
func (r *Resolver) VisitLambda(n *types.Lambda) (types.Type, error) {
	frame := make(map[string]bool, len(n.Args))
	for _, arg := range n.Args {
		frame[arg] = true
	}
	r.lambdas = append(r.lambdas, frame)
	defer func() { r.lambdas = r.lambdas[:len(r.lambdas)-1] }()
	return r.call("lambda", n.Expr)
}

// VisitAlias declares an alias in the current select list. A second
// declaration of the same name must alias an identical expression.
func (r *Resolver) VisitAlias(n *types.Alias) (types.Type, error) {
	if r.clause != clauseSelect {
		return nil, types.AliasPlacementError{Alias: n.Alias, Clause: r.clause}
	}
	s := r.top()
	prev, declared := s.aliases[n.Alias]
	if declared && prev != n && !types.EqualIgnoringTypes(prev.Expr, n.Expr) {
		return nil, types.DuplicateAliasError{Alias: n.Alias, Scope: r.scopeNames()}
	}
	t, err := r.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	if declared {
		return s.typ.Aliases[n.Alias], nil
	}
	typ := &types.FieldAliasType{Alias: n.Alias, Type: t}
	s.aliases[n.Alias] = n
	s.typ.Aliases[n.Alias] = typ
	return typ, nil
}

func (r *Resolver) VisitOrderExpr(n *types.OrderExpr) (types.Type, error) {
	return r.expr(n.Expr)
}

func (r *Resolver) call(name string, args ...types.Expr) (types.Type, error) {
	argTypes, err := r.exprs(args)
	if err != nil {
		return nil, err
	}
	return &types.CallType{Name: name, ArgTypes: argTypes}, nil
}
