package types

// Visitor has one method per node shape. Visit dispatches to them.
//
// Visitors that only care about some shapes embed Unhandled to supply the
// rest.
type Visitor[T any] interface {
	VisitConstant(*Constant) (T, error)
	VisitField(*Field) (T, error)
	VisitPlaceholder(*Placeholder) (T, error)
	VisitCall(*Call) (T, error)
	VisitBinaryOperation(*BinaryOperation) (T, error)
	VisitCompareOperation(*CompareOperation) (T, error)
	VisitAnd(*And) (T, error)
	VisitOr(*Or) (T, error)
	VisitNot(*Not) (T, error)
	VisitArray(*Array) (T, error)
	VisitTuple(*Tuple) (T, error)
	VisitArrayAccess(*ArrayAccess) (T, error)
	VisitTupleAccess(*TupleAccess) (T, error)
	VisitLambda(*Lambda) (T, error)
	VisitAlias(*Alias) (T, error)
	VisitOrderExpr(*OrderExpr) (T, error)
	VisitJoinExpr(*JoinExpr) (T, error)
	VisitSampleExpr(*SampleExpr) (T, error)
	VisitRatioExpr(*RatioExpr) (T, error)
	VisitMacro(*Macro) (T, error)
	VisitSelectQuery(*SelectQuery) (T, error)
	VisitSelectUnionQuery(*SelectUnionQuery) (T, error)
}

// Visit calls the method of v matching the shape of n.
func Visit[T any](v Visitor[T], n Node) (T, error) {
	switch n := n.(type) {
	case *Constant:
		return v.VisitConstant(n)
	case *Field:
		return v.VisitField(n)
	case *Placeholder:
		return v.VisitPlaceholder(n)
	case *Call:
		return v.VisitCall(n)
	case *BinaryOperation:
		return v.VisitBinaryOperation(n)
	case *CompareOperation:
		return v.VisitCompareOperation(n)
	case *And:
		return v.VisitAnd(n)
	case *Or:
		return v.VisitOr(n)
	case *Not:
		return v.VisitNot(n)
	case *Array:
		return v.VisitArray(n)
	case *Tuple:
		return v.VisitTuple(n)
	case *ArrayAccess:
		return v.VisitArrayAccess(n)
	case *TupleAccess:
		return v.VisitTupleAccess(n)
	case *Lambda:
		return v.VisitLambda(n)
	case *Alias:
		return v.VisitAlias(n)
	case *OrderExpr:
		return v.VisitOrderExpr(n)
	case *JoinExpr:
		return v.VisitJoinExpr(n)
	case *SampleExpr:
		return v.VisitSampleExpr(n)
	case *RatioExpr:
		return v.VisitRatioExpr(n)
	case *Macro:
		return v.VisitMacro(n)
	case *SelectQuery:
		return v.VisitSelectQuery(n)
	case *SelectUnionQuery:
		return v.VisitSelectUnionQuery(n)
	}
	var zero T
	return zero, UnhandledNodeError{Node: ShapeOf(n)}
}

// Unhandled answers every shape with an UnhandledNodeError. Name is
// reported as the visitor in the error.
type Unhandled[T any] struct {
	Name string
}

func (u Unhandled[T]) fail(shape string) (T, error) {
	var zero T
	return zero, UnhandledNodeError{Node: shape, Visitor: u.Name}
}

func (u Unhandled[T]) VisitConstant(*Constant) (T, error) { return u.fail("Constant") }
func (u Unhandled[T]) VisitField(*Field) (T, error) { return u.fail("Field") }
func (u Unhandled[T]) VisitPlaceholder(*Placeholder) (T, error) { return u.fail("Placeholder") }
func (u Unhandled[T]) VisitCall(*Call) (T, error) { return u.fail("Call") }
func (u Unhandled[T]) VisitBinaryOperation(*BinaryOperation) (T, error) {
	return u.fail("BinaryOperation")
}
func (u Unhandled[T]) VisitCompareOperation(*CompareOperation) (T, error) {
	return u.fail("CompareOperation")
}
func (u Unhandled[T]) VisitAnd(*And) (T, error) { return u.fail("And") }
func (u Unhandled[T]) VisitOr(*Or) (T, error) { return u.fail("Or") }
func (u Unhandled[T]) VisitNot(*Not) (T, error) { return u.fail("Not") }
func (u Unhandled[T]) VisitArray(*Array) (T, error) { return u.fail("Array") }
func (u Unhandled[T]) VisitTuple(*Tuple) (T, error) { return u.fail("Tuple") }
func (u Unhandled[T]) VisitArrayAccess(*ArrayAccess) (T, error) { return u.fail("ArrayAccess") }
func (u Unhandled[T]) VisitTupleAccess(*TupleAccess) (T, error) { return u.fail("TupleAccess") }
func (u Unhandled[T]) VisitLambda(*Lambda) (T, error) { return u.fail("Lambda") }
func (u Unhandled[T]) VisitAlias(*Alias) (T, error) { return u.fail("Alias") }
func (u Unhandled[T]) VisitOrderExpr(*OrderExpr) (T, error) { return u.fail("OrderExpr") }
func (u Unhandled[T]) VisitJoinExpr(*JoinExpr) (T, error) { return u.fail("JoinExpr") }
func (u Unhandled[T]) VisitSampleExpr(*SampleExpr) (T, error) { return u.fail("SampleExpr") }
func (u Unhandled[T]) VisitRatioExpr(*RatioExpr) (T, error) { return u.fail("RatioExpr") }
func (u Unhandled[T]) VisitMacro(*Macro) (T, error) { return u.fail("Macro") }
func (u Unhandled[T]) VisitSelectQuery(*SelectQuery) (T, error) { return u.fail("SelectQuery") }
func (u Unhandled[T]) VisitSelectUnionQuery(*SelectUnionQuery) (T, error) {
	return u.fail("SelectUnionQuery")
}
