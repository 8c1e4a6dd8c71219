package types

// CompareOperationOp represents comparison operators.
type CompareOperationOp string

const (
	Eq       CompareOperationOp = "=="
	NotEq    CompareOperationOp = "!="
	Gt       CompareOperationOp = ">"
	GtE      CompareOperationOp = ">="
	Lt       CompareOperationOp = "<"
	LtE      CompareOperationOp = "<="
	Like     CompareOperationOp = "like"
	ILike    CompareOperationOp = "ilike"
	NotLike  CompareOperationOp = "not like"
	NotILike CompareOperationOp = "not ilike"
	In       CompareOperationOp = "in"
	NotIn    CompareOperationOp = "not in"
)

var compareFunctions = map[CompareOperationOp]string{
	Eq:       "equals",
	NotEq:    "notEquals",
	Gt:       "greater",
	GtE:      "greaterOrEquals",
	Lt:       "less",
	LtE:      "lessOrEquals",
	Like:     "like",
	ILike:    "ilike",
	NotLike:  "notLike",
	NotILike: "notILike",
	In:       "in",
	NotIn:    "notIn",
}

// Valid reports whether op is a known comparison operator.
func (op CompareOperationOp) Valid() bool {
	_, ok := compareFunctions[op]
	return ok
}

// FunctionName returns the function form of the operator, e.g. "equals".
func (op CompareOperationOp) FunctionName() string {
	return compareFunctions[op]
}

// Negate returns the operator with the opposite meaning for operators that
// have one.
func (op CompareOperationOp) Negate() (CompareOperationOp, bool) {
	switch op {
	case Eq:
		return NotEq, true
	case NotEq:
		return Eq, true
	case Like:
		return NotLike, true
	case NotLike:
		return Like, true
	case ILike:
		return NotILike, true
	case NotILike:
		return ILike, true
	case In:
		return NotIn, true
	case NotIn:
		return In, true
	}
	return op, false
}

// BinaryOperationOp represents arithmetic operators.
type BinaryOperationOp string

const (
	Add  BinaryOperationOp = "+"
	Sub  BinaryOperationOp = "-"
	Mult BinaryOperationOp = "*"
	Div  BinaryOperationOp = "/"
	Mod  BinaryOperationOp = "%"
)

var binaryFunctions = map[BinaryOperationOp]string{
	Add:  "plus",
	Sub:  "minus",
	Mult: "multiply",
	Div:  "divide",
	Mod:  "modulo",
}

// Valid reports whether op is a known arithmetic operator.
func (op BinaryOperationOp) Valid() bool {
	_, ok := binaryFunctions[op]
	return ok
}

// FunctionName returns the function form of the operator, e.g. "plus".
func (op BinaryOperationOp) FunctionName() string {
	return binaryFunctions[op]
}

// Order represents sort direction.
type Order string

const (
	ASC  Order = "ASC"
	DESC Order = "DESC"
)

// MacroKind distinguishes WITH entries.
type MacroKind string

const (
	ColumnMacro   MacroKind = "column"
	SubqueryMacro MacroKind = "subquery"
)
