package types

// Node is any element of a query tree. The set of shapes is closed: only
// the structs in this package implement it.
type Node interface {
	node()
}

// Expr is a node that the resolver annotates with a Type.
type Expr interface {
	Node
	GetType() Type
	SetType(Type)
}

// Constant is a literal value. Supported values are nil, bool, string,
// signed and unsigned integers, floats, time.Time, uuid.UUID and []any of
// those.
type Constant struct {
	Value any
	Type  Type
}

// Field references a column, alias, table or property through a dotted
// chain such as ["events", "properties", "$browser"].
type Field struct {
	Chain []string
	Type  Type
}

// Placeholder marks a slot filled in by ReplacePlaceholders before
// resolution.
type Placeholder struct {
	Name string
	Type Type
}

// Call is a function call. Distinct marks count(DISTINCT x) style calls.
type Call struct {
	Name     string
	Args     []Expr
	Distinct bool
	Type     Type
}

// BinaryOperation is an arithmetic operation.
type BinaryOperation struct {
	Left  Expr
	Right Expr
	Op    BinaryOperationOp
	Type  Type
}

// CompareOperation is a comparison between two expressions.
type CompareOperation struct {
	Left  Expr
	Right Expr
	Op    CompareOperationOp
	Type  Type
}

// And is a conjunction of one or more expressions.
type And struct {
	Exprs []Expr
	Type  Type
}

// Or is a disjunction of one or more expressions.
type Or struct {
	Exprs []Expr
	Type  Type
}

// Not negates an expression.
type Not struct {
	Expr Expr
	Type Type
}

// Array is an array literal built from expressions.
type Array struct {
	Exprs []Expr
	Type  Type
}

// Tuple is a tuple literal built from expressions.
type Tuple struct {
	Exprs []Expr
	Type  Type
}

// ArrayAccess indexes into an array: arr[index].
type ArrayAccess struct {
	Array Expr
	Index Expr
	Type  Type
}

// TupleAccess reads a tuple element by 1-based position: tup.1.
type TupleAccess struct {
	Tuple Expr
	Index int
	Type  Type
}

// Lambda is an anonymous function passed to higher-order calls.
type Lambda struct {
	Args []string
	Expr Expr
	Type Type
}

// Alias names an expression.
type Alias struct {
	Alias string
	Expr  Expr
	Type  Type
}

// OrderExpr is one ORDER BY entry.
type OrderExpr struct {
	Expr  Expr
	Order Order
	Type  Type
}

// JoinExpr is one link of a FROM/JOIN chain. The first link has an empty
// JoinType and no Constraint. Table is a *Field naming a table or macro, a
// *SelectQuery, a *SelectUnionQuery, or a *Placeholder before substitution.
type JoinExpr struct {
	JoinType   string
	Table      Expr
	Alias      string
	Final      bool
	Sample     *SampleExpr
	Constraint Expr
	Next       *JoinExpr
	Type       Type
}

// SampleExpr is a SAMPLE clause. It stays untyped after resolution.
type SampleExpr struct {
	Ratio  *RatioExpr
	Offset *RatioExpr
	Type   Type
}

// RatioExpr is a sampling ratio, left or left/right. It stays untyped after
// resolution.
type RatioExpr struct {
	Left  *Constant
	Right *Constant
	Type  Type
}

// Macro is a WITH entry. Column macros bind an expression to a name,
// subquery macros bind a select to a name usable as a table.
type Macro struct {
	Name string
	Expr Expr
	Kind MacroKind
}

// SelectQuery is a single SELECT statement.
type SelectQuery struct {
	With       []*Macro
	Select     []Expr
	Distinct   bool
	SelectFrom *JoinExpr
	Prewhere   Expr
	Where      Expr
	GroupBy    []Expr
	Having     Expr
	OrderBy    []*OrderExpr
	Limit      Expr
	Offset     Expr
	Type       Type
}

// SelectUnionQuery is a UNION ALL of select statements.
type SelectUnionQuery struct {
	SelectQueries []*SelectQuery
	Type          Type
}

func (*Constant) node() {}
func (*Field) node() {}
func (*Placeholder) node() {}
func (*Call) node() {}
func (*BinaryOperation) node() {}
func (*CompareOperation) node() {}
func (*And) node() {}
func (*Or) node() {}
func (*Not) node() {}
func (*Array) node() {}
func (*Tuple) node() {}
func (*ArrayAccess) node() {}
func (*TupleAccess) node() {}
func (*Lambda) node() {}
func (*Alias) node() {}
func (*OrderExpr) node() {}
func (*JoinExpr) node() {}
func (*SampleExpr) node() {}
func (*RatioExpr) node() {}
func (*Macro) node() {}
func (*SelectQuery) node() {}
func (*SelectUnionQuery) node() {}

func (n *Constant) GetType() Type { return n.Type }
func (n *Field) GetType() Type { return n.Type }
func (n *Placeholder) GetType() Type { return n.Type }
func (n *Call) GetType() Type { return n.Type }
func (n *BinaryOperation) GetType() Type { return n.Type }
func (n *CompareOperation) GetType() Type { return n.Type }
func (n *And) GetType() Type { return n.Type }
func (n *Or) GetType() Type { return n.Type }
func (n *Not) GetType() Type { return n.Type }
func (n *Array) GetType() Type { return n.Type }
func (n *Tuple) GetType() Type { return n.Type }
func (n *ArrayAccess) GetType() Type { return n.Type }
func (n *TupleAccess) GetType() Type { return n.Type }
func (n *Lambda) GetType() Type { return n.Type }
func (n *Alias) GetType() Type { return n.Type }
func (n *OrderExpr) GetType() Type { return n.Type }
func (n *JoinExpr) GetType() Type { return n.Type }
func (n *SampleExpr) GetType() Type { return n.Type }
func (n *RatioExpr) GetType() Type { return n.Type }
func (n *SelectQuery) GetType() Type { return n.Type }
func (n *SelectUnionQuery) GetType() Type { return n.Type }

func (n *Constant) SetType(t Type) { n.Type = t }
func (n *Field) SetType(t Type) { n.Type = t }
func (n *Placeholder) SetType(t Type) { n.Type = t }
func (n *Call) SetType(t Type) { n.Type = t }
func (n *BinaryOperation) SetType(t Type) { n.Type = t }
func (n *CompareOperation) SetType(t Type) { n.Type = t }
func (n *And) SetType(t Type) { n.Type = t }
func (n *Or) SetType(t Type) { n.Type = t }
func (n *Not) SetType(t Type) { n.Type = t }
func (n *Array) SetType(t Type) { n.Type = t }
func (n *Tuple) SetType(t Type) { n.Type = t }
func (n *ArrayAccess) SetType(t Type) { n.Type = t }
func (n *TupleAccess) SetType(t Type) { n.Type = t }
func (n *Lambda) SetType(t Type) { n.Type = t }
func (n *Alias) SetType(t Type) { n.Type = t }
func (n *OrderExpr) SetType(t Type) { n.Type = t }
func (n *JoinExpr) SetType(t Type) { n.Type = t }
func (n *SampleExpr) SetType(t Type) { n.Type = t }
func (n *RatioExpr) SetType(t Type) { n.Type = t }
func (n *SelectQuery) SetType(t Type) { n.Type = t }
func (n *SelectUnionQuery) SetType(t Type) { n.Type = t }

// ShapeOf returns the shape name of a node, e.g. "SelectQuery".
func ShapeOf(n Node) string {
	switch n.(type) {
	case *Constant:
		return "Constant"
	case *Field:
		return "Field"
	case *Placeholder:
		return "Placeholder"
	case *Call:
		return "Call"
	case *BinaryOperation:
		return "BinaryOperation"
	case *CompareOperation:
		return "CompareOperation"
	case *And:
		return "And"
	case *Or:
		return "Or"
	case *Not:
		return "Not"
	case *Array:
		return "Array"
	case *Tuple:
		return "Tuple"
	case *ArrayAccess:
		return "ArrayAccess"
	case *TupleAccess:
		return "TupleAccess"
	case *Lambda:
		return "Lambda"
	case *Alias:
		return "Alias"
	case *OrderExpr:
		return "OrderExpr"
	case *JoinExpr:
		return "JoinExpr"
	case *SampleExpr:
		return "SampleExpr"
	case *RatioExpr:
		return "RatioExpr"
	case *Macro:
		return "Macro"
	case *SelectQuery:
		return "SelectQuery"
	case *SelectUnionQuery:
		return "SelectUnionQuery"
	}
	return "Unknown"
}

// Joins returns the links of a FROM/JOIN chain in order.
func (q *SelectQuery) Joins() []*JoinExpr {
	var out []*JoinExpr
	for j := q.SelectFrom; j != nil; j = j.Next {
		out = append(out, j)
	}
	return out
}

// AppendJoin adds a link to the end of the FROM/JOIN chain.
func (q *SelectQuery) AppendJoin(j *JoinExpr) {
	if q.SelectFrom == nil {
		q.SelectFrom = j
		return
	}
	last := q.SelectFrom
	for last.Next != nil {
		last = last.Next
	}
	last.Next = j
}
