package types

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Validate checks the shape of every node in the tree.
func Validate(n Node) error {
	return Walk(n, func(n Node) (bool, error) {
		return true, validateNode(n)
	})
}

func missing(e Expr) bool {
	return e == nil || reflect.ValueOf(e).IsNil()
}

func structural(n Node, attr, format string, args ...any) error {
	return StructuralError{Node: ShapeOf(n), Attribute: attr, Reason: fmt.Sprintf(format, args...)}
}

func validateList(n Node, attr string, exprs []Expr, min int) error {
	if len(exprs) < min {
		return structural(n, attr, "needs at least %d expressions", min)
	}
	for i, e := range exprs {
		if missing(e) {
			return structural(n, attr, "element %d is nil", i)
		}
	}
	return nil
}

func validateNode(n Node) error {
	switch n := n.(type) {
	case *Constant:
		if !ValidConstant(n.Value) {
			return structural(n, "Value", "unsupported constant type %T", n.Value)
		}
	case *Field:
		if len(n.Chain) == 0 {
			return structural(n, "Chain", "must not be empty")
		}
		for i, part := range n.Chain {
			if part == "" {
				return structural(n, "Chain", "segment %d is empty", i)
			}
			if part == "*" && i != len(n.Chain)-1 {
				return structural(n, "Chain", "* must be the last segment")
			}
		}
	case *Placeholder:
		if n.Name == "" {
			return structural(n, "Name", "must not be empty")
		}
	case *Call:
		if n.Name == "" {
			return structural(n, "Name", "must not be empty")
		}
		return validateList(n, "Args", n.Args, 0)
	case *BinaryOperation:
		if !n.Op.Valid() {
			return structural(n, "Op", "unknown operator %q", n.Op)
		}
		if missing(n.Left) || missing(n.Right) {
			return structural(n, "", "needs both operands")
		}
	case *CompareOperation:
		if !n.Op.Valid() {
			return structural(n, "Op", "unknown operator %q", n.Op)
		}
		if missing(n.Left) || missing(n.Right) {
			return structural(n, "", "needs both operands")
		}
	case *And:
		return validateList(n, "Exprs", n.Exprs, 1)
	case *Or:
		return validateList(n, "Exprs", n.Exprs, 1)
	case *Not:
		if missing(n.Expr) {
			return structural(n, "Expr", "must not be nil")
		}
	case *Array:
		return validateList(n, "Exprs", n.Exprs, 0)
	case *Tuple:
		return validateList(n, "Exprs", n.Exprs, 1)
	case *ArrayAccess:
		if missing(n.Array) || missing(n.Index) {
			return structural(n, "", "needs an array and an index")
		}
	case *TupleAccess:
		if missing(n.Tuple) {
			return structural(n, "Tuple", "must not be nil")
		}
		if n.Index < 1 {
			return structural(n, "Index", "must be 1 or greater")
		}
	case *Lambda:
		if len(n.Args) == 0 {
			return structural(n, "Args", "must not be empty")
		}
		seen := map[string]bool{}
		for _, a := range n.Args {
			if a == "" || seen[a] {
				return structural(n, "Args", "argument names must be unique and non-empty")
			}
			seen[a] = true
		}
		if missing(n.Expr) {
			return structural(n, "Expr", "must not be nil")
		}
	case *Alias:
		if n.Alias == "" {
			return structural(n, "Alias", "must not be empty")
		}
		if missing(n.Expr) {
			return structural(n, "Expr", "must not be nil")
		}
	case *OrderExpr:
		if n.Order != ASC && n.Order != DESC {
			return structural(n, "Order", "must be ASC or DESC, got %q", n.Order)
		}
		if missing(n.Expr) {
			return structural(n, "Expr", "must not be nil")
		}
	case *JoinExpr:
		switch n.Table.(type) {
		case *Field, *SelectQuery, *SelectUnionQuery, *Placeholder:
		default:
			return structural(n, "Table", "must be a table name or a select, got %s", shapeOrNil(n.Table))
		}
		if n.Next != nil && n.Next.JoinType == "" {
			return structural(n.Next, "JoinType", "must be set on every link after the first")
		}
	case *SampleExpr:
		if n.Ratio == nil {
			return structural(n, "Ratio", "must not be nil")
		}
	case *RatioExpr:
		if n.Left == nil {
			return structural(n, "Left", "must not be nil")
		}
		if !numeric(n.Left.Value) || (n.Right != nil && !numeric(n.Right.Value)) {
			return structural(n, "", "ratio parts must be numeric")
		}
	case *Macro:
		if n.Name == "" {
			return structural(n, "Name", "must not be empty")
		}
		if missing(n.Expr) {
			return structural(n, "Expr", "must not be nil")
		}
		switch n.Kind {
		case ColumnMacro:
		case SubqueryMacro:
			switch n.Expr.(type) {
			case *SelectQuery, *SelectUnionQuery:
			default:
				return structural(n, "Expr", "subquery macro needs a select, got %s", ShapeOf(n.Expr))
			}
		default:
			return structural(n, "Kind", "unknown macro kind %q", n.Kind)
		}
	case *SelectQuery:
		if n.SelectFrom != nil && n.SelectFrom.JoinType != "" {
			return structural(n.SelectFrom, "JoinType", "must be empty on the first link")
		}
		return validateList(n, "Select", n.Select, 1)
	case *SelectUnionQuery:
		if len(n.SelectQueries) == 0 {
			return structural(n, "SelectQueries", "must not be empty")
		}
		for i, q := range n.SelectQueries {
			if q == nil {
				return structural(n, "SelectQueries", "element %d is nil", i)
			}
		}
	}
	return nil
}

func shapeOrNil(e Expr) string {
	if missing(e) {
		return "nil"
	}
	return ShapeOf(e)
}

// ValidConstant reports whether v can be carried by a Constant.
func ValidConstant(v any) bool {
	switch v := v.(type) {
	case nil, bool, string, time.Time, uuid.UUID:
		return true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case []any:
		for _, item := range v {
			if !ValidConstant(item) {
				return false
			}
		}
		return true
	}
	return false
}

func numeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// DataTypeOf returns the ConstantType data type of a constant value.
func DataTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return DataNull
	case bool:
		return DataBoolean
	case string:
		return DataString
	case float32, float64:
		return DataFloat
	case time.Time:
		return DataDateTime
	case uuid.UUID:
		return DataUUID
	case []any:
		return DataArray
	}
	return DataInteger
}
