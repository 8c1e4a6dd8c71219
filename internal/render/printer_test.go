package render

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

func testDialect(caps Capabilities) *Base {
	return &Base{
		DialectName: "test",
		Caps:        caps,
		IdentQuote:  '"',
		True:        "TRUE",
		False:       "FALSE",
		Functions: map[string]string{
			"toDateTime/1": "CAST(%s AS TIMESTAMP)",
			"array":        "ARRAY[{args}]",
			"lower":        "lower",
		},
	}
}

func constant(v any) *types.Constant {
	return &types.Constant{Value: v, Type: &types.ConstantType{DataType: "Int"}}
}

func compare(op types.CompareOperationOp, left, right types.Expr) *types.CompareOperation {
	return &types.CompareOperation{Left: left, Right: right, Op: op, Type: &types.ConstantType{DataType: "Bool"}}
}

func printWith(t *testing.T, d Dialect, n types.Node) (string, error) {
	t.Helper()
	return Print(n, d, Context{Database: schema.NewDatabase()})
}

func TestPrint_NoDatabase(t *testing.T) {
	_, err := Print(constant(1), testDialect(Capabilities{}), Context{})
	if err == nil {
		t.Fatal("expected error without a database")
	}
}

func TestPrint_NoDialect(t *testing.T) {
	_, err := Print(constant(1), nil, Context{Database: schema.NewDatabase()})
	if err == nil {
		t.Fatal("expected error without a dialect")
	}
}

func TestPrint_Unresolved(t *testing.T) {
	_, err := printWith(t, testDialect(Capabilities{}), &types.Constant{Value: 1})

	var unresolved UnresolvedNodeError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedNodeError, got %v", err)
	}
	if unresolved.Node != "Constant" {
		t.Errorf("Node = %q, want Constant", unresolved.Node)
	}
	if !errors.Is(err, types.ErrPrint) {
		t.Error("expected error to wrap ErrPrint")
	}
}

func TestPrint_Constants(t *testing.T) {
	d := testDialect(Capabilities{})
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"null", nil, "NULL"},
		{"true", true, "TRUE"},
		{"int", 42, "42"},
		{"whole float", 2.0, "2.0"},
		{"float", 1.5, "1.5"},
		{"string", "it's", "'it''s'"},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "CAST('2024-01-02 03:04:05' AS TIMESTAMP)"},
		{"list", []any{1, "a"}, "ARRAY[1, 'a']"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := printWith(t, d, constant(tt.value))
			if err != nil {
				t.Fatalf("Print() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrint_NonFiniteFloat(t *testing.T) {
	_, err := printWith(t, testDialect(Capabilities{}), constant(math.Inf(1)))
	var unsupported UnsupportedNodeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedNodeError, got %v", err)
	}
	if unsupported.Node != "non-finite number" {
		t.Errorf("Node = %q", unsupported.Node)
	}
}

func TestPrint_NullComparisons(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		op   types.CompareOperationOp
		want string
	}{
		{"is null", Capabilities{}, types.Eq, "1 IS NULL"},
		{"is not null", Capabilities{}, types.NotEq, "1 IS NOT NULL"},
		{"isNull", Capabilities{FunctionOperators: true}, types.Eq, "isNull(1)"},
		{"isNotNull", Capabilities{FunctionOperators: true}, types.NotEq, "isNotNull(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := printWith(t, testDialect(tt.caps), compare(tt.op, constant(nil), constant(1)))
			if err != nil {
				t.Fatalf("Print() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrint_Logical(t *testing.T) {
	boolType := &types.ConstantType{DataType: "Bool"}
	gt := compare(types.Gt, constant(1), constant(2))
	lt := compare(types.Lt, constant(3), constant(4))

	tests := []struct {
		name string
		caps Capabilities
		node types.Expr
		want string
	}{
		{"single child", Capabilities{}, &types.And{Exprs: []types.Expr{gt}, Type: boolType}, "1 > 2"},
		{"empty and", Capabilities{}, &types.And{Type: boolType}, "TRUE"},
		{"empty or", Capabilities{}, &types.Or{Type: boolType}, "FALSE"},
		{"infix", Capabilities{}, &types.And{Exprs: []types.Expr{gt, lt}, Type: boolType}, "(1 > 2) AND (3 < 4)"},
		{"functions", Capabilities{FunctionOperators: true}, &types.Or{Exprs: []types.Expr{gt, lt}, Type: boolType}, "or(greater(1, 2), less(3, 4))"},
		{"negative operand", Capabilities{}, compare(types.Gt, constant(-1), constant(0)), "(-1) > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := printWith(t, testDialect(tt.caps), tt.node)
			if err != nil {
				t.Fatalf("Print() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrint_EmptyInList(t *testing.T) {
	empty := &types.Array{Type: &types.ConstantType{DataType: "Array"}}
	tests := []struct {
		name string
		caps Capabilities
		op   types.CompareOperationOp
		want string
	}{
		{"in", Capabilities{}, types.In, "1 = 0"},
		{"not in", Capabilities{}, types.NotIn, "1 = 1"},
		{"in function", Capabilities{FunctionOperators: true}, types.In, "equals(1, 0)"},
		{"not in function", Capabilities{FunctionOperators: true}, types.NotIn, "equals(1, 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := printWith(t, testDialect(tt.caps), compare(tt.op, constant("a"), empty))
			if err != nil {
				t.Fatalf("Print() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrint_MissingOperator(t *testing.T) {
	d := testDialect(Capabilities{})
	d.Operators = map[types.CompareOperationOp]string{types.Eq: "="}

	_, err := printWith(t, d, compare(types.ILike, constant("a"), constant("b")))
	var unsupported UnsupportedNodeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedNodeError, got %v", err)
	}
	if unsupported.Node != "operator ilike" {
		t.Errorf("Node = %q", unsupported.Node)
	}
}

func TestPrint_Placeholder(t *testing.T) {
	_, err := printWith(t, testDialect(Capabilities{}), &types.Placeholder{Name: "x", Type: &types.ConstantType{}})
	if !errors.Is(err, types.ErrPrint) {
		t.Fatalf("expected ErrPrint, got %v", err)
	}
	if !strings.Contains(err.Error(), "placeholder {x}") {
		t.Errorf("unexpected message: %v", err)
	}
}

func pagedQuery(order bool, limit, offset types.Expr) *types.SelectQuery {
	q := &types.SelectQuery{
		Select: []types.Expr{constant(1)},
		Limit:  limit,
		Offset: offset,
		Type:   types.NewSelectQueryType(),
	}
	if order {
		q.OrderBy = []*types.OrderExpr{{Expr: constant(1), Type: &types.ConstantType{}}}
	}
	return q
}

func TestPrint_Paging(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		d    func(*Base)
		q    *types.SelectQuery
		want string
	}{
		{"limit", Capabilities{}, nil, pagedQuery(false, constant(5), nil), "SELECT 1 LIMIT 5"},
		{"offset alone", Capabilities{}, nil, pagedQuery(false, nil, constant(2)), "SELECT 1 OFFSET 2"},
		{"unbounded limit", Capabilities{}, func(b *Base) { b.Limit = "-1" }, pagedQuery(false, nil, constant(2)), "SELECT 1 LIMIT -1 OFFSET 2"},
		{"fetch", Capabilities{FetchPaging: true}, nil, pagedQuery(true, constant(5), constant(2)), "SELECT 1 ORDER BY 1 ASC OFFSET 2 ROWS FETCH NEXT 5 ROWS ONLY"},
		{"fetch without offset", Capabilities{FetchPaging: true}, nil, pagedQuery(true, constant(5), nil), "SELECT 1 ORDER BY 1 ASC OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY"},
		{"fetch unpaged", Capabilities{FetchPaging: true}, nil, pagedQuery(false, nil, nil), "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDialect(tt.caps)
			if tt.d != nil {
				tt.d(d)
			}
			got, err := printWith(t, d, tt.q)
			if err != nil {
				t.Fatalf("Print() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrint_FetchRequiresOrder(t *testing.T) {
	_, err := printWith(t, testDialect(Capabilities{FetchPaging: true}), pagedQuery(false, constant(5), nil))
	var unsupported UnsupportedNodeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedNodeError, got %v", err)
	}
	if unsupported.Node != "LIMIT without ORDER BY" {
		t.Errorf("Node = %q", unsupported.Node)
	}
}

func TestBase_Call(t *testing.T) {
	b := &Base{
		DialectName: "test",
		Functions: map[string]string{
			"count/0":   "count(*)",
			"uniq/1":    "count(DISTINCT %s)",
			"has/2":     "(%[2]s = ANY(%[1]s))",
			"tuple":     "({args})",
			"substring": "substr",
		},
	}
	tests := []struct {
		name string
		fn   string
		args []string
		want string
	}{
		{"zero arity", "count", nil, "count(*)"},
		{"pattern", "uniq", []string{"x"}, "count(DISTINCT x)"},
		{"indexed pattern", "has", []string{"arr", "1"}, "(1 = ANY(arr))"},
		{"args template", "tuple", []string{"1", "2"}, "(1, 2)"},
		{"rename", "substring", []string{"s", "1", "2"}, "substr(s, 1, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Call(tt.fn, tt.args)
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Call() = %q, want %q", got, tt.want)
			}
		})
	}

	_, err := b.Call("uniq", []string{"a", "b"})
	var unsupported UnsupportedNodeError
	if !errors.As(err, &unsupported) || unsupported.Node != "function uniq" {
		t.Errorf("expected unsupported uniq/2, got %v", err)
	}

	b.Caps.PassthroughFunctions = true
	got, err := b.Call("anything", []string{"a"})
	if err != nil || got != "anything(a)" {
		t.Errorf("Call() passthrough = %q, %v", got, err)
	}
}

func TestBase_Quoting(t *testing.T) {
	b := &Base{
		IdentQuote: '`',
		Reserved:   func(s string) bool { return strings.EqualFold(s, "select") },
	}
	tests := []struct {
		in   string
		want string
	}{
		{"event", "event"},
		{"$browser", "`$browser`"},
		{"select", "`select`"},
		{"a`b", "`a``b`"},
	}
	for _, tt := range tests {
		if got := b.QuoteIdentifier(tt.in); got != tt.want {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	b.Caps.AlwaysQuote = true
	if got := b.QuoteIdentifier("event"); got != "`event`" {
		t.Errorf("QuoteIdentifier with AlwaysQuote = %q", got)
	}

	if got := b.QuoteString("a'b"); got != "'a''b'" {
		t.Errorf("QuoteString() = %q", got)
	}
	b.Caps.BackslashEscapes = true
	if got := b.QuoteString("a'b\\\n"); got != `'a\'b\\\n'` {
		t.Errorf("QuoteString() with backslashes = %q", got)
	}
}

func TestJSONPath(t *testing.T) {
	if got := JSONPath([]string{"a", `b"c`}); got != `$."a"."b\"c"` {
		t.Errorf("JSONPath() = %q", got)
	}
}
