package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zoobzio/eventql/internal/types"
)

// Dialect turns printed fragments into the SQL of one database.
type Dialect interface {
	Name() string
	Capabilities() Capabilities
	// QuoteIdentifier quotes one identifier part.
	QuoteIdentifier(name string) string
	// QuoteString renders a string literal.
	QuoteString(s string) string
	// Bool renders a boolean literal.
	Bool(b bool) string
	// Operator returns the infix token of a comparison.
	Operator(op types.CompareOperationOp) (string, bool)
	// Call renders a function over printed arguments.
	Call(name string, args []string) (string, error)
	// Property renders a JSON path below a printed column.
	Property(column string, chain []string) string
	// UnboundedLimit is the LIMIT printed before an OFFSET without a limit,
	// or "" when OFFSET may stand alone.
	UnboundedLimit() string
}

var safeIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Base implements Dialect from data. Dialect packages fill it in and
// override Property.
//
// Functions maps a name to a template. A "name/arity" key holds a fmt
// pattern over exactly that many printed arguments. A plain "name" key
// renames the function, or, when the template holds "{args}", has it
// replaced by the comma separated arguments.
type Base struct {
	DialectName string
	Caps        Capabilities
	IdentQuote  byte
	// Reserved reports words that must be quoted even when they look like
	// plain identifiers.
	Reserved  func(string) bool
	True      string
	False     string
	Limit     string
	Operators map[types.CompareOperationOp]string
	Functions map[string]string
}

// StandardOperators are the infix comparison tokens of standard SQL.
var StandardOperators = map[types.CompareOperationOp]string{
	types.Eq:       "=",
	types.NotEq:    "!=",
	types.Gt:       ">",
	types.GtE:      ">=",
	types.Lt:       "<",
	types.LtE:      "<=",
	types.Like:     "LIKE",
	types.ILike:    "ILIKE",
	types.NotLike:  "NOT LIKE",
	types.NotILike: "NOT ILIKE",
	types.In:       "IN",
	types.NotIn:    "NOT IN",
}

func (b *Base) Name() string               { return b.DialectName }
func (b *Base) Capabilities() Capabilities { return b.Caps }
func (b *Base) UnboundedLimit() string     { return b.Limit }

func (b *Base) QuoteIdentifier(name string) string {
	if !b.Caps.AlwaysQuote && safeIdentifier.MatchString(name) && (b.Reserved == nil || !b.Reserved(name)) {
		return name
	}
	q := string(b.IdentQuote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

var backslashEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\x00", `\0`,
)

func (b *Base) QuoteString(s string) string {
	if b.Caps.BackslashEscapes {
		return "'" + backslashEscaper.Replace(s) + "'"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (b *Base) Bool(v bool) string {
	if v {
		return b.True
	}
	return b.False
}

func (b *Base) Operator(op types.CompareOperationOp) (string, bool) {
	ops := b.Operators
	if ops == nil {
		ops = StandardOperators
	}
	tok, ok := ops[op]
	return tok, ok
}

func (b *Base) Call(name string, args []string) (string, error) {
	if tpl, ok := b.Functions[fmt.Sprintf("%s/%d", name, len(args))]; ok {
		vals := make([]any, len(args))
		for i, a := range args {
			vals[i] = a
		}
		return fmt.Sprintf(tpl, vals...), nil
	}
	tpl, ok := b.Functions[name]
	if !ok {
		if !b.Caps.PassthroughFunctions {
			return "", UnsupportedNodeError{
				Node:    "function " + name,
				Dialect: b.DialectName,
				Hint:    fmt.Sprintf("no template for %d arguments", len(args)),
			}
		}
		tpl = name
	}
	joined := strings.Join(args, ", ")
	if strings.Contains(tpl, "{args}") {
		return strings.ReplaceAll(tpl, "{args}", joined), nil
	}
	return tpl + "(" + joined + ")", nil
}

// Property prints the path as a dotted identifier chain.
func (b *Base) Property(column string, chain []string) string {
	parts := make([]string, 0, len(chain)+1)
	parts = append(parts, column)
	for _, key := range chain {
		parts = append(parts, b.QuoteIdentifier(key))
	}
	return strings.Join(parts, ".")
}

// JSONPath builds a $."a"."b" path for the json_extract family.
func JSONPath(chain []string) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, key := range chain {
		sb.WriteString(`."`)
		sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(key, `\`, `\\`), `"`, `\"`))
		sb.WriteString(`"`)
	}
	return sb.String()
}
