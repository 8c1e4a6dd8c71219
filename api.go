// Package eventql compiles EventQL, a ClickHouse-flavoured SELECT dialect
// over product analytics data, into SQL for a target database.
//
// A query is parsed into a tree, every node of the tree is typed against a
// schema, lazy tables and lazy joins are expanded into subqueries that read
// only the fields the query uses, and the tree is printed by a dialect.
//
// # Basic Usage
//
//	import "github.com/zoobzio/eventql/clickhouse"
//
//	compiler, err := eventql.New(eventql.DefaultSchema())
//	if err != nil {
//		return err
//	}
//
//	result, err := compiler.Compile(ctx,
//		"SELECT event, person.properties.email FROM events WHERE timestamp > now() - INTERVAL 1 DAY",
//		clickhouse.New(),
//		eventql.WithTeamID(2),
//	)
//	// result.SQL: SELECT events.event, replaceRegexpAll(...) AS email FROM events LEFT JOIN (...) ...
//
// # Dialects
//
// Dialects live in their own packages: clickhouse, postgres, sqlite, mysql
// and native. The native dialect prints EventQL back, with names as written
// and lazy entities left in place.
//
// # Schemas
//
// The product schema is embedded and returned by DefaultSchema. Other
// schemas load from YAML with LoadSchema or ParseSchema, or from a DBML
// project with NewFromDBML.
//
// # Errors
//
// Every error the compiler returns unwraps to one family: ErrStructural,
// ErrSyntax, ErrResolution, ErrLazyExpansion or ErrPrint. IsUserError
// separates mistakes in the query from defects in schemas or dialects.
package eventql

import (
	"github.com/zoobzio/eventql/internal/parser"
	"github.com/zoobzio/eventql/internal/render"
	"github.com/zoobzio/eventql/internal/schema"
	"github.com/zoobzio/eventql/internal/types"
)

// Node is any node of a query tree.
type Node = types.Node

// Expr is a node the resolver annotates with a Type.
type Expr = types.Expr

// Type is a resolved type.
type Type = types.Type

// SelectQuery is a single SELECT statement.
type SelectQuery = types.SelectQuery

// SelectUnionQuery is a UNION ALL of selects.
type SelectUnionQuery = types.SelectUnionQuery

// SelectQueryType is the scope record of a resolved select.
type SelectQueryType = types.SelectQueryType

// Database is a frozen schema of tables.
type Database = schema.Database

// Dialect prints resolved trees as SQL.
type Dialect = render.Dialect

// Capabilities describes what a dialect can print.
type Capabilities = render.Capabilities

// Re-export AST node types used to build placeholder values.
type (
	Constant         = types.Constant
	Field            = types.Field
	Call             = types.Call
	CompareOperation = types.CompareOperation
	And              = types.And
	Or               = types.Or
	Not              = types.Not
	Array            = types.Array
	Tuple            = types.Tuple
)

// ParseSelect parses a SELECT or UNION ALL statement without resolving it.
func ParseSelect(query string) (Expr, error) {
	return parser.ParseSelect(query)
}

// ParseExpr parses a single expression, e.g. a placeholder value.
func ParseExpr(expr string) (Expr, error) {
	return parser.ParseExpr(expr)
}

// DefaultSchema returns the embedded product schema.
func DefaultSchema() *Database {
	return schema.MustDefault()
}

// LoadSchema reads a YAML schema file.
func LoadSchema(path string) (*Database, error) {
	return schema.Load(path)
}

// ParseSchema builds a schema from YAML.
func ParseSchema(data []byte) (*Database, error) {
	return schema.Parse(data)
}
