package eventql

import (
	"sort"

	"github.com/google/uuid"

	"github.com/zoobzio/eventql/internal/types"
)

// QueryResult contains the printed SQL and the resolved tree it came from.
type QueryResult struct {
	SQL     string
	Query   Expr
	QueryID uuid.UUID
	Dialect string
}

// Columns returns the names of the columns the query exports, in order.
// For a union they are the columns of the first select.
func (r *QueryResult) Columns() []string {
	cols, ok := types.ColumnsOf(r.Query.GetType())
	if !ok {
		return nil
	}
	return append([]string(nil), cols.ColumnNames...)
}

// Tables returns the schema tables the query reads, including tables
// reached through expanded lazy entities, sorted.
func (r *QueryResult) Tables() []string {
	seen := map[string]bool{}
	types.Inspect(r.Query, func(n types.Node) bool {
		if j, ok := n.(*types.JoinExpr); ok {
			if name, ok := tableName(j.Type); ok {
				seen[name] = true
			}
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func tableName(t types.Type) (string, bool) {
	switch t := t.(type) {
	case *types.TableType:
		return t.Table, true
	case *types.LazyTableType:
		return t.Table, true
	case *types.TableAliasType:
		return tableName(t.Table)
	}
	return "", false
}
