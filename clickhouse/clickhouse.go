// Package clickhouse provides the ClickHouse dialect for eventql.
//
// Operators print in function form, properties are extracted from JSON
// strings unless a materialized column or property group holds them, and
// every physical table with a team column is filtered by team.
package clickhouse

import (
	"fmt"
	"strings"

	"github.com/zoobzio/eventql/internal/render"
)

// Renderer implements the ClickHouse dialect.
type Renderer struct {
	render.Base
}

var _ render.Dialect = (*Renderer)(nil)

// New creates a new ClickHouse renderer.
func New() *Renderer {
	return &Renderer{Base: render.Base{
		DialectName: "clickhouse",
		Caps: render.Capabilities{
			FunctionOperators:    true,
			TeamGuards:           true,
			ColumnMacros:         true,
			AliasReferences:      true,
			Sample:               true,
			Final:                true,
			Prewhere:             true,
			Lambdas:              true,
			Settings:             true,
			MaterializedColumns:  true,
			PropertyGroups:       true,
			BackslashEscapes:     true,
			PassthroughFunctions: true,
		},
		IdentQuote: '`',
		True:       "true",
		False:      "false",
		Functions: map[string]string{
			"array":        "[{args}]",
			"toInt":        "toInt64OrNull",
			"toFloat":      "toFloat64OrNull",
			"toDateTime/1": "toDateTime(%s, 'UTC')",
		},
	}}
}

// Property extracts a JSON path as text, mapping JSON null and missing keys
// to NULL.
func (r *Renderer) Property(column string, chain []string) string {
	args := make([]string, 0, len(chain)+1)
	args = append(args, column)
	for _, key := range chain {
		args = append(args, r.QuoteString(key))
	}
	return fmt.Sprintf(`replaceRegexpAll(nullIf(nullIf(JSONExtractRaw(%s), ''), 'null'), '^"|"$', '')`, strings.Join(args, ", "))
}
