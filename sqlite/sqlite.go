// Package sqlite provides the SQLite dialect for eventql.
//
// JSON fields are text columns read with json_extract. ILIKE prints as LIKE,
// which SQLite already matches case-insensitively for ASCII.
package sqlite

import (
	"github.com/zoobzio/eventql/internal/render"
	"github.com/zoobzio/eventql/internal/types"
)

// Renderer implements the SQLite dialect.
type Renderer struct {
	render.Base
}

var _ render.Dialect = (*Renderer)(nil)

// New creates a new SQLite renderer.
func New() *Renderer {
	return &Renderer{Base: render.Base{
		DialectName: "sqlite",
		Caps: render.Capabilities{
			TeamGuards:  true,
			AlwaysQuote: true,
		},
		IdentQuote: '"',
		True:       "1",
		False:      "0",
		Limit:      "-1",
		Operators:  operators,
		Functions:  functions,
	}}
}

var operators = map[types.CompareOperationOp]string{
	types.Eq:       "=",
	types.NotEq:    "!=",
	types.Gt:       ">",
	types.GtE:      ">=",
	types.Lt:       "<",
	types.LtE:      "<=",
	types.Like:     "LIKE",
	types.ILike:    "LIKE",
	types.NotLike:  "NOT LIKE",
	types.NotILike: "NOT LIKE",
	types.In:       "IN",
	types.NotIn:    "NOT IN",
}

var functions = map[string]string{
	// aggregates
	"count/0":     "count(*)",
	"count":       "count",
	"countIf/1":   "sum(CASE WHEN %s THEN 1 ELSE 0 END)",
	"sum":         "sum",
	"sumIf/2":     "sum(CASE WHEN %[2]s THEN %[1]s ELSE 0 END)",
	"avg":         "avg",
	"min":         "min",
	"max":         "max",
	"uniq/1":      "count(DISTINCT %s)",
	"uniqExact/1": "count(DISTINCT %s)",
	"groupArray":  "json_group_array",
	"length/1":    "length(%s)",
	"empty/1":     "(%s = '')",
	"notEmpty/1":  "(%s != '')",

	// strings
	"lower":      "lower",
	"upper":      "upper",
	"concat":     "concat",
	"substring":  "substr",
	"trim":       "trim",
	"replaceAll": "replace",
	"toString/1": "CAST(%s AS TEXT)",

	// JSON
	"JSONExtractString/2": "json_extract(%s, '$.' || %s)",
	"JSONExtractInt/2":    "CAST(json_extract(%s, '$.' || %s) AS INTEGER)",
	"JSONExtractFloat/2":  "CAST(json_extract(%s, '$.' || %s) AS REAL)",
	"JSONExtractBool/2":   "(json_extract(%s, '$.' || %s) = 1)",
	"JSONExtractRaw/1":    "%s",

	// conditionals
	"if/3":        "CASE WHEN %s THEN %s ELSE %s END",
	"coalesce":    "coalesce",
	"ifNull":      "ifnull",
	"isNull/1":    "(%s IS NULL)",
	"isNotNull/1": "(%s IS NOT NULL)",
	"tuple":       "({args})",
	"array":       "json_array({args})",

	// math
	"abs":       "abs",
	"round":     "round",
	"floor":     "floor",
	"ceil":      "ceil",
	"toInt/1":   "CAST(%s AS INTEGER)",
	"toFloat/1": "CAST(%s AS REAL)",

	// dates
	"now/0":             "datetime('now')",
	"today/0":           "date('now')",
	"toDate/1":          "date(%s)",
	"toDateTime/1":      "datetime(%s)",
	"toStartOfDay/1":    "datetime(%s, 'start of day')",
	"toStartOfMonth/1":  "datetime(%s, 'start of month')",
	"toStartOfHour/1":   "strftime('%%Y-%%m-%%d %%H:00:00', %s)",
	"toUnixTimestamp/1": "CAST(strftime('%%s', %s) AS INTEGER)",
}

// Property reads a JSON path with json_extract.
func (r *Renderer) Property(column string, chain []string) string {
	return "json_extract(" + column + ", " + r.QuoteString(render.JSONPath(chain)) + ")"
}
