// Package mssql provides the SQL Server dialect for eventql.
//
// Identifiers are bracket quoted and JSON fields are NVARCHAR columns read
// with JSON_VALUE. SQL Server has no LIMIT: paging prints as OFFSET/FETCH,
// which requires an ORDER BY.
package mssql

import (
	"strings"

	"github.com/zoobzio/eventql/internal/render"
	"github.com/zoobzio/eventql/internal/types"
)

// Renderer implements the SQL Server dialect.
type Renderer struct {
	render.Base
}

var _ render.Dialect = (*Renderer)(nil)

// New creates a new SQL Server renderer.
func New() *Renderer {
	return &Renderer{Base: render.Base{
		DialectName: "mssql",
		Caps: render.Capabilities{
			TeamGuards:  true,
			AlwaysQuote: true,
			FetchPaging: true,
		},
		True:      "1",
		False:     "0",
		Operators: operators,
		Functions: functions,
	}}
}

// QuoteIdentifier wraps name in brackets, doubling any closing bracket.
func (r *Renderer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Property reads a JSON path as text.
func (r *Renderer) Property(column string, chain []string) string {
	return "JSON_VALUE(" + column + ", " + r.QuoteString(render.JSONPath(chain)) + ")"
}

// ILIKE prints as LIKE: the default collations compare case-insensitively.
var operators = map[types.CompareOperationOp]string{
	types.Eq:       "=",
	types.NotEq:    "<>",
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
	"count/0":     "COUNT(*)",
	"count":       "COUNT",
	"countIf/1":   "SUM(CASE WHEN %s THEN 1 ELSE 0 END)",
	"sum":         "SUM",
	"sumIf/2":     "SUM(CASE WHEN %[2]s THEN %[1]s ELSE 0 END)",
	"avg":         "AVG",
	"min":         "MIN",
	"max":         "MAX",
	"uniq/1":      "COUNT(DISTINCT %s)",
	"uniqExact/1": "COUNT(DISTINCT %s)",
	"length/1":    "LEN(%s)",
	"empty/1":     "(%s = '')",
	"notEmpty/1":  "(%s <> '')",

	// strings
	"lower":      "LOWER",
	"upper":      "UPPER",
	"concat":     "CONCAT",
	"substring":  "SUBSTRING",
	"trim":       "TRIM",
	"replaceAll": "REPLACE",
	"toString/1": "CAST(%s AS NVARCHAR(MAX))",

	// JSON
	"JSONExtractString/2": "JSON_VALUE(%s, CONCAT('$.', %s))",
	"JSONExtractInt/2":    "CAST(JSON_VALUE(%s, CONCAT('$.', %s)) AS BIGINT)",
	"JSONExtractFloat/2":  "CAST(JSON_VALUE(%s, CONCAT('$.', %s)) AS FLOAT)",
	"JSONExtractRaw/1":    "%s",

	// conditionals
	"if/3":        "IIF(%s, %s, %s)",
	"coalesce":    "COALESCE",
	"ifNull/2":    "ISNULL(%s, %s)",
	"isNull/1":    "(%s IS NULL)",
	"isNotNull/1": "(%s IS NOT NULL)",
	"tuple":       "({args})",

	// math
	"abs":       "ABS",
	"round/1":   "ROUND(%s, 0)",
	"round/2":   "ROUND(%s, %s)",
	"floor":     "FLOOR",
	"ceil":      "CEILING",
	"toInt/1":   "CAST(%s AS BIGINT)",
	"toFloat/1": "CAST(%s AS FLOAT)",

	// dates
	"now/0":             "SYSDATETIME()",
	"today/0":           "CAST(SYSDATETIME() AS DATE)",
	"toDate/1":          "CAST(%s AS DATE)",
	"toDateTime/1":      "CAST(%s AS DATETIME2)",
	"toStartOfDay/1":    "CAST(CAST(%s AS DATE) AS DATETIME2)",
	"toStartOfMonth/1":  "DATEFROMPARTS(YEAR(%[1]s), MONTH(%[1]s), 1)",
	"toStartOfHour/1":   "DATEADD(hour, DATEDIFF(hour, 0, %s), 0)",
	"toUnixTimestamp/1": "DATEDIFF_BIG(second, '1970-01-01', %s)",
}
