// Package mysql provides the MySQL and MariaDB dialect for eventql.
//
// JSON fields are JSON (or LONGTEXT with JSON_VALID) columns read with
// JSON_EXTRACT. Identifiers are quoted with backticks.
package mysql

import (
	"github.com/zoobzio/eventql/internal/render"
	"github.com/zoobzio/eventql/internal/types"
)

// Renderer implements the MySQL dialect.
type Renderer struct {
	render.Base
}

var _ render.Dialect = (*Renderer)(nil)

// New creates a new MySQL renderer.
func New() *Renderer {
	return &Renderer{Base: render.Base{
		DialectName: "mysql",
		Caps: render.Capabilities{
			TeamGuards:       true,
			AlwaysQuote:      true,
			BackslashEscapes: true,
		},
		IdentQuote: '`',
		True:       "TRUE",
		False:      "FALSE",
		Limit:      "18446744073709551615",
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
	types.Like:     "LIKE BINARY",
	types.ILike:    "LIKE",
	types.NotLike:  "NOT LIKE BINARY",
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
	"groupArray":  "JSON_ARRAYAGG",
	"length/1":    "CHAR_LENGTH(%s)",
	"empty/1":     "(%s = '')",
	"notEmpty/1":  "(%s != '')",

	// strings
	"lower":              "LOWER",
	"upper":              "UPPER",
	"concat":             "CONCAT",
	"substring":          "SUBSTRING",
	"trim":               "TRIM",
	"match/2":            "(%s REGEXP %s)",
	"replaceRegexpAll/3": "REGEXP_REPLACE(%s, %s, %s)",
	"replaceAll":         "REPLACE",
	"toString/1":         "CAST(%s AS CHAR)",

	// JSON
	"JSONExtractString/2": "JSON_UNQUOTE(JSON_EXTRACT(%s, CONCAT('$.', %s)))",
	"JSONExtractInt/2":    "CAST(JSON_EXTRACT(%s, CONCAT('$.', %s)) AS SIGNED)",
	"JSONExtractFloat/2":  "CAST(JSON_EXTRACT(%s, CONCAT('$.', %s)) AS DOUBLE)",
	"JSONExtractRaw/1":    "%s",

	// conditionals
	"if/3":        "IF(%s, %s, %s)",
	"coalesce":    "COALESCE",
	"ifNull/2":    "IFNULL(%s, %s)",
	"isNull/1":    "(%s IS NULL)",
	"isNotNull/1": "(%s IS NOT NULL)",
	"tuple":       "({args})",
	"array":       "JSON_ARRAY({args})",

	// math
	"abs":       "ABS",
	"round":     "ROUND",
	"floor":     "FLOOR",
	"ceil":      "CEIL",
	"toInt/1":   "CAST(%s AS SIGNED)",
	"toFloat/1": "CAST(%s AS DOUBLE)",

	// dates
	"now/0":              "NOW()",
	"today/0":            "CURDATE()",
	"toDate/1":           "DATE(%s)",
	"toDateTime/1":       "CAST(%s AS DATETIME)",
	"toStartOfDay/1":     "CAST(DATE(%s) AS DATETIME)",
	"toStartOfMonth/1":   "CAST(DATE_FORMAT(%s, '%%Y-%%m-01') AS DATETIME)",
	"toStartOfHour/1":    "CAST(DATE_FORMAT(%s, '%%Y-%%m-%%d %%H:00:00') AS DATETIME)",
	"toUnixTimestamp/1":  "UNIX_TIMESTAMP(%s)",
	"toIntervalSecond/1": "INTERVAL %s SECOND",
	"toIntervalMinute/1": "INTERVAL %s MINUTE",
	"toIntervalHour/1":   "INTERVAL %s HOUR",
	"toIntervalDay/1":    "INTERVAL %s DAY",
	"toIntervalWeek/1":   "INTERVAL %s WEEK",
	"toIntervalMonth/1":  "INTERVAL %s MONTH",
	"toIntervalYear/1":   "INTERVAL %s YEAR",
}

// Property reads a JSON path as unquoted text.
func (r *Renderer) Property(column string, chain []string) string {
	return "JSON_UNQUOTE(JSON_EXTRACT(" + column + ", " + r.QuoteString(render.JSONPath(chain)) + "))"
}
