// Package postgres provides the PostgreSQL dialect for eventql.
//
// JSON fields are expected to be jsonb columns; properties are read with
// the ->> operator. ClickHouse-only features such as SAMPLE, FINAL and
// lambdas are rejected.
package postgres

import (
	"strings"

	"github.com/zoobzio/eventql/internal/render"
)

// Renderer implements the PostgreSQL dialect.
type Renderer struct {
	render.Base
}

var _ render.Dialect = (*Renderer)(nil)

// New creates a new PostgreSQL renderer.
func New() *Renderer {
	return &Renderer{Base: render.Base{
		DialectName: "postgres",
		Caps: render.Capabilities{
			TeamGuards:  true,
			AlwaysQuote: true,
		},
		IdentQuote: '"',
		True:       "TRUE",
		False:      "FALSE",
		Functions:  functions,
	}}
}

var functions = map[string]string{
	// aggregates
	"count/0":      "count(*)",
	"count":        "count",
	"countIf/1":    "count(*) FILTER (WHERE %s)",
	"countIf/2":    "count(%s) FILTER (WHERE %s)",
	"sum":          "sum",
	"sumIf/2":      "sum(%s) FILTER (WHERE %s)",
	"avg":          "avg",
	"min":          "min",
	"max":          "max",
	"uniq/1":       "count(DISTINCT %s)",
	"uniqExact/1":  "count(DISTINCT %s)",
	"groupArray":   "array_agg",
	"argMax/2":     "(array_agg(%[1]s ORDER BY %[2]s DESC))[1]",
	"median/1":     "percentile_cont(0.5) WITHIN GROUP (ORDER BY %s)",
	"quantile/2":   "percentile_cont(%s) WITHIN GROUP (ORDER BY %s)",
	"has/2":        "(%[2]s = ANY(%[1]s))",
	"length/1":     "length(%s)",
	"empty/1":      "(%s = '')",
	"notEmpty/1":   "(%s <> '')",
	"arraySlice/3": "(%s)[%s:%s]",

	// strings
	"lower":              "lower",
	"upper":              "upper",
	"concat":             "concat",
	"substring":          "substr",
	"trim":               "trim",
	"match/2":            "(%s ~ %s)",
	"replaceRegexpAll/3": "regexp_replace(%s, %s, %s, 'g')",
	"replaceAll":         "replace",
	"toString/1":         "CAST(%s AS TEXT)",

	// JSON
	"JSONExtractString/2": "(%s->>%s)",
	"JSONExtractInt/2":    "CAST(%s->>%s AS BIGINT)",
	"JSONExtractFloat/2":  "CAST(%s->>%s AS DOUBLE PRECISION)",
	"JSONExtractBool/2":   "CAST(%s->>%s AS BOOLEAN)",
	"JSONHas/2":           "(%s ? %s)",

	// conditionals
	"if/3":        "CASE WHEN %s THEN %s ELSE %s END",
	"coalesce":    "coalesce",
	"ifNull/2":    "coalesce(%s, %s)",
	"isNull/1":    "(%s IS NULL)",
	"isNotNull/1": "(%s IS NOT NULL)",
	"tuple":       "({args})",
	"array":       "ARRAY[{args}]",

	"arrayElement/2": "%s[%s]",

	// math
	"abs":       "abs",
	"round":     "round",
	"floor":     "floor",
	"ceil":      "ceil",
	"toInt/1":   "CAST(%s AS BIGINT)",
	"toFloat/1": "CAST(%s AS DOUBLE PRECISION)",

	// dates
	"now/0":              "now()",
	"today/0":            "current_date",
	"toDate/1":           "CAST(%s AS DATE)",
	"toDateTime/1":       "CAST(%s AS TIMESTAMP)",
	"toStartOfDay/1":     "date_trunc('day', %s)",
	"toStartOfWeek/1":    "date_trunc('week', %s)",
	"toStartOfMonth/1":   "date_trunc('month', %s)",
	"toStartOfHour/1":    "date_trunc('hour', %s)",
	"toUnixTimestamp/1":  "CAST(extract(epoch FROM %s) AS BIGINT)",
	"toIntervalSecond/1": "(%s * INTERVAL '1 second')",
	"toIntervalMinute/1": "(%s * INTERVAL '1 minute')",
	"toIntervalHour/1":   "(%s * INTERVAL '1 hour')",
	"toIntervalDay/1":    "(%s * INTERVAL '1 day')",
	"toIntervalWeek/1":   "(%s * INTERVAL '1 week')",
	"toIntervalMonth/1":  "(%s * INTERVAL '1 month')",
	"toIntervalYear/1":   "(%s * INTERVAL '1 year')",
}

// Property reads a JSON path as text: col->'a'->>'b'.
func (r *Renderer) Property(column string, chain []string) string {
	var b strings.Builder
	b.WriteString("(" + column)
	for i, key := range chain {
		if i == len(chain)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteString(r.QuoteString(key))
	}
	b.WriteString(")")
	return b.String()
}
