package postgres_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/eventql"
	"github.com/zoobzio/eventql/postgres"
)

func compiler(t *testing.T) *eventql.Compiler {
	t.Helper()
	c, err := eventql.New(eventql.DefaultSchema(), eventql.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	return c
}

func TestRender_Golden(t *testing.T) {
	tests := []struct {
		name  string
		query string
		opts  []eventql.CompileOption
	}{
		{
			name:  "basic",
			query: "SELECT event, timestamp FROM events WHERE event = 'pageview' ORDER BY timestamp DESC LIMIT 10",
			opts:  []eventql.CompileOption{eventql.WithTeamID(2)},
		},
		{
			name:  "properties",
			query: "SELECT properties.$browser, properties.plan FROM events WHERE properties.$os IS NOT NULL",
		},
		{
			name:  "functions",
			query: "SELECT toStartOfDay(timestamp) AS day, uniq(distinct_id) FROM events WHERE event IN ('a', 'b') AND NOT (event LIKE '%x%') GROUP BY day ORDER BY day LIMIT 5 OFFSET 10",
		},
		{
			name:  "macros_and_aliases",
			query: "WITH 'pageview' AS pv SELECT event AS e, count() AS c FROM events WHERE e = pv GROUP BY e HAVING c > 1",
		},
		{
			name:  "lazy_table",
			query: "SELECT query, cache_key FROM query_log WHERE team_id = 2",
		},
	}

	c := compiler(t)
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Compile(context.Background(), tt.query, postgres.New(), tt.opts...)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(result.SQL+"\n"))
		})
	}
}

func TestRender_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		query string
		node  string
	}{
		{"sample", "SELECT event FROM events SAMPLE 1/10", "SAMPLE"},
		{"final", "SELECT event FROM events FINAL", "FINAL"},
		{"lambda", "SELECT arrayMap(x -> x, [1])", "lambda"},
	}

	c := compiler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CompileString(tt.query, postgres.New())
			require.ErrorIs(t, err, eventql.ErrPrint)

			var unsupported eventql.UnsupportedNodeError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tt.node, unsupported.Node)
			assert.Equal(t, "postgres", unsupported.Dialect)
			assert.False(t, eventql.IsUserError(err))
		})
	}
}

func TestRender_VersionedLazyJoin(t *testing.T) {
	sql, err := compiler(t).CompileString("SELECT event, person.properties.email FROM events", postgres.New())
	require.NoError(t, err)
	assert.Contains(t, sql, "LEFT JOIN (SELECT")
	assert.Contains(t, sql, "(array_agg(")
	assert.NotContains(t, sql, "argMax")
}

func TestRender_NoSettings(t *testing.T) {
	result, err := compiler(t).Compile(context.Background(), "SELECT 1", postgres.New(), eventql.WithLogComment("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", result.SQL)
}

func TestRender_Literals(t *testing.T) {
	c := compiler(t)
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT true, false, NULL", "SELECT TRUE, FALSE, NULL"},
		{"SELECT 'o''brien'", "SELECT 'o''brien'"},
		{"SELECT 1.5, -2", "SELECT 1.5, -2"},
		{"SELECT [1, 2]", "SELECT ARRAY[1, 2]"},
		{"SELECT if(1 > 0, 'y', 'n')", "SELECT CASE WHEN 1 > 0 THEN 'y' ELSE 'n' END"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			sql, err := c.CompileString(tt.query, postgres.New())
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestRender_Property(t *testing.T) {
	r := postgres.New()
	assert.Equal(t, `("t"."p"->'a'->>'b')`, r.Property(`"t"."p"`, []string{"a", "b"}))
	assert.Equal(t, `"we""ird"`, r.QuoteIdentifier(`we"ird`))
}
