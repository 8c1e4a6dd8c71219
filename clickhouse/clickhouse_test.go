package clickhouse_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/eventql"
	"github.com/zoobzio/eventql/clickhouse"
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
			query: "SELECT properties.$browser, properties.$os, properties.plan FROM events",
			opts:  []eventql.CompileOption{eventql.WithPropertyGroups(true)},
		},
		{
			name:  "lazy_join",
			query: "SELECT event, person.properties.email FROM events",
			opts:  []eventql.CompileOption{eventql.WithTeamID(2)},
		},
		{
			name:  "virtual_traverser",
			query: "SELECT poe.properties.name, person_id FROM events e",
		},
		{
			name:  "lazy_table",
			query: "SELECT query, cache_key FROM query_log WHERE team_id = 2",
		},
		{
			name:  "macros_and_aliases",
			query: "WITH 'pageview' AS pv SELECT event AS e, count() AS c FROM events WHERE e = pv GROUP BY e HAVING c > 1",
		},
		{
			name:  "lambda",
			query: "SELECT arrayMap(x -> x + 1, [1, 2])",
		},
		{
			name:  "sample_final_prewhere",
			query: "SELECT event FROM events FINAL SAMPLE 1/10 OFFSET 1/2 PREWHERE event = 'a' WHERE timestamp > '2024-01-01'",
			opts:  []eventql.CompileOption{eventql.WithTeamID(2)},
		},
		{
			name:  "union",
			query: "SELECT event FROM events UNION ALL SELECT event FROM events WHERE event = 'x'",
		},
		{
			name:  "in_and_null",
			query: "SELECT event FROM events WHERE event IN ['a', 'b'] AND properties.plan IS NULL",
		},
	}

	c := compiler(t)
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]eventql.CompileOption{eventql.WithLogComment("golden")}, tt.opts...)
			result, err := c.Compile(context.Background(), tt.query, clickhouse.New(), opts...)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(result.SQL+"\n"))
		})
	}
}

func TestRender_DefaultLogComment(t *testing.T) {
	result, err := compiler(t).Compile(context.Background(), "SELECT 1", clickhouse.New())
	require.NoError(t, err)
	assert.Equal(t, `SELECT 1 SETTINGS log_comment = '{"query_id":"`+result.QueryID.String()+`"}'`, result.SQL)
}

func TestRender_Escaping(t *testing.T) {
	result, err := compiler(t).Compile(context.Background(), `SELECT 'it\'s\n' AS s`, clickhouse.New(), eventql.WithLogComment("a'b"))
	require.NoError(t, err)
	assert.Equal(t, `SELECT 'it\'s\n' AS s SETTINGS log_comment = 'a\'b'`, result.SQL)
}

func TestRender_TeamGuardOnJoins(t *testing.T) {
	result, err := compiler(t).Compile(context.Background(),
		"SELECT e.event FROM events e JOIN persons p ON e.distinct_id = p.id, person_distinct_ids",
		clickhouse.New(), eventql.WithTeamID(7), eventql.WithLogComment("c"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT e.event FROM events AS e JOIN person AS p ON and(equals(p.team_id, 7), equals(e.distinct_id, p.id))"+
		" CROSS JOIN person_distinct_id2 AS person_distinct_ids"+
		" WHERE and(equals(e.team_id, 7), equals(person_distinct_ids.team_id, 7)) SETTINGS log_comment = 'c'", result.SQL)
}

func TestRender_QuotesIdentifiers(t *testing.T) {
	r := clickhouse.New()
	assert.Equal(t, "event", r.QuoteIdentifier("event"))
	assert.Equal(t, "`$browser`", r.QuoteIdentifier("$browser"))
	assert.Equal(t, "`a``b`", r.QuoteIdentifier("a`b"))
}

func TestRender_Property(t *testing.T) {
	r := clickhouse.New()
	assert.Equal(t,
		`replaceRegexpAll(nullIf(nullIf(JSONExtractRaw(t.props, 'a', 'b'), ''), 'null'), '^"|"$', '')`,
		r.Property("t.props", []string{"a", "b"}))
}
