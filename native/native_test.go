package native_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/eventql"
	"github.com/zoobzio/eventql/native"
)

var queries = []struct {
	name  string
	query string
}{
	{"lazy_names", "SELECT event, person.properties.email AS email FROM events e WHERE e.timestamp > now() - INTERVAL 1 DAY ORDER BY event LIMIT 10"},
	{"macros", "WITH 'pageview' AS pv, recent AS (SELECT event FROM events LIMIT 5) SELECT event AS e, count() AS c FROM recent WHERE e = pv GROUP BY e HAVING c > 1"},
	{"arrays_and_sampling", "SELECT arrayMap(x -> x * 2, [1, 2])[1] AS first, (1, 'a').2 AS second FROM events FINAL SAMPLE 1/10 OFFSET 1/2"},
	{"logic", "SELECT event FROM events WHERE event NOT IN ('a', 'b') AND NOT event LIKE 'x%' OR properties.$os IS NULL"},
}

func compiler(t *testing.T) *eventql.Compiler {
	t.Helper()
	c, err := eventql.New(eventql.DefaultSchema(), eventql.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	return c
}

func TestRender_Golden(t *testing.T) {
	c := compiler(t)
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	for _, tt := range queries {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Compile(context.Background(), tt.query, native.New(), eventql.WithTeamID(1))
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(result.SQL+"\n"))
		})
	}
}

// Printed EventQL parses and resolves back to the tree it was printed from.
func TestRender_RoundTrip(t *testing.T) {
	c := compiler(t)
	for _, tt := range queries {
		t.Run(tt.name, func(t *testing.T) {
			first, err := c.Compile(context.Background(), tt.query, native.New())
			require.NoError(t, err)

			second, err := c.Compile(context.Background(), first.SQL, native.New())
			require.NoError(t, err)

			assert.Equal(t, first.SQL, second.SQL)
			assert.Equal(t, first.Query, second.Query)
			assert.Equal(t, first.Columns(), second.Columns())
		})
	}
}

func TestRender_QuotesReservedWords(t *testing.T) {
	r := native.New()
	assert.Equal(t, "event", r.QuoteIdentifier("event"))
	assert.Equal(t, "`select`", r.QuoteIdentifier("select"))
	assert.Equal(t, "`$os`", r.QuoteIdentifier("$os"))
	assert.Equal(t, "`a``b`", r.QuoteIdentifier("a`b"))
}

func TestRender_KeepsLazyEntities(t *testing.T) {
	result, err := compiler(t).Compile(context.Background(), "SELECT query FROM query_log", native.New())
	require.NoError(t, err)
	assert.Equal(t, "SELECT query FROM query_log", result.SQL)
	assert.Equal(t, []string{"query_log"}, result.Tables())
}
