package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/zoobzio/eventql"
	evtesting "github.com/zoobzio/eventql/testing"
)

// seedStatements insert the shared fixture. Booleans are written with the
// target's literals; JSON documents and timestamps are plain strings.
func seedStatements(trueLit, falseLit string) []string {
	return []string{
		fmt.Sprintf(`INSERT INTO users (id, team_id, username, email, age, active, metadata) VALUES
		(1, 1, 'alice', 'alice@example.com', 30, %[1]s, '{"plan": "pro"}'),
		(2, 1, 'bob', 'bob@example.com', 25, %[1]s, '{"plan": "free"}'),
		(3, 1, 'charlie', 'charlie@example.com', 35, %[2]s, '{"plan": "pro"}'),
		(4, 2, 'diana', 'diana@example.com', 28, %[1]s, '{"plan": "free"}')`, trueLit, falseLit),
		`INSERT INTO events (id, team_id, user_id, event, properties, timestamp) VALUES
		(1, 1, 1, 'pageview', '{"$browser": "Chrome"}', '2024-01-01 10:00:00'),
		(2, 1, 1, 'signup', '{"$browser": "Chrome"}', '2024-01-01 11:00:00'),
		(3, 1, 2, 'pageview', '{"$browser": "Firefox"}', '2024-01-02 09:00:00'),
		(4, 1, 3, 'pageview', '{"$browser": "Safari"}', '2024-01-02 12:00:00'),
		(5, 2, 4, 'pageview', '{"$browser": "Chrome"}', '2024-01-03 08:00:00'),
		(6, 1, 2, 'signup', '{"$browser": "Firefox"}', '2024-01-03 15:00:00')`,
	}
}

// queryCase is one compiled query and the rows it must return, each
// value formatted as text.
type queryCase struct {
	name      string
	query     string
	team      int64
	want      [][]string
	unordered bool
	// skip lists dialects that cannot print the query.
	skip []string
}

var queryCases = []queryCase{
	{
		name:  "team guard",
		query: "SELECT event FROM events ORDER BY id",
		team:  1,
		want:  rows("pageview", "signup", "pageview", "pageview", "signup"),
	},
	{
		name:  "other team",
		query: "SELECT event FROM events ORDER BY id",
		team:  2,
		want:  rows("pageview"),
	},
	{
		name:  "property filter",
		query: "SELECT id FROM events WHERE properties.$browser = 'Chrome' ORDER BY id",
		team:  1,
		want:  rows("1", "2"),
	},
	{
		name:  "aggregates",
		query: "SELECT uniq(user_id) AS users, count() AS c FROM events WHERE event = 'pageview'",
		team:  1,
		want:  [][]string{{"3", "3"}},
	},
	{
		name:  "group by day",
		query: "SELECT count() AS c FROM events GROUP BY toStartOfDay(timestamp) ORDER BY c DESC",
		team:  1,
		want:  rows("2", "2", "1"),
	},
	{
		name:  "like and in",
		query: "SELECT username FROM users WHERE username LIKE 'a%' OR age IN (25, 28) ORDER BY username",
		want:  rows("alice", "bob", "diana"),
	},
	{
		name:  "json column",
		query: "SELECT username FROM users WHERE metadata.plan = 'pro' ORDER BY username",
		want:  rows("alice", "charlie"),
	},
	{
		name:  "missing property",
		query: "SELECT username FROM users WHERE metadata.missing IS NULL AND age > 34",
		want:  rows("charlie"),
	},
	{
		name:  "boolean",
		query: "SELECT username FROM users WHERE active = true ORDER BY username",
		team:  1,
		want:  rows("alice", "bob"),
	},
	{
		name:  "limit offset",
		query: "SELECT username FROM users ORDER BY age LIMIT 2 OFFSET 1",
		want:  rows("diana", "alice"),
	},
	{
		name:  "conditional",
		query: "SELECT if(age > 29, 'senior', 'junior') AS bucket FROM users ORDER BY age",
		team:  1,
		want:  rows("junior", "senior", "senior"),
	},
	{
		name:  "string functions",
		query: "SELECT upper(username) FROM users WHERE lower(email) = 'bob@example.com'",
		want:  rows("BOB"),
	},
	{
		name:  "join",
		query: "SELECT u.username, e.event FROM events e JOIN users u ON e.user_id = u.id WHERE e.event = 'signup' ORDER BY e.id",
		team:  1,
		want:  [][]string{{"alice", "signup"}, {"bob", "signup"}},
	},
	{
		name:      "union",
		query:     "SELECT username FROM users WHERE age < 26 UNION ALL SELECT username FROM users WHERE age > 34",
		want:      rows("bob", "charlie"),
		unordered: true,
	},
	{
		name:  "interval",
		query: "SELECT count() FROM events WHERE timestamp > now() - INTERVAL 1 DAY",
		want:  rows("0"),
		skip:  []string{"sqlite", "mssql"},
	},
}

func rows(values ...string) [][]string {
	out := make([][]string, len(values))
	for i, v := range values {
		out[i] = []string{v}
	}
	return out
}

// runner executes printed SQL and returns every row as text.
type runner func(ctx context.Context, sql string) ([][]string, error)

// runQueryCases compiles every case for d and checks the rows run returns.
func runQueryCases(t *testing.T, d eventql.Dialect, run runner) {
	t.Helper()
	c := evtesting.TestCompiler(t)

	for _, tc := range queryCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, name := range tc.skip {
				if name == d.Name() {
					_, err := c.CompileString(tc.query, d)
					evtesting.AssertErrorIs(t, err, eventql.ErrPrint)
					return
				}
			}

			var opts []eventql.CompileOption
			if tc.team != 0 {
				opts = append(opts, eventql.WithTeamID(tc.team))
			}
			result := evtesting.MustCompile(t, c, tc.query, d, opts...)

			got, err := run(context.Background(), result.SQL)
			if err != nil {
				t.Fatalf("Query failed: %v\nSQL: %s", err, result.SQL)
			}
			want := tc.want
			if tc.unordered {
				got, want = sortRows(got), sortRows(want)
			}
			if !equalRows(want, got) {
				t.Errorf("Rows mismatch\nSQL:      %s\nExpected: %v\nActual:   %v", result.SQL, want, got)
			}
		})
	}
}

func sortRows(in [][]string) [][]string {
	out := append([][]string(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		return strings.Join(out[i], "\x00") < strings.Join(out[j], "\x00")
	})
	return out
}

func equalRows(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.Join(a[i], "\x00") != strings.Join(b[i], "\x00") {
			return false
		}
	}
	return true
}
