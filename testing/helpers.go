// Package testing provides test utilities for eventql.
package testing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/eventql"
)

// TestProject returns the DBML project behind TestCompiler.
// Includes users, events, orders and products tables. Every table but
// products carries a team_id column.
func TestProject() *dbml.Project {
	project := dbml.NewProject("test")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("team_id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("email", "varchar"))
	users.AddColumn(dbml.NewColumn("age", "int"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	users.AddColumn(dbml.NewColumn("created_at", "timestamp"))
	users.AddColumn(dbml.NewColumn("metadata", "jsonb"))
	users.AddColumn(dbml.NewColumn("tags", "text[]"))
	project.AddTable(users)

	events := dbml.NewTable("events")
	events.AddColumn(dbml.NewColumn("id", "bigint"))
	events.AddColumn(dbml.NewColumn("team_id", "bigint"))
	events.AddColumn(dbml.NewColumn("user_id", "bigint"))
	events.AddColumn(dbml.NewColumn("event", "varchar"))
	events.AddColumn(dbml.NewColumn("properties", "jsonb"))
	events.AddColumn(dbml.NewColumn("timestamp", "timestamp"))
	project.AddTable(events)

	orders := dbml.NewTable("orders")
	orders.AddColumn(dbml.NewColumn("id", "bigint"))
	orders.AddColumn(dbml.NewColumn("team_id", "bigint"))
	orders.AddColumn(dbml.NewColumn("user_id", "bigint"))
	orders.AddColumn(dbml.NewColumn("total", "numeric"))
	orders.AddColumn(dbml.NewColumn("status", "varchar"))
	orders.AddColumn(dbml.NewColumn("created_at", "timestamp"))
	project.AddTable(orders)

	products := dbml.NewTable("products")
	products.AddColumn(dbml.NewColumn("id", "bigint"))
	products.AddColumn(dbml.NewColumn("name", "varchar"))
	products.AddColumn(dbml.NewColumn("price", "numeric"))
	products.AddColumn(dbml.NewColumn("attributes", "json"))
	project.AddTable(products)

	return project
}

// TestCompiler creates a compiler over TestProject that logs nothing.
func TestCompiler(t testing.TB) *eventql.Compiler {
	t.Helper()

	c, err := eventql.NewFromDBML(TestProject(), eventql.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("Failed to create compiler: %v", err)
	}
	return c
}

// MustCompile compiles a query and fails the test on error.
func MustCompile(t testing.TB, c *eventql.Compiler, query string, d eventql.Dialect, opts ...eventql.CompileOption) *eventql.QueryResult {
	t.Helper()

	result, err := c.Compile(context.Background(), query, d, opts...)
	if err != nil {
		t.Fatalf("Failed to compile %q: %v", query, err)
	}
	return result
}

// AssertSQL checks that the generated SQL matches expected.
func AssertSQL(t testing.TB, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// AssertColumns checks the output column names of a result.
func AssertColumns(t testing.TB, expected []string, result *eventql.QueryResult) {
	t.Helper()
	actual := result.Columns()
	if len(expected) != len(actual) {
		t.Errorf("Column count mismatch: expected %d, got %d\nExpected: %v\nActual: %v",
			len(expected), len(actual), expected, actual)
		return
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Errorf("Column %d mismatch: expected %q, got %q", i, expected[i], actual[i])
		}
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertErrorIs fails the test unless err wraps target.
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error wrapping %v but got nil", target)
	}
	if !errors.Is(err, target) {
		t.Errorf("Expected error wrapping %v, got: %v", target, err)
	}
}

// AssertErrorContains checks that error message contains substr.
func AssertErrorContains(t testing.TB, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing %q but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("Expected error containing %q, got: %v", substr, err)
	}
}
