package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	pgdialect "github.com/zoobzio/eventql/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	conn      *pgx.Conn
}

// Exec executes a SQL statement.
func (pc *PostgresContainer) Exec(ctx context.Context, t *testing.T, sql string, args ...any) {
	t.Helper()
	_, err := pc.conn.Exec(ctx, sql, args...)
	if err != nil {
		t.Fatalf("Failed to execute SQL: %v\nSQL: %s", err, sql)
	}
}

// Rows executes a query and returns every row as text.
func (pc *PostgresContainer) Rows(ctx context.Context, sql string) ([][]string, error) {
	rows, err := pc.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				row[i] = "NULL"
			} else {
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// setupSchema recreates and seeds the test tables.
func setupSchema(ctx context.Context, t *testing.T, pc *PostgresContainer) {
	t.Helper()

	pc.Exec(ctx, t, `DROP TABLE IF EXISTS events, users`)

	pc.Exec(ctx, t, `
		CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			team_id BIGINT NOT NULL,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			age INT,
			active BOOLEAN DEFAULT true,
			created_at TIMESTAMP DEFAULT now(),
			metadata JSONB,
			tags TEXT[]
		)
	`)

	pc.Exec(ctx, t, `
		CREATE TABLE events (
			id BIGINT PRIMARY KEY,
			team_id BIGINT NOT NULL,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			event VARCHAR(255) NOT NULL,
			properties JSONB,
			"timestamp" TIMESTAMP NOT NULL
		)
	`)

	for _, stmt := range seedStatements("TRUE", "FALSE") {
		pc.Exec(ctx, t, stmt)
	}
}

func TestPostgresIntegration_Queries(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := getPostgresContainer(t)
	setupSchema(ctx, t, pc)

	runQueryCases(t, pgdialect.New(), pc.Rows)
}
