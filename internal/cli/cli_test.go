package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileText(t *testing.T) {
	out, err := execute(t, "", "compile", "--dialect", "postgres", "SELECT event FROM events")
	require.NoError(t, err)
	assert.Equal(t, "SELECT \"events\".\"event\" FROM \"events\"\n", out)
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "compile", "--team", "2", "--log-comment", "x", "SELECT event FROM events")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "SELECT events.event FROM events WHERE equals(events.team_id, 2) SETTINGS log_comment = 'x'", resp.Data.SQL)
	assert.Equal(t, "clickhouse", resp.Data.Dialect)
	assert.Equal(t, []string{"event"}, resp.Data.Columns)
	assert.Equal(t, []string{"events"}, resp.Data.Tables)
	assert.NotEmpty(t, resp.Data.QueryID)
}

func TestCompilePlaceholders(t *testing.T) {
	out, err := execute(t, "", "compile", "-d", "eventql", "-p", "e='x'", "SELECT event FROM events WHERE event = {e}")
	require.NoError(t, err)
	assert.Equal(t, "SELECT event FROM events WHERE event = 'x'\n", out)

	_, err = execute(t, "", "compile", "-p", "novalue", "SELECT {e}")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "compile", "-p", "e=(", "SELECT {e}")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCompileFromFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT 1"), 0o600))

	out, err := execute(t, "", "compile", "-d", "sqlite", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1\n", out)

	out, err = execute(t, "SELECT 2", "compile", "-d", "mysql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2\n", out)

	_, err = execute(t, "  ", "compile")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "compile", "--file", path, "SELECT 1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
		exit int
	}{
		{"syntax", []string{"compile", "SELEC 1"}, ErrCodeSyntax, ExitFailure},
		{"resolution", []string{"compile", "SELECT nope FROM events"}, ErrCodeResolution, ExitFailure},
		{"print", []string{"compile", "-d", "postgres", "SELECT event FROM events SAMPLE 1/10"}, ErrCodePrint, ExitCommandError},
		{"dialect", []string{"compile", "-d", "oracle", "SELECT 1"}, ErrCodeInput, ExitCommandError},
		{"schema", []string{"--schema", "/nonexistent/schema.yaml", "compile", "SELECT 1"}, ErrCodeInput, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestCompileErrorJSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "compile", "SELECT nope FROM events")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeResolution, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "nope")
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "", "--format", "xml", "tables")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestTablesText(t *testing.T) {
	out, err := execute(t, "", "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "person_distinct_ids (person_distinct_id2)")
	assert.Contains(t, out, "query_log")
	assert.Contains(t, out, "[lazy]")
	assert.Contains(t, out, "lazy join")
}

func TestTablesJSONWithSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  - name: users
    team_column: team_id
    fields:
      - {name: id, kind: integer}
      - {name: team_id, kind: integer}
      - {name: traits, kind: json}
`), 0o600))

	out, err := execute(t, "", "--schema", path, "--format", "json", "tables")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []TableInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, TableInfo{
		Name:       "users",
		Printed:    "users",
		TeamColumn: "team_id",
		Fields: []FieldInfo{
			{Name: "id", Kind: "integer"},
			{Name: "team_id", Kind: "integer"},
			{Name: "traits", Kind: "json"},
		},
	}, resp.Data[0])
}

func TestGetDialect(t *testing.T) {
	for _, name := range DialectNames() {
		d, err := GetDialect(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, d.Name())
	}
	d, err := GetDialect("MariaDB")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = GetDialect("oracle")
	require.Error(t, err)
}

func TestParsePlaceholders(t *testing.T) {
	values, err := parsePlaceholders([]string{"a=1", "b = 'x=y'"})
	require.NoError(t, err)
	assert.Len(t, values, 2)

	_, err = parsePlaceholders([]string{"=1"})
	require.Error(t, err)
	_, err = parsePlaceholders([]string{"a=("})
	require.Error(t, err)
}
