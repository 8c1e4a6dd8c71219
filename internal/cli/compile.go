package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoobzio/eventql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	File           string
	Dialect        string
	Team           int64
	Placeholders   []string
	LogComment     string
	PropertyGroups bool
}

// CompileOutput is the JSON payload of a successful compile.
type CompileOutput struct {
	SQL     string   `json:"sql"`
	QueryID string   `json:"query_id"`
	Dialect string   `json:"dialect"`
	Columns []string `json:"columns"`
	Tables  []string `json:"tables"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [query]",
		Short: "Compile an EventQL query to SQL",
		Long: `Compile an EventQL query to the SQL of a target dialect.

The query is read from the argument, from --file, or from stdin when
neither is given. Placeholders are filled with --placeholder name=expr,
where expr is an EventQL expression.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file")
	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "clickhouse", "target dialect ("+strings.Join(DialectNames(), "|")+")")
	cmd.Flags().Int64Var(&opts.Team, "team", 0, "filter every table with a team column by this team id")
	cmd.Flags().StringArrayVarP(&opts.Placeholders, "placeholder", "p", nil, "placeholder value as name=expr (repeatable)")
	cmd.Flags().StringVar(&opts.LogComment, "log-comment", "", "log comment for dialects with SETTINGS (default: query id JSON)")
	cmd.Flags().BoolVar(&opts.PropertyGroups, "property-groups", false, "read properties from property group columns")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, args []string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	query, err := readQuery(cmd, opts, args)
	if err != nil {
		return inputError(formatter, err)
	}
	d, err := GetDialect(opts.Dialect)
	if err != nil {
		return inputError(formatter, err)
	}
	db, err := opts.database()
	if err != nil {
		return inputError(formatter, err)
	}
	compiler, err := eventql.New(db, eventql.WithLogger(opts.logger(cmd.ErrOrStderr())))
	if err != nil {
		return inputError(formatter, err)
	}

	compileOpts := []eventql.CompileOption{eventql.WithPropertyGroups(opts.PropertyGroups)}
	if cmd.Flags().Changed("team") {
		compileOpts = append(compileOpts, eventql.WithTeamID(opts.Team))
	}
	if opts.LogComment != "" {
		compileOpts = append(compileOpts, eventql.WithLogComment(opts.LogComment))
	}
	if len(opts.Placeholders) > 0 {
		values, err := parsePlaceholders(opts.Placeholders)
		if err != nil {
			return compileError(formatter, err)
		}
		compileOpts = append(compileOpts, eventql.WithPlaceholders(values))
	}

	formatter.VerboseLog("Compiling for %s", d.Name())
	result, err := compiler.Compile(context.Background(), query, d, compileOpts...)
	if err != nil {
		return compileError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CompileOutput{
			SQL:     result.SQL,
			QueryID: result.QueryID.String(),
			Dialect: result.Dialect,
			Columns: result.Columns(),
			Tables:  result.Tables(),
		})
	}
	formatter.VerboseLog("Columns: %s", strings.Join(result.Columns(), ", "))
	formatter.VerboseLog("Tables: %s", strings.Join(result.Tables(), ", "))
	return formatter.Success(result.SQL)
}

func readQuery(cmd *cobra.Command, opts *CompileOptions, args []string) (string, error) {
	switch {
	case len(args) == 1 && opts.File != "":
		return "", fmt.Errorf("pass the query as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case opts.File != "":
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return "", fmt.Errorf("reading query: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading query: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no query given")
	}
	return string(data), nil
}

// parsePlaceholders parses name=expr pairs.
func parsePlaceholders(pairs []string) (map[string]eventql.Expr, error) {
	values := make(map[string]eventql.Expr, len(pairs))
	for _, pair := range pairs {
		name, src, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid placeholder %q: expected name=expr", pair)
		}
		e, err := eventql.ParseExpr(src)
		if err != nil {
			return nil, fmt.Errorf("placeholder %s: %w", name, err)
		}
		values[name] = e
	}
	return values, nil
}

func inputError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeInput, err.Error(), nil)
	return WrapExitError(ExitCommandError, ErrCodeInput, err)
}

// compileError reports a rejected query with ExitFailure and a defect in
// the schema or dialect with ExitCommandError.
func compileError(formatter *OutputFormatter, err error) error {
	code := ErrorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	exit := ExitCommandError
	if eventql.IsUserError(err) {
		exit = ExitFailure
	}
	return WrapExitError(exit, code, err)
}
