// Package cli implements the eventql command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zoobzio/eventql"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Schema  string // YAML schema path; the embedded schema when empty
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the eventql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "eventql",
		Short:         "Compile EventQL queries to SQL",
		Long:          "Compile EventQL, a ClickHouse-flavoured SELECT dialect over product analytics data, into SQL for a target database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "YAML schema file (default: embedded product schema)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))

	return cmd
}

// database loads the schema selected by --schema.
func (o *RootOptions) database() (*eventql.Database, error) {
	if o.Schema == "" {
		return eventql.DefaultSchema(), nil
	}
	db, err := eventql.LoadSchema(o.Schema)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return db, nil
}

// logger writes compiler records to w; debug records only with --verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
