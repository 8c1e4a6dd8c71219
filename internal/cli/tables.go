package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zoobzio/eventql/internal/schema"
)

// TableInfo describes one schema table.
type TableInfo struct {
	Name       string      `json:"name"`
	Printed    string      `json:"printed_name"`
	TeamColumn string      `json:"team_column,omitempty"`
	Lazy       bool        `json:"lazy,omitempty"`
	Fields     []FieldInfo `json:"fields"`
}

// FieldInfo describes one field of a table.
type FieldInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tables",
		Short:         "List the tables and fields of the schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(cmd, rootOpts)
		},
	}
}

func runTables(cmd *cobra.Command, opts *RootOptions) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := opts.database()
	if err != nil {
		return inputError(formatter, err)
	}

	var tables []TableInfo
	for _, name := range db.Tables() {
		t, err := db.Table(name)
		if err != nil {
			return inputError(formatter, err)
		}
		_, lazy := t.(schema.LazyTable)
		info := TableInfo{Name: name, Printed: t.PrintedName(), TeamColumn: t.TeamColumn(), Lazy: lazy}
		for _, field := range t.FieldNames() {
			f, _ := t.Field(field)
			info.Fields = append(info.Fields, FieldInfo{Name: field, Kind: schema.KindOf(f)})
		}
		tables = append(tables, info)
	}

	if formatter.Format == "json" {
		return formatter.Success(tables)
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	for _, t := range tables {
		header := t.Name
		if t.Printed != t.Name {
			header += " (" + t.Printed + ")"
		}
		if t.Lazy {
			header += " [lazy]"
		}
		fmt.Fprintln(w, header)
		for _, f := range t.Fields {
			fmt.Fprintf(w, "  %s\t%s\n", f.Name, f.Kind)
		}
	}
	return w.Flush()
}
