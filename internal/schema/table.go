package schema

import (
	"github.com/zoobzio/eventql/internal/types"
)

// Table is a registered table.
type Table interface {
	Container
	// Name is the logical name queries use.
	Name() string
	// PrintedName is the physical name emitted into SQL.
	PrintedName() string
	// TeamColumn names the column scoping rows to a team, or is empty.
	TeamColumn() string
}

// LazyTable is a table without physical backing. It is replaced by the
// select it synthesizes for the fields a query uses.
type LazyTable interface {
	Table
	LazySelect(requested []string) (*types.SelectQuery, error)
}

// DatabaseTable is a physical table.
type DatabaseTable struct {
	*Fields
	name    string
	printed string
	team    string
}

// NewDatabaseTable creates a physical table printed under its own name.
func NewDatabaseTable(name string) *DatabaseTable {
	return &DatabaseTable{Fields: NewFields(), name: name, printed: name}
}

// WithPrintedName sets the physical name.
func (t *DatabaseTable) WithPrintedName(name string) *DatabaseTable {
	t.printed = name
	return t
}

// WithTeamColumn sets the team scoping column.
func (t *DatabaseTable) WithTeamColumn(column string) *DatabaseTable {
	t.team = column
	return t
}

func (t *DatabaseTable) Name() string        { return t.name }
func (t *DatabaseTable) PrintedName() string { return t.printed }
func (t *DatabaseTable) TeamColumn() string  { return t.team }
