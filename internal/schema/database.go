package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zoobzio/eventql/internal/types"
)

// ErrFrozen is returned when registering into a frozen database.
var ErrFrozen = errors.New("database is frozen")

// DuplicateTableError indicates a second registration under an existing name.
type DuplicateTableError struct {
	Table string
}

func (e DuplicateTableError) Error() string {
	return fmt.Sprintf("table %q is already registered", e.Table)
}

// Database is the registry of tables queries can reference. It is built
// once, frozen, and then shared read-only by every compilation.
type Database struct {
	tables map[string]Table
	frozen bool
}

// NewDatabase creates an empty registry.
func NewDatabase() *Database {
	return &Database{tables: make(map[string]Table)}
}

// Register adds a table.
func (d *Database) Register(t Table) error {
	if d.frozen {
		return ErrFrozen
	}
	if t == nil || t.Name() == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if _, ok := d.tables[t.Name()]; ok {
		return DuplicateTableError{Table: t.Name()}
	}
	d.tables[t.Name()] = t
	return nil
}

// Freeze checks cross-table references and makes the registry read-only.
func (d *Database) Freeze() error {
	if d.frozen {
		return nil
	}
	for _, name := range d.Tables() {
		if err := d.check(name, d.tables[name]); err != nil {
			return err
		}
	}
	d.frozen = true
	return nil
}

// Frozen reports whether Freeze succeeded.
func (d *Database) Frozen() bool {
	return d.frozen
}

func (d *Database) check(table string, c Container) error {
	for _, name := range c.FieldNames() {
		f, _ := c.Field(name)
		switch f := f.(type) {
		case *LazyJoin:
			target, ok := d.tables[f.Table]
			if !ok {
				return fmt.Errorf("lazy join %s.%s: %w", table, name, types.UnknownTableError{Table: f.Table})
			}
			if _, ok := c.Field(f.From); !ok {
				return fmt.Errorf("lazy join %s.%s: %w", table, name, types.FieldNotFoundError{Field: f.From, Table: table})
			}
			if _, ok := target.Field(f.To); !ok {
				return fmt.Errorf("lazy join %s.%s: %w", table, name, types.FieldNotFoundError{Field: f.To, Table: f.Table})
			}
		case *VirtualTable:
			if err := d.check(table+"."+name, f); err != nil {
				return err
			}
		case *FieldTraverser:
			if len(f.Chain) == 0 {
				return fmt.Errorf("field traverser %s.%s has an empty chain", table, name)
			}
		}
	}
	if p, ok := c.(*PayloadTable); ok {
		if _, ok := d.tables[p.Source]; !ok {
			return fmt.Errorf("payload table %s: %w", table, types.UnknownTableError{Table: p.Source})
		}
	}
	return nil
}

// Table returns the named table.
func (d *Database) Table(name string) (Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, types.UnknownTableError{Table: name}
	}
	return t, nil
}

// HasTable reports whether name is registered.
func (d *Database) HasTable(name string) bool {
	_, ok := d.tables[name]
	return ok
}

// HasField reports whether table exposes a field called name.
func (d *Database) HasField(table, name string) bool {
	t, ok := d.tables[table]
	if !ok {
		return false
	}
	_, ok = t.Field(name)
	return ok
}

// GetField returns a field of a table.
func (d *Database) GetField(table, name string) (Field, error) {
	t, err := d.Table(table)
	if err != nil {
		return nil, err
	}
	f, ok := t.Field(name)
	if !ok {
		return nil, types.FieldNotFoundError{Field: name, Table: table}
	}
	return f, nil
}

// Tables returns registered table names, sorted.
func (d *Database) Tables() []string {
	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContainerOf returns the field container a resolved table type refers to.
func (d *Database) ContainerOf(t types.Type) (Container, error) {
	switch t := t.(type) {
	case *types.TableType:
		return d.Table(t.Table)
	case *types.LazyTableType:
		return d.Table(t.Table)
	case *types.TableAliasType:
		return d.ContainerOf(t.Table)
	case *types.LazyJoinType:
		j, err := d.LazyJoinOf(t)
		if err != nil {
			return nil, err
		}
		return d.Table(j.Table)
	case *types.VirtualTableType:
		owner, err := d.ContainerOf(t.Table)
		if err != nil {
			return nil, err
		}
		f, ok := owner.Field(t.Field)
		if !ok {
			return nil, types.FieldNotFoundError{Field: t.Field}
		}
		v, ok := f.(*VirtualTable)
		if !ok {
			return nil, fmt.Errorf("field %q is a %s, not a virtual table", t.Field, KindOf(f))
		}
		return v, nil
	}
	return nil, fmt.Errorf("%T does not refer to a schema table", t)
}

// TableOf returns the registered table behind a resolved table type. Virtual
// tables belong to their owner.
func (d *Database) TableOf(t types.Type) (Table, error) {
	switch t := t.(type) {
	case *types.TableType:
		return d.Table(t.Table)
	case *types.LazyTableType:
		return d.Table(t.Table)
	case *types.TableAliasType:
		return d.TableOf(t.Table)
	case *types.VirtualTableType:
		return d.TableOf(t.Table)
	case *types.LazyJoinType:
		j, err := d.LazyJoinOf(t)
		if err != nil {
			return nil, err
		}
		return d.Table(j.Table)
	}
	return nil, fmt.Errorf("%T does not refer to a schema table", t)
}

// LazyJoinOf returns the lazy join field behind t.
func (d *Database) LazyJoinOf(t *types.LazyJoinType) (*LazyJoin, error) {
	owner, err := d.ContainerOf(t.Table)
	if err != nil {
		return nil, err
	}
	f, ok := owner.Field(t.Field)
	if !ok {
		return nil, types.FieldNotFoundError{Field: t.Field}
	}
	j, ok := f.(*LazyJoin)
	if !ok {
		return nil, fmt.Errorf("field %q is a %s, not a lazy join", t.Field, KindOf(f))
	}
	return j, nil
}

// FieldOf returns the schema field a field type ends at. Columns of
// subqueries are followed to the field they export; computed columns
// return nil without error.
func (d *Database) FieldOf(ft *types.FieldType) (Field, error) {
	if cols, ok := types.ColumnsOf(ft.Table); ok {
		inner, ok := types.Unalias(cols.Columns[ft.Name]).(*types.FieldType)
		if !ok {
			return nil, nil
		}
		return d.FieldOf(inner)
	}
	c, err := d.ContainerOf(ft.Table)
	if err != nil {
		return nil, err
	}
	f, ok := c.Field(ft.Name)
	if !ok {
		return nil, types.FieldNotFoundError{Field: ft.Name}
	}
	return f, nil
}
