package schema

import (
	"fmt"
	"strings"
)

// Field is one entry of a table: a column, a JSON field, a lazy join, a
// virtual table or a traverser.
type Field interface {
	field()
}

// ColumnKind is the value kind of a physical column.
type ColumnKind string

const (
	KindString   ColumnKind = "string"
	KindInteger  ColumnKind = "integer"
	KindFloat    ColumnKind = "float"
	KindBoolean  ColumnKind = "boolean"
	KindDateTime ColumnKind = "datetime"
	KindUUID     ColumnKind = "uuid"
	KindArray    ColumnKind = "array"
)

// DatabaseField is a physical column. Name is the printed column name.
type DatabaseField struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// JSONField is a column holding a JSON object whose keys are addressable as
// properties.
type JSONField struct {
	Name string
	// Materialized maps a top-level property key to a column holding its
	// extracted value.
	Materialized map[string]string
	// Groups are map columns holding subsets of the properties.
	Groups []PropertyGroup
}

// GroupFor returns the first property group holding key.
func (f *JSONField) GroupFor(key string) (PropertyGroup, bool) {
	for _, g := range f.Groups {
		if g.Contains(key) {
			return g, true
		}
	}
	return PropertyGroup{}, false
}

// GroupColumn is the map column backing a property group.
func (f *JSONField) GroupColumn(g PropertyGroup) string {
	return fmt.Sprintf("%s_group_%s", f.Name, g.Name)
}

// PropertyGroup selects property keys stored in a map column.
type PropertyGroup struct {
	Name          string
	Prefix        string
	ExcludePrefix string
	Exclude       []string
}

// Contains reports whether key belongs to the group.
func (g PropertyGroup) Contains(key string) bool {
	if g.Prefix != "" && !strings.HasPrefix(key, g.Prefix) {
		return false
	}
	if g.ExcludePrefix != "" && strings.HasPrefix(key, g.ExcludePrefix) {
		return false
	}
	for _, ex := range g.Exclude {
		if ex == key {
			return false
		}
	}
	return true
}

// LazyJoin makes another table reachable as a field. The join is added to
// the query only when one of its fields is used.
type LazyJoin struct {
	// Table is the joined table.
	Table string
	// From is the key field on the owning table.
	From string
	// To is the key field on the joined table.
	To string
	// Versioned collapses rows of the joined table to their latest version.
	Versioned *Versioned
}

// Versioned describes a table with one row per key and version, where the
// highest version wins and a deleted flag hides the key.
type Versioned struct {
	Version string
	Deleted string
}

// VirtualTable groups fields of the owning table under one name.
type VirtualTable struct {
	*Fields
}

// FieldTraverser redirects a field through Chain.
type FieldTraverser struct {
	Chain []string
}

func (*DatabaseField) field()  {}
func (*JSONField) field()      {}
func (*LazyJoin) field()       {}
func (*VirtualTable) field()   {}
func (*FieldTraverser) field() {}

// KindOf describes a field kind for error messages.
func KindOf(f Field) string {
	switch f := f.(type) {
	case *DatabaseField:
		return string(f.Kind)
	case *JSONField:
		return "json"
	case *LazyJoin:
		return "lazy join"
	case *VirtualTable:
		return "virtual table"
	case *FieldTraverser:
		return "field traverser"
	}
	return "unknown"
}

// Fields is an ordered set of named fields.
type Fields struct {
	names  []string
	byName map[string]Field
}

// NewFields creates an empty field set.
func NewFields() *Fields {
	return &Fields{byName: map[string]Field{}}
}

// Add appends a field. Names must be unique.
func (f *Fields) Add(name string, field Field) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if _, ok := f.byName[name]; ok {
		return fmt.Errorf("field %q declared twice", name)
	}
	f.names = append(f.names, name)
	f.byName[name] = field
	return nil
}

// Field returns the named field.
func (f *Fields) Field(name string) (Field, bool) {
	field, ok := f.byName[name]
	return field, ok
}

// FieldNames returns field names in declaration order.
func (f *Fields) FieldNames() []string {
	return append([]string(nil), f.names...)
}

// Container is anything that exposes named fields: tables and virtual
// tables.
type Container interface {
	Field(name string) (Field, bool)
	FieldNames() []string
}

// Selectable reports whether a field is a plain column that * expands to.
func Selectable(f Field) bool {
	switch f.(type) {
	case *DatabaseField, *JSONField:
		return true
	}
	return false
}
