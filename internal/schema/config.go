package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of a schema.
type File struct {
	Tables []TableConfig `yaml:"tables"`
}

// TableConfig describes one table.
type TableConfig struct {
	Name        string         `yaml:"name"`
	PrintedName string         `yaml:"printed_name,omitempty"`
	TeamColumn  string         `yaml:"team_column,omitempty"`
	Payload     *PayloadConfig `yaml:"payload,omitempty"`
	Fields      []FieldConfig  `yaml:"fields"`
}

// PayloadConfig turns a table into a PayloadTable.
type PayloadConfig struct {
	Source       string   `yaml:"source"`
	Column       string   `yaml:"column"`
	StringFields []string `yaml:"string_fields,omitempty"`
	IntFields    []string `yaml:"int_fields,omitempty"`
}

// FieldConfig describes one field. Kind is a column kind, or one of json,
// lazy_join, virtual and traverser.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Column   string `yaml:"column,omitempty"`
	Nullable bool   `yaml:"nullable,omitempty"`

	// json
	Materialized map[string]string `yaml:"materialized,omitempty"`
	Groups       []GroupConfig     `yaml:"groups,omitempty"`

	// lazy_join
	Table     string     `yaml:"table,omitempty"`
	From      string     `yaml:"from,omitempty"`
	To        string     `yaml:"to,omitempty"`
	Versioned *Versioned `yaml:"versioned,omitempty"`

	// virtual
	Fields []FieldConfig `yaml:"fields,omitempty"`

	// traverser
	Chain []string `yaml:"chain,omitempty"`
}

// GroupConfig describes a property group.
type GroupConfig struct {
	Name          string   `yaml:"name"`
	Prefix        string   `yaml:"prefix,omitempty"`
	ExcludePrefix string   `yaml:"exclude_prefix,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty"`
}

// Load reads a YAML schema file and returns a frozen database.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a YAML schema and returns a frozen database. Unknown keys
// are rejected.
func Decode(r io.Reader) (*Database, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return file.Build()
}

// Parse is Decode over a byte slice.
func Parse(data []byte) (*Database, error) {
	return Decode(bytes.NewReader(data))
}

// Build registers every table of the file and freezes the database.
func (f *File) Build() (*Database, error) {
	db := NewDatabase()
	for _, tc := range f.Tables {
		t, err := tc.build()
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", tc.Name, err)
		}
		if err := db.Register(t); err != nil {
			return nil, err
		}
	}
	if err := db.Freeze(); err != nil {
		return nil, err
	}
	return db, nil
}

func (tc TableConfig) build() (Table, error) {
	if tc.Name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	var fields *Fields
	var table Table
	if tc.Payload != nil {
		p := NewPayloadTable(tc.Name, tc.Payload.Source, tc.Payload.Column)
		p.StringFields = tc.Payload.StringFields
		p.IntFields = tc.Payload.IntFields
		fields, table = p.Fields, p
	} else {
		t := NewDatabaseTable(tc.Name).WithTeamColumn(tc.TeamColumn)
		if tc.PrintedName != "" {
			t.WithPrintedName(tc.PrintedName)
		}
		fields, table = t.Fields, t
	}
	if err := addFields(fields, tc.Fields); err != nil {
		return nil, err
	}
	return table, nil
}

func addFields(dst *Fields, cfgs []FieldConfig) error {
	for _, fc := range cfgs {
		f, err := fc.build()
		if err != nil {
			return fmt.Errorf("field %q: %w", fc.Name, err)
		}
		if err := dst.Add(fc.Name, f); err != nil {
			return err
		}
	}
	return nil
}

func (fc FieldConfig) column() string {
	if fc.Column != "" {
		return fc.Column
	}
	return fc.Name
}

func (fc FieldConfig) build() (Field, error) {
	switch fc.Kind {
	case "json":
		f := &JSONField{Name: fc.column(), Materialized: fc.Materialized}
		for _, g := range fc.Groups {
			f.Groups = append(f.Groups, PropertyGroup(g))
		}
		return f, nil
	case "lazy_join":
		if fc.Table == "" || fc.From == "" || fc.To == "" {
			return nil, fmt.Errorf("lazy join needs table, from and to")
		}
		return &LazyJoin{Table: fc.Table, From: fc.From, To: fc.To, Versioned: fc.Versioned}, nil
	case "virtual":
		v := &VirtualTable{Fields: NewFields()}
		if err := addFields(v.Fields, fc.Fields); err != nil {
			return nil, err
		}
		return v, nil
	case "traverser":
		return &FieldTraverser{Chain: fc.Chain}, nil
	}
	kind := ColumnKind(fc.Kind)
	switch kind {
	case KindString, KindInteger, KindFloat, KindBoolean, KindDateTime, KindUUID, KindArray:
		return &DatabaseField{Name: fc.column(), Kind: kind, Nullable: fc.Nullable}, nil
	}
	return nil, fmt.Errorf("unknown field kind %q", fc.Kind)
}
