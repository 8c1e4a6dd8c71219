package schema

import (
	"fmt"
	"strings"

	"github.com/zoobzio/dbml"
)

// FromDBML builds a frozen database from a DBML project. Every table becomes
// a physical table; json and jsonb columns become JSON fields.
func FromDBML(project *dbml.Project) (*Database, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	db := NewDatabase()
	for _, table := range project.Tables {
		t := NewDatabaseTable(table.Name)
		for _, col := range table.Columns {
			if err := t.Add(col.Name, columnField(col.Name, col.Type)); err != nil {
				return nil, fmt.Errorf("table %q: %w", table.Name, err)
			}
			if col.Name == "team_id" {
				t.WithTeamColumn(col.Name)
			}
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

func columnField(name, sqlType string) Field {
	t := strings.ToLower(sqlType)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch {
	case t == "json" || t == "jsonb":
		return &JSONField{Name: name}
	case strings.HasSuffix(t, "[]") || strings.HasPrefix(t, "array"):
		return &DatabaseField{Name: name, Kind: KindArray}
	}
	switch t {
	case "bigint", "int", "integer", "smallint", "tinyint", "serial", "bigserial", "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64":
		return &DatabaseField{Name: name, Kind: KindInteger}
	case "float", "double", "real", "decimal", "numeric", "float32", "float64":
		return &DatabaseField{Name: name, Kind: KindFloat}
	case "bool", "boolean":
		return &DatabaseField{Name: name, Kind: KindBoolean}
	case "timestamp", "timestamptz", "datetime", "datetime64", "date":
		return &DatabaseField{Name: name, Kind: KindDateTime}
	case "uuid":
		return &DatabaseField{Name: name, Kind: KindUUID}
	}
	return &DatabaseField{Name: name, Kind: KindString}
}
