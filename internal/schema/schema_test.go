package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/dbml"

	"github.com/zoobzio/eventql/internal/types"
)

// ===== Registry =====

func TestDatabaseRegister(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.Register(NewDatabaseTable("events")))

	err := db.Register(NewDatabaseTable("events"))
	var dup DuplicateTableError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "events", dup.Table)

	require.NoError(t, db.Freeze())
	assert.True(t, db.Frozen())
	assert.ErrorIs(t, db.Register(NewDatabaseTable("persons")), ErrFrozen)
}

func TestDatabaseLookups(t *testing.T) {
	db := MustDefault()

	assert.True(t, db.HasTable("events"))
	assert.False(t, db.HasTable("nope"))
	assert.True(t, db.HasField("events", "event"))
	assert.False(t, db.HasField("events", "nope"))
	assert.False(t, db.HasField("nope", "event"))

	f, err := db.GetField("events", "properties")
	require.NoError(t, err)
	assert.IsType(t, &JSONField{}, f)

	_, err = db.GetField("events", "nope")
	var nf types.FieldNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.Field)
	assert.Equal(t, "events", nf.Table)
	assert.ErrorIs(t, err, types.ErrResolution)

	_, err = db.Table("nope")
	assert.ErrorIs(t, err, types.ErrResolution)

	assert.Equal(t, []string{"events", "person_distinct_ids", "persons", "query_log", "raw_query_log"}, db.Tables())
}

func TestFreezeChecksReferences(t *testing.T) {
	tests := []struct {
		name  string
		table func() Table
	}{
		{
			name: "unknown join target",
			table: func() Table {
				t := NewDatabaseTable("a")
				_ = t.Add("id", &DatabaseField{Name: "id", Kind: KindInteger})
				_ = t.Add("b", &LazyJoin{Table: "b", From: "id", To: "id"})
				return t
			},
		},
		{
			name: "unknown from field",
			table: func() Table {
				t := NewDatabaseTable("a")
				_ = t.Add("self", &LazyJoin{Table: "a", From: "missing", To: "self"})
				return t
			},
		},
		{
			name: "empty traverser",
			table: func() Table {
				t := NewDatabaseTable("a")
				_ = t.Add("x", &FieldTraverser{})
				return t
			},
		},
		{
			name: "payload without source",
			table: func() Table {
				return NewPayloadTable("a", "missing", "payload")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := NewDatabase()
			require.NoError(t, db.Register(tt.table()))
			assert.Error(t, db.Freeze())
			assert.False(t, db.Frozen())
		})
	}
}

// ===== Field kinds =====

func TestPropertyGroups(t *testing.T) {
	props, err := MustDefault().GetField("events", "properties")
	require.NoError(t, err)
	json := props.(*JSONField)

	tests := []struct {
		key    string
		group  string
		column string
	}{
		{"plan", "custom", "properties_group_custom"},
		{"$browser", "", ""},
		{"utm_source", "", ""},
		{"$feature/beta", "feature_flags", "properties_group_feature_flags"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			g, ok := json.GroupFor(tt.key)
			if tt.group == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.group, g.Name)
			assert.Equal(t, tt.column, json.GroupColumn(g))
		})
	}
	assert.Equal(t, "mat_$browser", json.Materialized["$browser"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "integer", KindOf(&DatabaseField{Kind: KindInteger}))
	assert.Equal(t, "json", KindOf(&JSONField{}))
	assert.Equal(t, "lazy join", KindOf(&LazyJoin{}))
	assert.Equal(t, "virtual table", KindOf(&VirtualTable{}))
	assert.Equal(t, "field traverser", KindOf(&FieldTraverser{}))
}

func TestFieldsOrder(t *testing.T) {
	f := NewFields()
	require.NoError(t, f.Add("b", &DatabaseField{Name: "b"}))
	require.NoError(t, f.Add("a", &DatabaseField{Name: "a"}))
	assert.Error(t, f.Add("a", &DatabaseField{Name: "a"}))
	assert.Error(t, f.Add("", &DatabaseField{}))
	assert.Equal(t, []string{"b", "a"}, f.FieldNames())
}

// ===== Lazy synthesis =====

func TestPayloadTableLazySelect(t *testing.T) {
	table, err := MustDefault().Table("query_log")
	require.NoError(t, err)
	lazy, ok := table.(LazyTable)
	require.True(t, ok)

	q, err := lazy.LazySelect([]string{"cache_key", "team_id", "event_time", "cache_key"})
	require.NoError(t, err)

	expected := &types.SelectQuery{
		Select: []types.Expr{
			&types.Alias{Alias: "cache_key", Expr: &types.Call{
				Name: "JSONExtractString",
				Args: []types.Expr{
					&types.Field{Chain: []string{"raw_query_log", "log_comment"}},
					&types.Constant{Value: "cache_key"},
				},
			}},
			&types.Alias{Alias: "team_id", Expr: &types.Call{
				Name: "JSONExtractInt",
				Args: []types.Expr{
					&types.Field{Chain: []string{"raw_query_log", "log_comment"}},
					&types.Constant{Value: "team_id"},
				},
			}},
			&types.Alias{Alias: "event_time", Expr: &types.Field{Chain: []string{"raw_query_log", "event_time"}}},
		},
		SelectFrom: &types.JoinExpr{Table: &types.Field{Chain: []string{"raw_query_log"}}},
	}
	assert.Equal(t, expected, q)
}

func TestPayloadTableLazySelectEmpty(t *testing.T) {
	p := NewPayloadTable("log", "raw", "payload")
	q, err := p.LazySelect(nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Expr{&types.Constant{Value: int64(1)}}, q.Select)
}

func TestPayloadTableLazySelectUnknownField(t *testing.T) {
	p := NewPayloadTable("log", "raw", "payload")
	_, err := p.LazySelect([]string{"nope"})
	assert.ErrorIs(t, err, types.ErrResolution)
}

func TestLazyJoinVersioned(t *testing.T) {
	db := MustDefault()
	f, err := db.GetField("events", "pdi")
	require.NoError(t, err)
	j := f.(*LazyJoin)

	join, err := j.Join(db, "events", "events__pdi", []string{"person_id"})
	require.NoError(t, err)

	assert.Equal(t, "LEFT JOIN", join.JoinType)
	assert.Equal(t, "events__pdi", join.Alias)
	assert.Equal(t, &types.CompareOperation{
		Op:    types.Eq,
		Left:  &types.Field{Chain: []string{"events", "distinct_id"}},
		Right: &types.Field{Chain: []string{"events__pdi", "distinct_id"}},
	}, join.Constraint)

	q := join.Table.(*types.SelectQuery)
	require.Len(t, q.Select, 2)
	assert.Equal(t, "person_id", q.Select[0].(*types.Alias).Alias)
	assert.Equal(t, "argMax", q.Select[0].(*types.Alias).Expr.(*types.Call).Name)
	assert.Equal(t, &types.Alias{Alias: "distinct_id", Expr: &types.Field{Chain: []string{"person_distinct_ids", "distinct_id"}}}, q.Select[1])
	assert.Equal(t, []types.Expr{&types.Field{Chain: []string{"person_distinct_ids", "distinct_id"}}}, q.GroupBy)
	assert.NotNil(t, q.Having)
}

func TestLazyJoinRejectsNestedJoinField(t *testing.T) {
	db := MustDefault()
	f, _ := db.GetField("events", "pdi")
	_, err := f.(*LazyJoin).Join(db, "events", "events__pdi", []string{"person"})
	assert.Error(t, err)
}

// ===== Type lookups =====

func TestContainerOf(t *testing.T) {
	db := MustDefault()

	c, err := db.ContainerOf(&types.TableAliasType{Alias: "e", Table: &types.TableType{Table: "events"}})
	require.NoError(t, err)
	_, ok := c.Field("event")
	assert.True(t, ok)

	c, err = db.ContainerOf(&types.VirtualTableType{Table: &types.TableType{Table: "events"}, Field: "poe"})
	require.NoError(t, err)
	f, ok := c.Field("id")
	require.True(t, ok)
	assert.Equal(t, "person_id", f.(*DatabaseField).Name)

	c, err = db.ContainerOf(&types.LazyJoinType{Table: &types.TableType{Table: "events"}, Field: "pdi"})
	require.NoError(t, err)
	_, ok = c.Field("person_id")
	assert.True(t, ok)

	_, err = db.ContainerOf(&types.LazyJoinType{Table: &types.TableType{Table: "events"}, Field: "event"})
	assert.Error(t, err)

	table, err := db.TableOf(&types.VirtualTableType{Table: &types.TableType{Table: "events"}, Field: "poe"})
	require.NoError(t, err)
	assert.Equal(t, "events", table.Name())
}

func TestFieldOfFollowsSubqueryColumns(t *testing.T) {
	db := MustDefault()
	event := &types.FieldType{Name: "event", Table: &types.TableType{Table: "events"}}
	inner := types.NewSelectQueryType()
	inner.AddColumn("b", &types.FieldAliasType{Alias: "b", Type: event})
	inner.AddColumn("c", &types.CallType{Name: "count"})

	f, err := db.FieldOf(&types.FieldType{Name: "b", Table: &types.SelectQueryAliasType{Alias: "e", SelectQuery: inner}})
	require.NoError(t, err)
	assert.Equal(t, &DatabaseField{Name: "event", Kind: KindString}, f)

	f, err = db.FieldOf(&types.FieldType{Name: "c", Table: inner})
	require.NoError(t, err)
	assert.Nil(t, f)
}

// ===== Loaders =====

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("tables:\n  - name: a\n    colour: red\n"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte("tables:\n  - name: a\n    fields:\n      - {name: x, kind: blob}\n"))
	assert.Error(t, err)
}

func TestParseBuildsPrintedNames(t *testing.T) {
	db, err := Parse([]byte(`
tables:
  - name: logs
    printed_name: system.logs
    team_column: team_id
    fields:
      - {name: team_id, kind: integer}
      - {name: at, kind: datetime, column: event_time_microseconds}
`))
	require.NoError(t, err)
	table, err := db.Table("logs")
	require.NoError(t, err)
	assert.Equal(t, "system.logs", table.PrintedName())
	assert.Equal(t, "team_id", table.TeamColumn())
	f, _ := table.Field("at")
	assert.Equal(t, &DatabaseField{Name: "event_time_microseconds", Kind: KindDateTime}, f)
}

func TestFromDBML(t *testing.T) {
	project := dbml.NewProject("test")
	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("team_id", "bigint"))
	users.AddColumn(dbml.NewColumn("email", "varchar(255)"))
	users.AddColumn(dbml.NewColumn("score", "numeric"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	users.AddColumn(dbml.NewColumn("created_at", "timestamptz"))
	users.AddColumn(dbml.NewColumn("tags", "text[]"))
	users.AddColumn(dbml.NewColumn("metadata", "jsonb"))
	project.AddTable(users)

	db, err := FromDBML(project)
	require.NoError(t, err)
	table, err := db.Table("users")
	require.NoError(t, err)
	assert.Equal(t, "team_id", table.TeamColumn())
	assert.Equal(t, []string{"id", "team_id", "email", "score", "active", "created_at", "tags", "metadata"}, table.FieldNames())

	kinds := map[string]string{
		"id":         "integer",
		"email":      "string",
		"score":      "float",
		"active":     "boolean",
		"created_at": "datetime",
		"tags":       "array",
		"metadata":   "json",
	}
	for name, kind := range kinds {
		f, ok := table.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, KindOf(f), name)
	}

	_, err = FromDBML(nil)
	assert.Error(t, err)
}

func TestDefaultIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, a.Frozen())
	assert.ErrorIs(t, a.Register(NewDatabaseTable("x")), ErrFrozen)
}
