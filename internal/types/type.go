package types

// Type is what the resolver attaches to an expression: the schema entity,
// scope or value it refers to. Types name tables by their registry key and
// never hold schema data themselves.
type Type interface {
	typ()
}

// TableType refers to a registered table by name.
type TableType struct {
	Table string
}

// TableAliasType is a table reached through an alias in FROM/JOIN. Table is
// a *TableType or *LazyTableType.
type TableAliasType struct {
	Alias string
	Table Type
}

// LazyTableType refers to a registered lazy table before expansion.
type LazyTableType struct {
	Table string
}

// LazyJoinType is the table reached through a lazy join field on Table.
type LazyJoinType struct {
	Table Type
	Field string
}

// VirtualTableType is the field grouping reached through a virtual table
// field on Table.
type VirtualTableType struct {
	Table Type
	Field string
}

// FieldType is a column of Table.
type FieldType struct {
	Name  string
	Table Type
}

// FieldAliasType is a named expression. Type is the aliased expression's
// type.
type FieldAliasType struct {
	Alias string
	Type  Type
}

// FieldTraverserType is a field that redirects through Chain starting at
// Table. The resolver follows it immediately.
type FieldTraverserType struct {
	Chain []string
	Table Type
}

// PropertyType is a dynamic property path below a JSON field.
type PropertyType struct {
	Chain []string
	Field *FieldType
}

// AsteriskType is a wildcard over Table.
type AsteriskType struct {
	Table Type
}

// SelectQueryType is the scope record of one select statement.
type SelectQueryType struct {
	// Tables maps every alias (or implicit table name) in FROM/JOIN to its type.
	Tables map[string]Type
	// AnonymousTables holds unaliased FROM/JOIN entries in order.
	AnonymousTables []Type
	// Columns maps exported column names to their types.
	Columns map[string]Type
	// ColumnNames holds the keys of Columns in select-list order.
	ColumnNames []string
	// Aliases holds expression aliases declared in this select.
	Aliases map[string]*FieldAliasType
	// Macros holds the types of WITH entries declared in this select.
	Macros map[string]Type
}

// NewSelectQueryType returns an empty scope record.
func NewSelectQueryType() *SelectQueryType {
	return &SelectQueryType{
		Tables:  map[string]Type{},
		Columns: map[string]Type{},
		Aliases: map[string]*FieldAliasType{},
		Macros:  map[string]Type{},
	}
}

// AddColumn exports a column, keeping the first position of a name that is
// exported twice.
func (t *SelectQueryType) AddColumn(name string, typ Type) {
	if _, ok := t.Columns[name]; !ok {
		t.ColumnNames = append(t.ColumnNames, name)
	}
	t.Columns[name] = typ
}

// SelectQueryAliasType is a select reached through an alias. SelectQuery is
// a *SelectQueryType or *SelectUnionQueryType.
type SelectQueryAliasType struct {
	Alias       string
	SelectQuery Type
}

// SelectUnionQueryType is the type of a UNION ALL. Lookups from enclosing
// scopes use Types[0]; branches are not checked for column compatibility.
type SelectUnionQueryType struct {
	Types []*SelectQueryType
}

// CallType is the type of a call or operator expression.
type CallType struct {
	Name     string
	ArgTypes []Type
}

// ConstantType is the type of a literal.
type ConstantType struct {
	DataType string
}

// LambdaArgumentType is a lambda parameter.
type LambdaArgumentType struct {
	Name string
}

func (*TableType) typ() {}
func (*TableAliasType) typ() {}
func (*LazyTableType) typ() {}
func (*LazyJoinType) typ() {}
func (*VirtualTableType) typ() {}
func (*FieldType) typ() {}
func (*FieldAliasType) typ() {}
func (*FieldTraverserType) typ() {}
func (*PropertyType) typ() {}
func (*AsteriskType) typ() {}
func (*SelectQueryType) typ() {}
func (*SelectQueryAliasType) typ() {}
func (*SelectUnionQueryType) typ() {}
func (*CallType) typ() {}
func (*ConstantType) typ() {}
func (*LambdaArgumentType) typ() {}

// Constant data types.
const (
	DataNull     = "null"
	DataBoolean  = "boolean"
	DataInteger  = "integer"
	DataFloat    = "float"
	DataString   = "string"
	DataDateTime = "datetime"
	DataUUID     = "uuid"
	DataArray    = "array"
)

// ColumnsOf returns the exported columns of a select type. Unions expose
// their first branch.
func ColumnsOf(t Type) (*SelectQueryType, bool) {
	switch t := t.(type) {
	case *SelectQueryType:
		return t, true
	case *SelectUnionQueryType:
		if len(t.Types) == 0 {
			return nil, false
		}
		return t.Types[0], true
	case *SelectQueryAliasType:
		return ColumnsOf(t.SelectQuery)
	}
	return nil, false
}

// Unalias strips FieldAliasType wrappers.
func Unalias(t Type) Type {
	for {
		a, ok := t.(*FieldAliasType)
		if !ok {
			return t
		}
		t = a.Type
	}
}
