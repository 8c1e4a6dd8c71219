package render

// Capabilities describes the features a dialect can print.
type Capabilities struct {
	Logical              bool // prints names as written; lazy entities stay unexpanded
	FunctionOperators    bool // equals(a, b) instead of a = b
	TeamGuards           bool // team column filter on every physical table
	ColumnMacros         bool // WITH expr AS name
	AliasReferences      bool // select aliases usable in other clauses
	Sample               bool // SAMPLE n[/m] [OFFSET n[/m]]
	Final                bool // FROM t FINAL
	Prewhere             bool // PREWHERE clause, merged into WHERE otherwise
	Lambdas              bool // x -> expr
	Settings             bool // SETTINGS log_comment = '...'
	MaterializedColumns  bool // properties read from materialized columns
	PropertyGroups       bool // properties read from map columns
	AlwaysQuote          bool // quote every identifier
	BackslashEscapes     bool // \' inside string literals instead of ''
	PassthroughFunctions bool // unknown functions print under their own name
	FetchPaging          bool // OFFSET n ROWS FETCH NEXT m ROWS ONLY instead of LIMIT
}

// LazyExpansion reports whether lazy tables and joins must be expanded
// before printing.
func (c Capabilities) LazyExpansion() bool {
	return !c.Logical
}
