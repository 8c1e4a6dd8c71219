// Package native prints resolved trees back as EventQL. Names print as
// written and lazy entities stay unexpanded, so the output parses and
// resolves to the same tree.
package native

import (
	"github.com/zoobzio/eventql/internal/parser"
	"github.com/zoobzio/eventql/internal/render"
)

// Renderer implements the EventQL dialect.
type Renderer struct {
	render.Base
}

var _ render.Dialect = (*Renderer)(nil)

// New creates a new EventQL renderer.
func New() *Renderer {
	return &Renderer{Base: render.Base{
		DialectName: "eventql",
		Caps: render.Capabilities{
			Logical:              true,
			ColumnMacros:         true,
			AliasReferences:      true,
			Sample:               true,
			Final:                true,
			Prewhere:             true,
			Lambdas:              true,
			BackslashEscapes:     true,
			PassthroughFunctions: true,
		},
		IdentQuote: '`',
		Reserved:   parser.IsReserved,
		True:       "true",
		False:      "false",
		Functions: map[string]string{
			"array":          "[{args}]",
			"tuple/1":        "tuple(%s)",
			"tuple":          "({args})",
			"arrayElement/2": "%s[%s]",
			"tupleElement/2": "%s.%s",
		},
	}}
}
