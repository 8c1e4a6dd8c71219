package eventql

import (
	"errors"

	"github.com/zoobzio/eventql/internal/render"
	"github.com/zoobzio/eventql/internal/types"
)

// Error families.
var (
	ErrStructural    = types.ErrStructural
	ErrSyntax        = types.ErrSyntax
	ErrResolution    = types.ErrResolution
	ErrLazyExpansion = types.ErrLazyExpansion
	ErrPrint         = types.ErrPrint
)

// Re-export typed errors for errors.As.
type (
	StructuralError      = types.StructuralError
	SyntaxError          = types.SyntaxError
	UnknownTableError    = types.UnknownTableError
	FieldNotFoundError   = types.FieldNotFoundError
	AmbiguousFieldError  = types.AmbiguousFieldError
	AmbiguousTableError  = types.AmbiguousTableError
	DuplicateAliasError  = types.DuplicateAliasError
	AliasPlacementError  = types.AliasPlacementError
	AliasCycleError      = types.AliasCycleError
	RecursionLimitError  = types.RecursionLimitError
	PropertyAccessError  = types.PropertyAccessError
	UnknownFunctionError = types.UnknownFunctionError
	FunctionArityError   = types.FunctionArityError
	LazyExpansionError   = types.LazyExpansionError
	UnresolvedNodeError  = render.UnresolvedNodeError
	UnsupportedNodeError = render.UnsupportedNodeError
)

// IsUserError reports whether err is caused by the query itself: a
// malformed tree, a syntax error or a name that does not resolve. Lazy
// expansion and print errors point at the schema or the dialect.
func IsUserError(err error) bool {
	if errors.Is(err, ErrLazyExpansion) || errors.Is(err, ErrPrint) {
		return false
	}
	return errors.Is(err, ErrStructural) || errors.Is(err, ErrSyntax) || errors.Is(err, ErrResolution)
}
