package render

import (
	"fmt"

	"github.com/zoobzio/eventql/internal/types"
)

// UnsupportedNodeError indicates a node or function the dialect cannot print.
type UnsupportedNodeError struct {
	Node    string
	Dialect string
	Hint    string
}

func (e UnsupportedNodeError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s is not supported: %s", e.Dialect, e.Node, e.Hint)
	}
	return fmt.Sprintf("%s: %s is not supported", e.Dialect, e.Node)
}

func (UnsupportedNodeError) Unwrap() error { return types.ErrPrint }

// NewUnsupportedNodeError creates a new unsupported node error.
func NewUnsupportedNodeError(dialect, node string, hint ...string) error {
	err := UnsupportedNodeError{Node: node, Dialect: dialect}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return err
}

// UnresolvedNodeError indicates an expression reached the printer without a
// type.
type UnresolvedNodeError struct {
	Node string
}

func (e UnresolvedNodeError) Error() string {
	return fmt.Sprintf("cannot print unresolved %s", e.Node)
}

func (UnresolvedNodeError) Unwrap() error { return types.ErrPrint }
