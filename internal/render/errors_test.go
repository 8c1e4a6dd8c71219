package render

import (
	"errors"
	"testing"

	"github.com/zoobzio/eventql/internal/types"
)

func TestUnsupportedNodeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      UnsupportedNodeError
		expected string
	}{
		{
			name: "without hint",
			err: UnsupportedNodeError{
				Node:    "SAMPLE",
				Dialect: "postgres",
			},
			expected: "postgres: SAMPLE is not supported",
		},
		{
			name: "with hint",
			err: UnsupportedNodeError{
				Node:    "function argMax",
				Dialect: "sqlite",
				Hint:    "no template for 2 arguments",
			},
			expected: "sqlite: function argMax is not supported: no template for 2 arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNewUnsupportedNodeError(t *testing.T) {
	t.Run("without hint", func(t *testing.T) {
		err := NewUnsupportedNodeError("mysql", "FINAL")
		var unErr UnsupportedNodeError
		if !errors.As(err, &unErr) {
			t.Fatal("expected UnsupportedNodeError")
		}
		if unErr.Dialect != "mysql" {
			t.Errorf("Dialect = %q, want %q", unErr.Dialect, "mysql")
		}
		if unErr.Node != "FINAL" {
			t.Errorf("Node = %q, want %q", unErr.Node, "FINAL")
		}
		if unErr.Hint != "" {
			t.Errorf("Hint = %q, want empty", unErr.Hint)
		}
	})

	t.Run("with hint", func(t *testing.T) {
		err := NewUnsupportedNodeError("sqlite", "lambda", "rewrite with a join")
		var unErr UnsupportedNodeError
		if !errors.As(err, &unErr) {
			t.Fatal("expected UnsupportedNodeError")
		}
		if unErr.Hint != "rewrite with a join" {
			t.Errorf("Hint = %q, want %q", unErr.Hint, "rewrite with a join")
		}
	})
}

func TestPrintErrors_Family(t *testing.T) {
	for _, err := range []error{
		UnsupportedNodeError{Node: "FINAL", Dialect: "sqlite"},
		UnresolvedNodeError{Node: "Field"},
	} {
		if !errors.Is(err, types.ErrPrint) {
			t.Errorf("%v does not unwrap to ErrPrint", err)
		}
		if errors.Is(err, types.ErrResolution) {
			t.Errorf("%v unwraps to ErrResolution", err)
		}
	}
	if got := (UnresolvedNodeError{Node: "Call"}).Error(); got != "cannot print unresolved Call" {
		t.Errorf("Error() = %q", got)
	}
}
