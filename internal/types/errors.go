package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error families. Every typed error in the compiler unwraps to one of
// these, so callers can classify with errors.Is.
var (
	ErrStructural    = errors.New("structural error")
	ErrSyntax        = errors.New("syntax error")
	ErrResolution    = errors.New("resolution error")
	ErrLazyExpansion = errors.New("lazy expansion error")
	ErrPrint         = errors.New("print error")
)

// StructuralError indicates a malformed node.
type StructuralError struct {
	Node      string
	Attribute string
	Reason    string
}

func (e StructuralError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s.%s: %s", e.Node, e.Attribute, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Node, e.Reason)
}

func (StructuralError) Unwrap() error { return ErrStructural }

// SyntaxError indicates query text that does not parse. Line and Column
// are 1-based.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func (SyntaxError) Unwrap() error { return ErrSyntax }

// UnhandledNodeError is returned by a visitor that has no method for a
// node shape.
type UnhandledNodeError struct {
	Node    string
	Visitor string
}

func (e UnhandledNodeError) Error() string {
	if e.Visitor != "" {
		return fmt.Sprintf("%s has no method Visit%s", e.Visitor, e.Node)
	}
	return fmt.Sprintf("visitor has no method Visit%s", e.Node)
}

// UnknownTableError indicates a FROM/JOIN reference to an unregistered table.
type UnknownTableError struct {
	Table string
	Scope []string
}

func (e UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table %q%s", e.Table, scopeSuffix(e.Scope))
}

func (UnknownTableError) Unwrap() error { return ErrResolution }

// FieldNotFoundError indicates a field that no visible table exposes.
type FieldNotFoundError struct {
	Field string
	Table string
	Scope []string
}

func (e FieldNotFoundError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("field %q not found on table %q", e.Field, e.Table)
	}
	return fmt.Sprintf("field %q not found%s", e.Field, scopeSuffix(e.Scope))
}

func (FieldNotFoundError) Unwrap() error { return ErrResolution }

// AmbiguousFieldError indicates a bare field exposed by several tables.
type AmbiguousFieldError struct {
	Field  string
	Tables []string
}

func (e AmbiguousFieldError) Error() string {
	return fmt.Sprintf("field %q is ambiguous, found in tables %s", e.Field, strings.Join(e.Tables, ", "))
}

func (AmbiguousFieldError) Unwrap() error { return ErrResolution }

// AmbiguousTableError indicates the same table joined twice without aliases.
type AmbiguousTableError struct {
	Table string
}

func (e AmbiguousTableError) Error() string {
	return fmt.Sprintf("ambiguous table reference %q, add an alias", e.Table)
}

func (AmbiguousTableError) Unwrap() error { return ErrResolution }

// DuplicateAliasError indicates one name bound to two different things in
// a scope.
type DuplicateAliasError struct {
	Alias string
	Scope []string
}

func (e DuplicateAliasError) Error() string {
	return fmt.Sprintf("different expressions with the same alias %q%s", e.Alias, scopeSuffix(e.Scope))
}

func (DuplicateAliasError) Unwrap() error { return ErrResolution }

// AliasPlacementError indicates an alias declared outside the select list.
type AliasPlacementError struct {
	Alias  string
	Clause string
}

func (e AliasPlacementError) Error() string {
	return fmt.Sprintf("alias %q cannot be declared in %s", e.Alias, e.Clause)
}

func (AliasPlacementError) Unwrap() error { return ErrResolution }

// AliasCycleError indicates a chain of aliases or macros that refers back
// to itself.
type AliasCycleError struct {
	Alias string
	Chain []string
}

func (e AliasCycleError) Error() string {
	return fmt.Sprintf("alias %q refers to itself through %s", e.Alias, strings.Join(e.Chain, " -> "))
}

func (AliasCycleError) Unwrap() error { return ErrResolution }

// RecursionLimitError indicates a tree nested deeper than allowed.
type RecursionLimitError struct {
	Limit int
}

func (e RecursionLimitError) Error() string {
	return fmt.Sprintf("query nesting exceeds the maximum depth of %d", e.Limit)
}

func (RecursionLimitError) Unwrap() error { return ErrResolution }

// PropertyAccessError indicates a dotted access below a field that has no
// properties.
type PropertyAccessError struct {
	Field    string
	Kind     string
	Property string
}

func (e PropertyAccessError) Error() string {
	return fmt.Sprintf("cannot access property %q on field %q of kind %s", e.Property, e.Field, e.Kind)
}

func (PropertyAccessError) Unwrap() error { return ErrResolution }

// UnknownFunctionError indicates a call to a function outside the catalog.
type UnknownFunctionError struct {
	Name string
}

func (e UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

func (UnknownFunctionError) Unwrap() error { return ErrResolution }

// FunctionArityError indicates a call with the wrong number of arguments.
type FunctionArityError struct {
	Name string
	Got  int
	Min  int
	Max  int
}

func (e FunctionArityError) Error() string {
	switch {
	case e.Max < 0:
		return fmt.Sprintf("function %q takes at least %d arguments, got %d", e.Name, e.Min, e.Got)
	case e.Min == e.Max:
		return fmt.Sprintf("function %q takes %d arguments, got %d", e.Name, e.Min, e.Got)
	}
	return fmt.Sprintf("function %q takes %d to %d arguments, got %d", e.Name, e.Min, e.Max, e.Got)
}

func (FunctionArityError) Unwrap() error { return ErrResolution }

// LazyExpansionError indicates a lazy table or join that could not be
// synthesized for the requested fields.
type LazyExpansionError struct {
	Table  string
	Fields []string
	Err    error
}

func (e LazyExpansionError) Error() string {
	msg := fmt.Sprintf("cannot expand lazy table %q", e.Table)
	if len(e.Fields) > 0 {
		msg += fmt.Sprintf(" for fields [%s]", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e LazyExpansionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLazyExpansion}
	}
	return []error{ErrLazyExpansion, e.Err}
}

func scopeSuffix(scope []string) string {
	if len(scope) == 0 {
		return ""
	}
	return fmt.Sprintf(" (in scope: %s)", strings.Join(scope, ", "))
}
