// Package runerrors defines the error taxonomy of the agerun runtime.
// Parsers and evaluators surface failures as RuntimeError values carrying
// a Kind from the fixed taxonomy and, where known, the byte position in
// the source where the failure was detected. The event log remains the
// observability channel; these errors are the result type.
package runerrors

import "fmt"

// Kind classifies a runtime failure.
type Kind string

const (
	// ParseError is any lexical or syntactic failure, carrying a position
	ParseError Kind = "ParseError"
	// TypeMismatch is an operation applied to values of unsupported types
	TypeMismatch Kind = "TypeMismatch"
	// DivisionByZero is an integer or double division with a zero divisor
	DivisionByZero Kind = "DivisionByZero"
	// UnknownField is a field access that cannot be resolved: a missing
	// key, a value that is not a map, or an unavailable accessor base
	UnknownField Kind = "UnknownField"
	// ReadOnlyTarget is an assignment whose target is not rooted at memory
	ReadOnlyTarget Kind = "ReadOnlyTarget"
	// ArityMismatch is a function call with the wrong number of arguments
	ArityMismatch Kind = "ArityMismatch"
	// UnknownMethod is a lookup of a method the methodology does not hold
	UnknownMethod Kind = "UnknownMethod"
	// UnknownAgent is a reference to an agent id that is not live
	UnknownAgent Kind = "UnknownAgent"
	// PersistenceCorruption is a malformed record in a persistence file
	PersistenceCorruption Kind = "PersistenceCorruption"
	// IoFailure is an operating-system level file failure
	IoFailure Kind = "IoFailure"
	// OutOfMemory is an allocation failure
	OutOfMemory Kind = "OutOfMemory"
)

// RuntimeError is a classified runtime failure. Position is the byte
// offset where the failure was detected, or -1 when no position applies.
type RuntimeError struct {
	Kind     Kind
	Message  string
	Position int
}

// New creates a RuntimeError without position information.
func New(kind Kind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: -1,
	}
}

// NewAt creates a RuntimeError positioned at a byte offset.
func NewAt(kind Kind, position int, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: position,
	}
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s: %s (at position %d)", e.Kind, e.Message, e.Position)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HasPosition reports whether the error carries a source position.
func (e *RuntimeError) HasPosition() bool {
	return e.Position >= 0
}

// KindOf extracts the Kind of err, or the empty string for nil or
// foreign errors.
func KindOf(err error) Kind {
	if re, ok := err.(*RuntimeError); ok {
		return re.Kind
	}
	return ""
}
