package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAnObject is returned when a document to validate is not a mapping.
	ErrNotAnObject = errors.New("document is not an object")

	// ErrFieldNotQueryable is wrapped by QueryAbilities.Check for paths
	// without an ability.
	ErrFieldNotQueryable = errors.New("field is not queryable")

	// ErrOperatorNotSupported is wrapped by QueryAbilities.Check when the
	// path's element type does not allow the operator.
	ErrOperatorNotSupported = errors.New("operator is not supported")
)

// ParseError is returned when a serialized field definition cannot be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse field definition: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedOperatorError is returned by CompileQueryFragment for operators
// outside the operator symbol table.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator: %s", e.Operator)
}

// ValidationError describes one failing field of a validated document.
type ValidationError struct {
	// Path is the dot-joined field path; array elements use their index.
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}
