package bvh

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput      = errors.New("bvh: empty triangle list")
	ErrInvalidLeafSize = errors.New("bvh: max leaf size must be greater than zero")
	ErrIndexCount      = errors.New("bvh: index count is not a multiple of 3")
	ErrIndexOutOfRange = errors.New("bvh: vertex index out of range")
	ErrInvalidBVH      = errors.New("bvh: invalid tree")
)

// A ValidationError describes the first invariant violation found while
// validating a tree. It matches ErrInvalidBVH when used with errors.Is.
type ValidationError struct {
	// The offending node index.
	Node int32

	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: node %d: %s", ErrInvalidBVH.Error(), e.Node, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidBVH
}

func invalidf(node int32, format string, args ...interface{}) error {
	return &ValidationError{Node: node, Reason: fmt.Sprintf(format, args...)}
}
