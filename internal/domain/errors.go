package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups of archive records that do not exist.
var ErrNotFound = errors.New("not found")

// ParseError reports a malformed investigation or table file with enough
// context to point the user at the offending row.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// NewParseError builds a ParseError with a formatted message.
func NewParseError(file string, line int, format string, args ...any) *ParseError {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a graph that cannot be assembled coherently: a
// dangling edge, an unresolved upstream reference, or a duplicate rejected
// by the merge policy.
type IntegrityError struct {
	NodeID string
	Detail string
}

func (e *IntegrityError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("graph integrity: node %s: %s", e.NodeID, e.Detail)
	}
	return fmt.Sprintf("graph integrity: %s", e.Detail)
}
