package orm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolNotFound is returned by GetByID when no row has the requested ID.
var ErrToolNotFound = errors.New("tool not found")

// ErrNoGeneratedID marks an insert that did not report the new row's ID.
var ErrNoGeneratedID = errors.New("no id generated")

// PersistenceError wraps a failed statement, or a result that breaks an
// invariant, with the repository operation that issued it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s tool: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports a Tool the repository refuses to write.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid tool: %s %s", strings.Join(e.Fields, ", "), e.Reason)
}
