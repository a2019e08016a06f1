package form

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrReadOnly is returned when a script assigns a read-only property.
	ErrReadOnly = errors.New("read-only property")
	// ErrInvalidArgument is returned for wrongly typed arguments to a
	// public field or document method.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ActionError reports a script that failed while running an action list.
type ActionError struct {
	Target string
	Event  string
	Index  int
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s action %d on %q: %v", e.Event, e.Index, e.Target, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
