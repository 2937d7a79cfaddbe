package validationrequest

import (
	"fmt"

	gerrors "github.com/go-faster/errors"
)

var ErrNotFound = gerrors.New("validation request not found")

const (
	OpMarkAsSent = "mark_as_sent"
	OpCancel     = "cancel"
	OpClose      = "close"
	OpAutoClose  = "auto_close"
)

// InvalidTransitionError reports an operation attempted from a state it is
// not legal in. Cancelled and closed are terminal.
type InvalidTransitionError struct {
	From State
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a validation request in state %q", e.Op, e.From)
}

// ExclusivityError reports a create attempt while a pending or open sibling
// exists for the same family target.
type ExclusivityError struct {
	Kind      Kind
	FamilyKey string
}

func (e *ExclusivityError) Error() string {
	return fmt.Sprintf("an open or pending %s request already exists for %q", e.Kind, e.FamilyKey)
}

// CreationWindowClosedError reports a kind that can no longer be created at
// the case's current status.
type CreationWindowClosedError struct {
	Kind Kind
}

func (e *CreationWindowClosedError) Error() string {
	return fmt.Sprintf("%s requests cannot be created after validation", e.Kind)
}
