package document

import (
	"fmt"
	"strings"
)

// UnknownObjectError reports an ID not present in the document.
type UnknownObjectError struct {
	ID string
}

func (e *UnknownObjectError) Error() string {
	return fmt.Sprintf("no object %q in document", e.ID)
}

// UnknownTypeError reports an unregistered object type.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown object type %q", e.Type)
}

// LinkTargetError reports a link value that cannot be stored.
type LinkTargetError struct {
	Object string
	Target string
	Reason string
}

func (e *LinkTargetError) Error() string {
	return fmt.Sprintf("link from %q to %q: %s", e.Object, e.Target, e.Reason)
}

// LinkedObjectError reports a removal blocked by inbound links.
type LinkedObjectError struct {
	ID      string
	Holders []string
}

func (e *LinkedObjectError) Error() string {
	return fmt.Sprintf("cannot remove %q: still linked from %s", e.ID, strings.Join(e.Holders, ", "))
}

// ExecuteError reports that an object's own computation failed. The object
// is marked Error, its dependents are blocked, and the pass continues.
type ExecuteError struct {
	ObjectID string
	Err      error
}

func (e *ExecuteError) Error() string {
	return fmt.Sprintf("execute %s: %v", e.ObjectID, e.Err)
}

func (e *ExecuteError) Unwrap() error { return e.Err }

// BlockedError marks an object that was skipped because something upstream
// of it failed; executing it would read stale inputs.
type BlockedError struct {
	ObjectID string
	Upstream string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s blocked by upstream failure of %s", e.ObjectID, e.Upstream)
}
