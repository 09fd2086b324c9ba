package property

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// TypeMismatchError reports a set whose value type disagrees with the
// property's declared kind. The set is rejected with no state change.
type TypeMismatchError struct {
	Property string
	Kind     Kind
	Got      cty.Type
}

func (e *TypeMismatchError) Error() string {
	if e.Got == cty.NilType {
		return fmt.Sprintf("property %q: value does not match declared kind %s", e.Property, e.Kind)
	}
	return fmt.Sprintf("property %q: cannot assign %s to declared kind %s", e.Property, e.Got.FriendlyName(), e.Kind)
}

// PermissionError reports a write to a read-only property from outside the
// owning object's execute.
type PermissionError struct {
	Property string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("property %q is read-only", e.Property)
}

// UnknownPropertyError reports access to a property name the container
// never declared.
type UnknownPropertyError struct {
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("no property named %q", e.Property)
}

// DuplicateError reports a second declaration of an existing property name.
type DuplicateError struct {
	Property string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("property %q already declared", e.Property)
}
