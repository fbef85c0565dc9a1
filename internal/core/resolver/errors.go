package resolver

import (
	"fmt"
	"strings"
)

// UnresolvedDependencyError names the declaration that could not be bound
// and every location that was searched for it.
type UnresolvedDependencyError struct {
	Coordinate string
	Searched   []string
	Err        error
}

func (e *UnresolvedDependencyError) Error() string {
	msg := fmt.Sprintf("unresolved dependency %s", e.Coordinate)
	if len(e.Searched) > 0 {
		msg += fmt.Sprintf(" (searched: %s)", strings.Join(e.Searched, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvedDependencyError) Unwrap() error {
	return e.Err
}
