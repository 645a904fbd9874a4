package audit

import (
	"fmt"

	"supportops/pkg/platform/sentinel"
)

// Lifecycle violations wrap sentinel.ErrInvalidState so callers can match
// with errors.Is while logs keep the specifics.

func errInvalidStatus(s Status) error {
	return fmt.Errorf("%w: unknown status %q", sentinel.ErrInvalidState, s)
}

func errIllegalTransition(from, to Status) error {
	return fmt.Errorf("%w: transition %s -> %s", sentinel.ErrInvalidState, from, to)
}

func errTokenOutsideAllowed(to Status) error {
	return fmt.Errorf("%w: audit token may only be set with status %s, got %s", sentinel.ErrInvalidState, StatusAllowed, to)
}

func errTokenRewrite() error {
	return fmt.Errorf("%w: audit token is already set and cannot be rewritten", sentinel.ErrInvalidState)
}
