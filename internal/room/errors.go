package room

import "fmt"

// ConflictError covers duplicate-name joins and other state conflicts
// the HTTP layer surfaces as 409.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Reason)
}

// UnauthorizedError covers failed admin-password or host-token checks.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}
