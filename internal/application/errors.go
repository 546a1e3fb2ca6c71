package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting identity is not in the
	// owner's authorizer set.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrOwnerInactive is returned when the request's owner has been
	// deactivated.
	ErrOwnerInactive = errors.New("application: event owner inactive")
	// ErrRequestResolved is returned when a transition is attempted against
	// a request already in a terminal state.
	ErrRequestResolved = errors.New("application: delegated request already resolved")
	// ErrAlreadyExists is returned when an entity with the same identity is
	// already stored.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// addAll copies entries from a field/message map into the receiver.
func (v *ValidationError) addAll(problems map[string]string) {
	for field, msg := range problems {
		v.add(field, msg)
	}
}
