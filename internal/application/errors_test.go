package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatal("empty validation error must report no errors")
	}

	vErr.add("title", "title is required")
	vErr.addAll(map[string]string{"time": "end must be after start"})

	if !vErr.HasErrors() {
		t.Fatal("expected errors recorded")
	}
	if len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected 2 field errors, got %v", vErr.FieldErrors)
	}

	wrapped := fmt.Errorf("create failed: %w", vErr)
	var target *ValidationError
	if !errors.As(wrapped, &target) {
		t.Fatal("wrapped validation error must unwrap")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthorized, "unauthorized"},
		{ErrNotFound, "not_found"},
		{ErrOwnerInactive, "owner_inactive"},
		{ErrRequestResolved, "request_resolved"},
		{ErrAlreadyExists, "already_exists"},
		{&ValidationError{FieldErrors: map[string]string{"title": "required"}}, "validation"},
		{errors.New("boom"), "internal"},
		{fmt.Errorf("wrapped: %w", ErrUnauthorized), "unauthorized"},
	}

	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
