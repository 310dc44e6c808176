package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("scheduled post", "7"), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("platform", "unsupported platform"), ErrValidation, true},
		{"Conflict wraps ErrConflict", Conflict("user", "ann@example.com"), ErrConflict, true},
		{"Forbidden wraps ErrForbidden", Forbidden("not your post"), ErrForbidden, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized("invalid credentials"), ErrUnauthorized, true},
		{"NotFound does NOT match ErrConflict", NotFound("user", "x"), ErrConflict, false},
		{"match survives fmt.Errorf wrapping", fmt.Errorf("service: deleting post: %w", NotFound("scheduled post", "7")), ErrNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{"NotFound", NotFound("scheduled post", "42"), "scheduled post 42 not found"},
		{"Conflict", Conflict("user", "ann@example.com"), "user ann@example.com already exists"},
		{"ValidationFailed uses custom message", ValidationFailed("reminderMinutes", "reminder lead time must be positive"), "reminder lead time must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestErrorsAs_ExtractsField(t *testing.T) {
	wrapped := fmt.Errorf("creating post: %w", ValidationFailed("platform", "unsupported platform"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() did not find *AppError")
	}
	if appErr.Field != "platform" {
		t.Errorf("Field = %q, want %q", appErr.Field, "platform")
	}
}
