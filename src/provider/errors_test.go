package provider

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapError_Sentinels(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantHint    string
	}{
		{
			name:        "auth failed",
			err:         ErrAuthFailed,
			wantMessage: "Authentication failed",
			wantHint:    "APPVEYOR_ACCOUNT_TOKEN",
		},
		{
			name:        "wrapped auth failed",
			err:         fmt.Errorf("list projects: %w", ErrAuthFailed),
			wantMessage: "Authentication failed",
			wantHint:    "APPVEYOR_PROJECT_NAMES",
		},
		{
			name:        "not found",
			err:         fmt.Errorf("history: %w", ErrBuildNotFound),
			wantMessage: "Project or build not found",
			wantHint:    "account name",
		},
		{
			name:        "rate limited",
			err:         ErrRateLimited,
			wantMessage: "Rate limited by the CI provider",
			wantHint:    "BUILDWATCH_POLL_INTERVAL",
		},
		{
			name:        "missing account",
			err:         ErrMissingAccount,
			wantMessage: "Account name is missing",
			wantHint:    "APPVEYOR_ACCOUNT_NAME",
		},
		{
			name:        "unknown provider",
			err:         fmt.Errorf("%w: travis", ErrProviderUnknown),
			wantMessage: "Unknown CI provider",
			wantHint:    "Registered providers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)

			userErr, ok := wrapped.(*UserError)
			if !ok {
				t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
			}
			if userErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", userErr.Message, tt.wantMessage)
			}
			if !strings.Contains(userErr.Hint, tt.wantHint) {
				t.Errorf("Hint should contain %q, got %q", tt.wantHint, userErr.Hint)
			}
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("errors.Is(wrapped, original) = false, want true")
			}
		})
	}
}

func TestWrapError_OtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "malformed response", err: ErrMalformedResponse},
		{name: "generic error", err: errors.New("something went wrong")},
		{name: "401 text without sentinel", err: errors.New("401 Unauthorized")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)
			if wrapped != tt.err {
				t.Errorf("WrapError() = %v, want original error %v", wrapped, tt.err)
			}
		})
	}
}

func TestWrapError_NilError(t *testing.T) {
	if wrapped := WrapError(nil); wrapped != nil {
		t.Errorf("WrapError(nil) = %v, want nil", wrapped)
	}
}

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name    string
		userErr *UserError
		want    []string
	}{
		{
			name:    "message only",
			userErr: &UserError{Message: "Something went wrong"},
			want:    []string{"Something went wrong"},
		},
		{
			name:    "message with hint",
			userErr: &UserError{Message: "Something went wrong", Hint: "Try this"},
			want:    []string{"Something went wrong", "Hint: Try this"},
		},
		{
			name: "message with hint and error",
			userErr: &UserError{
				Message: "Something went wrong",
				Hint:    "Try this",
				Err:     errors.New("original error"),
			},
			want: []string{"Something went wrong", "Hint: Try this", "Details: original error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.userErr.Error()

			// Parts must appear in order: message, hint, details
			last := -1
			for _, part := range tt.want {
				idx := strings.Index(got, part)
				if idx < 0 {
					t.Fatalf("Error() should contain %q, got %q", part, got)
				}
				if idx <= last {
					t.Errorf("%q appears out of order in %q", part, got)
				}
				last = idx
			}
			if !strings.HasPrefix(got, tt.userErr.Message) {
				t.Errorf("Message should be at start, got %q", got)
			}
		})
	}
}

func TestUserError_Unwrap(t *testing.T) {
	userErr := &UserError{Message: "Something went wrong", Err: ErrAuthFailed}
	if got := userErr.Unwrap(); got != ErrAuthFailed {
		t.Errorf("Unwrap() = %v, want %v", got, ErrAuthFailed)
	}
	if !errors.Is(userErr, ErrAuthFailed) {
		t.Error("errors.Is(userErr, ErrAuthFailed) = false, want true")
	}

	bare := &UserError{Message: "Something went wrong"}
	if got := bare.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}
