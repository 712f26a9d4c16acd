package provider

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed        = errors.New("authentication failed")
	ErrBuildNotFound     = errors.New("build not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrMalformedResponse = errors.New("malformed response")
	ErrMissingAccount    = errors.New("account name is not configured")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts provider errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrProviderUnknown):
		return &UserError{
			Message: "Unknown CI provider",
			Hint:    fmt.Sprintf("Registered providers: %v", Providers()),
			Err:     err,
		}
	case errors.Is(err, ErrMissingAccount):
		return &UserError{
			Message: "Account name is missing",
			Hint:    "Set APPVEYOR_ACCOUNT_NAME or account_name in the config file.",
			Err:     err,
		}
	case errors.Is(err, ErrAuthFailed):
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that APPVEYOR_ACCOUNT_TOKEN is valid. Without a token, list the projects to watch in APPVEYOR_PROJECT_NAMES.",
			Err:     err,
		}
	case errors.Is(err, ErrBuildNotFound):
		return &UserError{
			Message: "Project or build not found",
			Hint:    "Check the account name and project names, and that the token has access to them.",
			Err:     err,
		}
	case errors.Is(err, ErrRateLimited):
		return &UserError{
			Message: "Rate limited by the CI provider",
			Hint:    "Watch fewer projects or raise BUILDWATCH_POLL_INTERVAL.",
			Err:     err,
		}
	}

	return err
}
