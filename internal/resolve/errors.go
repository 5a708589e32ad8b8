package resolve

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProfile  = errors.New("unknown network")
	ErrMissingSecret   = errors.New("missing secret")
	ErrInvalidOverride = errors.New("invalid override")
	ErrInvalidTemplate = errors.New("invalid template")
)

// Error describes a failed resolution. Kind is one of the Err* sentinels and is
// exposed through Unwrap so callers can use errors.Is.
type Error struct {
	Kind    error
	Profile string
	Msg     string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Kind.Error()
	if e.Profile != "" {
		prefix = fmt.Sprintf("network %s: %s", e.Profile, prefix)
	}
	if e.Msg == "" {
		return prefix
	}
	return prefix + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, profile, format string, args ...any) error {
	return &Error{Kind: kind, Profile: profile, Msg: fmt.Sprintf(format, args...)}
}
