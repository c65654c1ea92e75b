// Package errkind classifies the failure modes the core can produce so a
// caller can branch on category without parsing error strings.
package errkind

import (
	"errors"
	"fmt"
)

// Kind names one of the error categories from the error-handling design.
type Kind string

const (
	DiffFormat          Kind = "diff_format"
	SeedParse           Kind = "seed_parse"
	MixedLanguage       Kind = "mixed_language"
	Io                  Kind = "io"
	ParseRecovered      Kind = "parse_recovered"
	CacheCorrupt        Kind = "cache_corrupt"
	CacheIo             Kind = "cache_io"
	TerminalInputRefused Kind = "terminal_input_refused"
)

// Error wraps a cause with a Kind so callers can test it with errors.As.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}
