package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the pipeline must react to it.
type Kind string

const (
	// Configuration covers missing API keys, invalid coordinates and
	// unreadable config files. Fatal before any network call.
	Configuration Kind = "configuration"

	// RemoteService covers network failures, non-2xx responses and
	// malformed payloads from a load-bearing provider. Fatal.
	RemoteService Kind = "remote_service"

	// DegradedMedia covers failures of an optional media provider.
	// Absorbed at the media boundary, never fatal.
	DegradedMedia Kind = "degraded_media"

	// Persistence covers filesystem write failures for the final
	// document or media files. Fatal.
	Persistence Kind = "persistence"
)

// Error carries a kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or the empty string when err carries none.
// Nested classified errors resolve to the outermost kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ExitCode maps an error to a process exit status for the external
// scheduler. Zero means the run succeeded.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case Configuration:
		return 2
	case RemoteService:
		return 3
	case Persistence:
		return 4
	default:
		return 1
	}
}
