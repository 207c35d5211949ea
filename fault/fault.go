// Package fault classifies the errors surfaced by the xtv client so callers
// can tell transport problems from credential problems without string matching.
package fault

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind int

const (
	// Network covers transport, DNS and connect failures.
	Network Kind = iota + 1
	// Protocol covers response shapes the provider or remote API should never send.
	Protocol
	// Auth covers missing, expired or revoked credentials and a failed authorization flow.
	Auth
	// NotFound covers a device or channel absent from a populated directory.
	NotFound
	// Persistence covers unreadable, unwritable or malformed local files.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case Protocol:
		return "protocol"
	case Auth:
		return "auth"
	case NotFound:
		return "not found"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNetwork     = &Error{Kind: Network}
	ErrProtocol    = &Error{Kind: Protocol}
	ErrAuth        = &Error{Kind: Auth}
	ErrNotFound    = &Error{Kind: NotFound}
	ErrPersistence = &Error{Kind: Persistence}
)

func (e *Error) Error() string {
	cause := e.Kind.String() + " error"
	if e.Err != nil {
		cause = e.Err.Error()
	}
	if e.Op == "" {
		return cause
	}
	return e.Op + ": " + cause
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Wrap classifies err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New returns a classified error with a formatted message.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
