package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure. The HTTP layer maps kinds to status
// codes; the engine itself never retries, and a failed request must not have
// mutated any state.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindForbidden
	KindNotFound
	KindInvalidRequest
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindInvalidRequest:
		return "invalid request"
	case KindInvalidState:
		return "invalid state"
	}
	return "unknown"
}

// Error is a classified engine failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds a classified error, formatting like fmt.Errorf.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification of err, or 0 if err is not an engine
// error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = &Error{Kind: KindForbidden, Message: "quiz does not exist"}
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = &Error{Kind: KindNotFound, Message: "session not found"}
	// ErrPlayerNotFound is returned when a player id does not resolve.
	ErrPlayerNotFound = &Error{Kind: KindNotFound, Message: "player ID does not exist"}
	// ErrInvalidToken is returned for a missing or unknown admin token.
	ErrInvalidToken = &Error{Kind: KindUnauthorized, Message: "token is empty or invalid"}
	// ErrNotOwner is returned when a valid admin acts on someone else's quiz.
	ErrNotOwner = &Error{Kind: KindForbidden, Message: "quiz is owned by someone else"}
)
