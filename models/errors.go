package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so the transport layer can map them to
// HTTP statuses in one place.
type ErrorKind int

const (
	// KindNotFound: a referenced course/module/lesson/user is absent.
	KindNotFound ErrorKind = iota
	// KindInvalidOperation: semantically wrong call for entity state, e.g.
	// completing a quiz via the non-quiz path.
	KindInvalidOperation
	// KindInvalidInput: malformed or empty submitted data.
	KindInvalidInput
	// KindInvalidState: server-side data integrity problem, e.g. a quiz with
	// zero questions.
	KindInvalidState
	// KindExternalService: the LLM dependency is unavailable. Confined to the
	// practice-generation feature; never affects progress or points.
	KindExternalService
)

type Error struct {
	Kind    ErrorKind
	Entity  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundErr(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("not found with id %d", id)}
}

func InvalidOperationErr(message string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: message}
}

func InvalidInputErr(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func InvalidStateErr(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func ExternalServiceErr(message string, err error) *Error {
	return &Error{Kind: KindExternalService, Message: message, Err: err}
}

// AsError unwraps err into a domain *Error if possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
