package board

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure recorded against a clip.
type ErrorKind string

const (
	// FetchError means the transport could not deliver the clip bytes.
	FetchError ErrorKind = "FETCH_ERROR"
	// DecodeError means the bytes were malformed, unsupported or crashed the decoder.
	DecodeError ErrorKind = "DECODE_ERROR"
	// ResumeError means the output context could not leave the suspended state.
	ResumeError ErrorKind = "RESUME_ERROR"
	// PlaybackError covers any other failure while building or starting the graph.
	PlaybackError ErrorKind = "PLAYBACK_ERROR"
)

// Error is a failure for one clip. Its message is what the status map shows.
type Error struct {
	Kind    ErrorKind
	ID      string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a board *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

func newError(kind ErrorKind, id, msg string, cause error) *Error {
	return &Error{Kind: kind, ID: id, Message: msg, Cause: cause}
}
