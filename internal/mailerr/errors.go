// Package mailerr defines the error kinds surfaced by mail operations.
package mailerr

import (
	"errors"
	"fmt"
)

var (
	ErrConnection        = errors.New("connection failed")
	ErrAuthentication    = errors.New("authentication failed")
	ErrList              = errors.New("listing folders failed")
	ErrFolderOpen        = errors.New("opening folder failed")
	ErrSearch            = errors.New("searching folder failed")
	ErrFetch             = errors.New("fetching messages failed")
	ErrFlag              = errors.New("flagging message failed")
	ErrExpunge           = errors.New("expunging folder failed")
	ErrInvalidIdentifier = errors.New("invalid message identifier")
	ErrSend              = errors.New("sending message failed")
	ErrParse             = errors.New("parsing message failed")
	ErrAccountNotFound   = errors.New("account not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrInvalidAccount    = errors.New("invalid account")
)

// Error ties a cause to one of the kinds above.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Wrap returns err tagged with kind. A nil err still produces an error so
// callers can report a kind without a lower-level cause.
func Wrap(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an error of the given kind from a message.
func Newf(kind error, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the first known kind err matches, or nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
