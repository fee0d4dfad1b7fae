// Package failure classifies the errors an upload can end with.
//
// Every fatal condition the CLI reports carries a Kind so the pipeline can
// decide whether to retry and the notifier can pick a remediation hint.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the error classification.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindTransient
	KindAuth
	KindQuota
	KindRequest
	KindNotification
)

// String returns the lowercase name used in journal records and logs.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindRequest:
		return "request"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Retryable reports whether an error of this kind is worth another attempt.
func (k Kind) Retryable() bool { return k == KindTransient }

var (
	ErrFileNotFound = errors.New("file not found")
	ErrEmptyFile    = errors.New("file is empty")
	ErrNotRegular   = errors.New("not a regular file")
)

// Error is a classified error.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "clipup error"
	}
	msg := "clipup error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error of the same Kind, so callers can write
// errors.Is(err, &failure.Error{Kind: failure.KindAuth}).
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New wraps err with an operation name and kind.
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Input, Transient, Auth, Quota and Request are shorthands for New.
func Input(op string, err error) *Error     { return New(op, KindInput, err) }
func Transient(op string, err error) *Error { return New(op, KindTransient, err) }
func Auth(op string, err error) *Error      { return New(op, KindAuth, err) }
func Quota(op string, err error) *Error     { return New(op, KindQuota, err) }
func Request(op string, err error) *Error   { return New(op, KindRequest, err) }

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is classified as transient.
func IsRetryable(err error) bool { return KindOf(err).Retryable() }
