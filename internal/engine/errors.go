package engine

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures.
type Kind int

const (
	// KindConfiguration covers parameters that are well-formed but cannot be
	// satisfied: unknown pattern codes, over-committed distributions and
	// session/pattern cardinality mismatches.
	KindConfiguration Kind = iota + 1
	// KindInputShape covers missing or out-of-range fields, detected before
	// any calculation starts.
	KindInputShape
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInputShape:
		return "input_shape"
	default:
		return "unknown"
	}
}

var (
	ErrConfiguration = errors.New("configuration error")
	ErrInputShape    = errors.New("input shape error")
)

// Error identifies the lift, field and value that made a calculation fail.
type Error struct {
	Kind   Kind
	Lift   string
	Field  string
	Value  any
	Reason string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s=%v: %s", e.Kind, e.Field, e.Value, e.Reason)
	}
	if e.Lift != "" {
		msg = e.Lift + ": " + msg
	}
	return msg
}

// Unwrap lets callers match on ErrConfiguration or ErrInputShape.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindConfiguration:
		return ErrConfiguration
	case KindInputShape:
		return ErrInputShape
	default:
		return nil
	}
}

func configError(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

func shapeError(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: KindInputShape, Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// annotate returns a copy of err's *Error with the lift (and, when non-empty,
// the field) filled in. Other errors pass through unchanged.
func annotate(err error, lift, field string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	c := *e
	c.Lift = lift
	if field != "" {
		c.Field = field
	}
	return &c
}
