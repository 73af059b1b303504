package view

import (
	"errors"
	"fmt"
)

// ErrorKind separates failures raised while building a view from failures
// raised while resolving names during event setup.
type ErrorKind string

const (
	// KindConfiguration fails construction or definition.
	KindConfiguration ErrorKind = "configuration"

	// KindLookup fails event setup.
	KindLookup ErrorKind = "lookup"
)

// ErrorCode identifies the specific failure.
type ErrorCode string

const (
	// ErrCodeInvalidProp indicates a prop failed schema validation.
	ErrCodeInvalidProp ErrorCode = "INVALID_PROP"

	// ErrCodePropCollision indicates a prop name shadows a view member.
	ErrCodePropCollision ErrorCode = "PROP_COLLISION"

	// ErrCodeMemberCollision indicates two behaviors, or a behavior and the
	// type, declare the same member.
	ErrCodeMemberCollision ErrorCode = "MEMBER_COLLISION"

	// ErrCodeUnknownHandler indicates an event handler names a method the
	// view does not have.
	ErrCodeUnknownHandler ErrorCode = "UNKNOWN_HANDLER"

	// ErrCodeUnresolvedVariable indicates a {{this.x}} reference in an event
	// spec could not be resolved.
	ErrCodeUnresolvedVariable ErrorCode = "UNRESOLVED_VARIABLE"

	// ErrCodeInvalidSelector indicates a selector failed to parse.
	ErrCodeInvalidSelector ErrorCode = "INVALID_SELECTOR"

	// ErrCodeInvalidEventSpec indicates a malformed event spec or a binding
	// without a target.
	ErrCodeInvalidEventSpec ErrorCode = "INVALID_EVENT_SPEC"

	// ErrCodeMissingBehavior indicates an operation needs a behavior the
	// view type was not defined with.
	ErrCodeMissingBehavior ErrorCode = "MISSING_BEHAVIOR"

	// ErrCodeParentRemoved indicates a lazy mapping resolved after its
	// parent was removed.
	ErrCodeParentRemoved ErrorCode = "PARENT_REMOVED"
)

// Error is the error type returned by every view operation.
type Error struct {
	Kind ErrorKind
	Code ErrorCode

	// View is the id of the view involved, empty during Define.
	View string

	// Field is the prop, member, handler or spec the error concerns.
	Field string

	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.View != "" && e.Field != "":
		msg += fmt.Sprintf(" (view=%s, field=%s)", e.View, e.Field)
	case e.View != "":
		msg += fmt.Sprintf(" (view=%s)", e.View)
	case e.Field != "":
		msg += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsConfigError reports whether err contains a configuration error.
// Joined errors are searched too.
func IsConfigError(err error) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == KindConfiguration
}

// IsLookupError reports whether err contains a lookup error.
func IsLookupError(err error) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == KindLookup
}

// HasCode reports whether any *Error in err's tree carries code.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var ve *Error
	if errors.As(err, &ve) && ve.Code == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if HasCode(e, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return HasCode(x.Unwrap(), code)
	}
	return false
}

// Errors flattens err into the *Error values it contains, in order.
func Errors(err error) []*Error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*Error); ok {
		return []*Error{ve}
	}
	if x, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*Error
		for _, e := range x.Unwrap() {
			out = append(out, Errors(e)...)
		}
		return out
	}
	var ve *Error
	if errors.As(err, &ve) {
		return []*Error{ve}
	}
	return nil
}

func configError(code ErrorCode, view, field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Code:    code,
		View:    view,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func lookupError(code ErrorCode, view, field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindLookup,
		Code:    code,
		View:    view,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
