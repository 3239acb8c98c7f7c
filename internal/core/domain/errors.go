package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories a remote call can end in.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindConflict
	KindValidation
	KindNotFound
	KindServerError
	KindNetworkError
)

var kindNames = map[ErrorKind]string{
	KindUnknown:      "Unknown",
	KindUnauthorized: "Unauthorized",
	KindConflict:     "Conflict",
	KindValidation:   "Validation",
	KindNotFound:     "NotFound",
	KindServerError:  "ServerError",
	KindNetworkError: "NetworkError",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// User-facing messages.
const (
	MsgBadCredentials    = "Incorrect username or password"
	MsgUsernameTaken     = "Username already exists"
	MsgValidation        = "Validation error"
	MsgNetwork           = "Server error — please try again later."
	MsgNotAuthenticated  = "Not authenticated, please log in"
	MsgPasswordMismatch  = "Passwords don't match"
	MsgMalformedResponse = "Unexpected response from server"
	MsgResponseTooLarge  = "Response from server is too large"
)

// APIError is the structured failure returned by every client operation.
// Message is the only text shown to a user; Detail carries the raw server
// detail (or status text) verbatim.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	Status  int       `json:"status,omitempty"`
	Op      Operation `json:"operation,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is matches another *APIError of the same kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewAPIError creates a new APIError with the given kind and message.
func NewAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{
		Kind:    kind,
		Message: message,
	}
}

// WithDetail returns a copy of the error with the raw detail attached.
func (e *APIError) WithDetail(detail string) *APIError {
	c := *e
	c.Detail = detail
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *APIError) WithCause(cause error) *APIError {
	c := *e
	c.Cause = cause
	return &c
}

// WithStatus returns a copy of the error carrying the HTTP status.
func (e *APIError) WithStatus(status int) *APIError {
	c := *e
	c.Status = status
	return &c
}

func (e *APIError) withMessage(msg string) *APIError {
	c := *e
	c.Message = msg
	return &c
}

// WithOp returns a copy of the error tagged with the failed operation.
func (e *APIError) WithOp(op Operation) *APIError {
	c := *e
	c.Op = op
	return &c
}

// AsAPIError extracts an *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown if err is not an APIError.
func KindOf(err error) ErrorKind {
	if ae, ok := AsAPIError(err); ok {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Kind == kind
}

// Sentinels for errors.Is comparisons. They are templates: callers derive
// fresh values with the With* helpers and never mutate them.
var (
	ErrUnauthorized = NewAPIError(KindUnauthorized, MsgNotAuthenticated)
	ErrConflict     = NewAPIError(KindConflict, "conflict")
	ErrValidation   = NewAPIError(KindValidation, MsgValidation)
	ErrNotFound     = NewAPIError(KindNotFound, "not found")
	ErrServer       = NewAPIError(KindServerError, "server error")
	ErrNetwork      = NewAPIError(KindNetworkError, MsgNetwork)
	ErrUnknown      = NewAPIError(KindUnknown, MsgMalformedResponse)
)

// NewLocalValidationError reports input rejected before any request was made.
// Field names the offending input.
func NewLocalValidationError(field, message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Detail:  field,
	}
}
