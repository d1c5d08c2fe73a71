// Package apierr defines the error taxonomy returned to API callers and the
// JSON envelope every failure is rendered with.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wolfeidau/multicloud/internal/store"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
)

var kindStatus = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindValidation:      http.StatusBadRequest,
	KindConflict:        http.StatusConflict,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindTooManyRequests: http.StatusTooManyRequests,
}

// Messages shared by several components.
const (
	MsgEmailInUse           = "This email is already in use"
	MsgCPFInUse             = "This CPF is already in use"
	MsgCNPJInUse            = "This CNPJ is already in use"
	MsgValueInUse           = "This value is already in use"
	MsgInvalidReference     = "Invalid reference: the referenced record does not exist"
	MsgConstraint           = "Database constraint violation"
	MsgUnexpected           = "Unexpected error"
	MsgUserNotFound         = "User not found"
	MsgOrganizationNotFound = "Organization not found"
)

// Error is an error with a taxonomy kind and one or more caller-facing messages.
type Error struct {
	Kind     Kind
	Messages []string
	Err      error // underlying cause, never shown to the caller
}

func (e *Error) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	return kindStatus[e.Kind]
}

// Validation returns a 400 error with one message per failed rule.
func Validation(messages ...string) *Error {
	return &Error{Kind: KindValidation, Messages: messages}
}

// Conflict returns a 409 error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Messages: []string{message}}
}

// Unauthorized returns a 401 error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Messages: []string{message}}
}

// Forbidden returns a 403 error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Messages: []string{message}}
}

// NotFound returns a 404 error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Messages: []string{message}}
}

// TooManyRequests returns a 429 error.
func TooManyRequests(message string) *Error {
	return &Error{Kind: KindTooManyRequests, Messages: []string{message}}
}

// Internal wraps an unexpected error; the cause is logged but never rendered.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Messages: []string{MsgUnexpected}, Err: err}
}

// From converts any error into an *Error.
// Store sentinels are translated so storage details never reach the caller.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, store.ErrEmailTaken):
		return &Error{Kind: KindConflict, Messages: []string{MsgEmailInUse}, Err: err}
	case errors.Is(err, store.ErrCPFTaken):
		return &Error{Kind: KindConflict, Messages: []string{MsgCPFInUse}, Err: err}
	case errors.Is(err, store.ErrCNPJTaken):
		return &Error{Kind: KindConflict, Messages: []string{MsgCNPJInUse}, Err: err}
	case errors.Is(err, store.ErrOrganizationNameTaken):
		return &Error{Kind: KindConflict, Messages: []string{"This organization name is already in use"}, Err: err}
	case errors.Is(err, store.ErrCloudAccountAliasTaken):
		return &Error{Kind: KindConflict, Messages: []string{"This alias is already in use in the organization"}, Err: err}
	case errors.Is(err, store.ErrMembershipExists):
		return &Error{Kind: KindConflict, Messages: []string{"User is already a member of this organization"}, Err: err}
	case errors.Is(err, store.ErrConflict):
		return &Error{Kind: KindConflict, Messages: []string{MsgValueInUse}, Err: err}
	case errors.Is(err, store.ErrInvalidReference):
		return &Error{Kind: KindValidation, Messages: []string{MsgInvalidReference}, Err: err}
	case errors.Is(err, store.ErrConstraint):
		return &Error{Kind: KindValidation, Messages: []string{MsgConstraint}, Err: err}
	case errors.Is(err, store.ErrAccountNotFound):
		return &Error{Kind: KindNotFound, Messages: []string{MsgUserNotFound}, Err: err}
	case errors.Is(err, store.ErrOrganizationNotFound):
		return &Error{Kind: KindNotFound, Messages: []string{MsgOrganizationNotFound}, Err: err}
	case errors.Is(err, store.ErrCloudAccountNotFound):
		return &Error{Kind: KindNotFound, Messages: []string{"Cloud account not found"}, Err: err}
	}

	return Internal(err)
}
