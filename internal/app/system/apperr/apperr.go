// Package apperr defines the typed outcomes returned by the catalog and
// enrollment engines.
//
// Domain checks (not found, forbidden, conflict, validation) are returned
// as *Error values with a Kind and a machine-checkable Code. Anything
// unexpected from the store is wrapped with Internal.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an outcome. Transports map a Kind to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	}
	return "internal"
}

// Codes carried by Error.Code.
const (
	CodeNotFound                  = "not_found"
	CodeForbidden                 = "forbidden"
	CodeDuplicateTitle            = "duplicate_title"
	CodeAlreadyInCart             = "already_in_cart"
	CodeNotInCart                 = "not_in_cart"
	CodeAlreadyInWishlist         = "already_in_wishlist"
	CodeNotInWishlist             = "not_in_wishlist"
	CodeAlreadyPurchased          = "already_purchased"
	CodeCannotPurchaseUnpublished = "cannot_purchase_unpublished"
	CodeCannotUnpublish           = "cannot_unpublish"
	CodeNotPurchased              = "not_purchased"
	CodeAlreadyArchived           = "already_archived"
	CodeNotArchived               = "not_archived"
	CodeAlreadyReviewed           = "already_reviewed"
	CodeValidation                = "validation"
	CodeInternal                  = "internal"
)

// Error is a typed outcome with a human-readable message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error // underlying cause, only set for internal errors
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Code, so callers can write
// errors.Is(err, apperr.ErrAlreadyInCart).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

// Internal wraps an unexpected failure. The message is what callers see;
// err is kept for logs.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: msg, Err: err}
}

// Sentinels for errors.Is comparisons.
var (
	ErrDuplicateTitle            = Conflict(CodeDuplicateTitle, "a course with this title already exists")
	ErrAlreadyInCart             = Conflict(CodeAlreadyInCart, "course already in cart")
	ErrNotInCart                 = Conflict(CodeNotInCart, "course not in cart")
	ErrAlreadyInWishlist         = Conflict(CodeAlreadyInWishlist, "course already in wishlist")
	ErrNotInWishlist             = Conflict(CodeNotInWishlist, "course not in wishlist")
	ErrAlreadyPurchased          = Conflict(CodeAlreadyPurchased, "course already purchased")
	ErrCannotPurchaseUnpublished = Conflict(CodeCannotPurchaseUnpublished, "cannot purchase an unpublished course")
	ErrCannotUnpublish           = Conflict(CodeCannotUnpublish, "a published course cannot return to draft")
	ErrNotPurchased              = Conflict(CodeNotPurchased, "course not purchased")
	ErrAlreadyArchived           = Conflict(CodeAlreadyArchived, "course already archived")
	ErrNotArchived               = Conflict(CodeNotArchived, "course not archived")
	ErrAlreadyReviewed           = Conflict(CodeAlreadyReviewed, "course already reviewed")
)

// KindOf returns the Kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err, wrapping foreign errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", err)
}
