// Package apperr defines the error kinds that domain services surface to the
// HTTP boundary. Storage errors never leave a repository unclassified: they are
// either mapped to a domain kind or wrapped as Internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

// Kind categorizes an application error.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindInternal     Kind = "internal"
)

// SQLSTATE codes that FromDB classifies.
const (
	pgUniqueViolation   = "23505"
	pgStringDataTooLong = "22001"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// MaxLen rejects value when it holds more than max characters.
func MaxLen(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return Validation("%s must be at most %d characters", field, max)
	}
	return nil
}

// Internal wraps an unexpected failure. The message is for logs only.
func Internal(err error, msg string) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not classified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromDB classifies a storage error. pgx.ErrNoRows becomes NotFound with the
// given message, unique violations become Conflict, values too long for
// their column become Validation, anything else Internal.
func FromDB(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Kind: KindNotFound, Message: notFoundMsg}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &Error{Kind: KindConflict, Message: pgErr.ConstraintName, Err: err}
		case pgStringDataTooLong:
			return &Error{Kind: KindValidation, Message: "value too long", Err: err}
		}
	}
	return Internal(err, "database error")
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTP converts err into an *echo.HTTPError. Internal errors keep their cause
// as the HTTPError's Internal field so the error handler can log it, and expose
// only a generic message to the client.
func ToHTTP(err error) *echo.HTTPError {
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind == KindInternal {
		he := echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		he.Internal = err
		return he
	}
	return echo.NewHTTPError(HTTPStatus(ae.Kind), ae.Message)
}
