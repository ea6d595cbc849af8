// Package errors defines the coded errors setlistgen reports to users.
//
// Every failure a user can act on carries a [Code]. The CLI prints the
// message of the outermost coded error; the HTTP API answers with
// [HTTPStatus] of its code and a JSON body holding code and message.
//
//	err := errors.New(errors.ErrCodeTrackNotFound, "no track matching %q", query)
//	if errors.Is(err, errors.ErrCodeTrackNotFound) {
//	    // ask for another start song
//	}
//
//	return errors.Wrap(errors.ErrCodeNetwork, err, "fetch playlist %s", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidPlaylist    Code = "INVALID_PLAYLIST"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"
	ErrCodeInvalidOptions     Code = "INVALID_OPTIONS"
	ErrCodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"

	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodePlaylistNotFound Code = "PLAYLIST_NOT_FOUND"
	ErrCodeTrackNotFound    Code = "TRACK_NOT_FOUND"
	ErrCodeSetlistNotFound  Code = "SETLIST_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound  Code = "SESSION_NOT_FOUND"

	// Spotify API failures.
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeForbidden      Code = "FORBIDDEN"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

var statusByCode = map[Code]int{
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidPlaylist:    http.StatusBadRequest,
	ErrCodeInvalidFormat:      http.StatusBadRequest,
	ErrCodeInvalidOptions:     http.StatusBadRequest,
	ErrCodeInvalidConfig:      http.StatusBadRequest,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,

	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodePlaylistNotFound: http.StatusNotFound,
	ErrCodeTrackNotFound:    http.StatusNotFound,
	ErrCodeSetlistNotFound:  http.StatusNotFound,
	ErrCodeFileNotFound:     http.StatusNotFound,
	ErrCodeSessionNotFound:  http.StatusNotFound,

	ErrCodeNetwork:     http.StatusBadGateway,
	ErrCodeTimeout:     http.StatusGatewayTimeout,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeSessionExpired: http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,

	ErrCodeUnsupported: http.StatusNotImplemented,
}

// HTTPStatus is the response status for code. Unknown codes, the empty
// code included, are internal errors.
func HTTPStatus(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is like New but records cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// coded returns the outermost *Error in err's chain.
func coded(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost coded error in err's chain,
// or "" when there is none.
func GetCode(err error) Code {
	if e, ok := coded(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage is the message of the outermost coded error, without code or
// cause. Uncoded errors are returned verbatim.
func UserMessage(err error) string {
	if e, ok := coded(err); ok {
		return e.Message
	}
	return err.Error()
}
