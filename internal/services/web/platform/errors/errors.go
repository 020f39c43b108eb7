// Package errors defines web typed application errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies application failures for consistent HTTP mapping.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindUnavailable  Kind = "unavailable"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
)

// Op names the page operation that failed.
type Op string

const (
	// OpFetch covers identity resolution and profile lookup.
	OpFetch Op = "fetch"
	// OpUpdate covers persisting profile edits.
	OpUpdate Op = "update"
	// OpStreamParse covers malformed live event payloads.
	OpStreamParse Op = "stream_parse"
)

// StatusCoder is implemented by upstream transport errors that carry an HTTP
// status, such as store API responses.
type StatusCoder interface {
	HTTPStatusCode() int
}

// Error is a typed web application failure.
type Error struct {
	Kind    Kind
	Op      Op
	Key     string
	Message string
	Err     error
}

// Error renders the human-readable message.
func (e Error) Error() string {
	message := e.Message
	if message == "" && e.Err != nil {
		message = e.Err.Error()
	}
	if message == "" {
		message = string(e.Kind)
	}
	if e.Op != "" {
		return string(e.Op) + ": " + message
	}
	return message
}

// Unwrap exposes the underlying cause.
func (e Error) Unwrap() error {
	return e.Err
}

// E builds a typed Error.
func E(kind Kind, message string) error {
	return Error{Kind: kind, Message: message}
}

// EK builds a typed Error with a localization key.
func EK(kind Kind, key string, message string) error {
	return Error{Kind: kind, Key: strings.TrimSpace(key), Message: message}
}

// FetchError marks err as a failed identity resolution or profile lookup.
func FetchError(err error) error {
	return wrapOp(OpFetch, err)
}

// UpdateError marks err as a failed profile persist.
func UpdateError(err error) error {
	return wrapOp(OpUpdate, err)
}

// StreamParseError reports a live event whose payload could not be decoded.
func StreamParseError(event string, err error) error {
	return Error{
		Kind:    KindInvalidInput,
		Op:      OpStreamParse,
		Message: fmt.Sprintf("decode %s event payload", strings.TrimSpace(event)),
		Err:     err,
	}
}

func wrapOp(op Op, err error) error {
	if err == nil {
		return nil
	}
	var appErr Error
	if stderrors.As(err, &appErr) {
		appErr.Op = op
		appErr.Err = err
		appErr.Message = ""
		return appErr
	}
	return Error{Kind: KindOf(err), Op: op, Err: err}
}

// OpOf returns the failed operation recorded in err, if any.
func OpOf(err error) Op {
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return ""
	}
	return appErr.Op
}

// KindOf classifies err, consulting upstream HTTP status when no typed kind is set.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr Error
	if stderrors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	var coder StatusCoder
	if stderrors.As(err, &coder) {
		return KindFromStatus(coder.HTTPStatusCode())
	}
	return KindUnknown
}

// KindFromStatus maps an upstream HTTP status to a Kind.
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindInvalidInput
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// LocalizationKey returns the structured localization key when available.
func LocalizationKey(err error) string {
	if err == nil {
		return ""
	}
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return ""
	}
	return strings.TrimSpace(appErr.Key)
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
