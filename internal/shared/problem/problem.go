// Package problem maps errors to RFC 7807 problem details.
package problem

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ContentType is the media type of a serialized Detail
const ContentType = "application/problem+json"

// Error carries an HTTP status and reason alongside an optional cause
type Error struct {
	Status  int
	Reason  string
	Message string
	cause   error
}

// New creates a problem error
func New(status int, reason, msg string) *Error {
	return &Error{Status: status, Reason: reason, Message: msg}
}

// Wrap attaches a status and reason to cause
func Wrap(cause error, status int, reason string) *Error {
	e := &Error{Status: status, Reason: reason, cause: cause}
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

// NotFound reports an unknown path
func NotFound(path string) *Error {
	return New(http.StatusNotFound, http.StatusText(http.StatusNotFound), fmt.Sprintf("no handler for %s", path))
}

// MethodNotAllowed reports an unsupported method
func MethodNotAllowed(method string) *Error {
	return New(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed),
		fmt.Sprintf("request method %s is not supported", method))
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Reason != "" {
		return e.Reason
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Detail is an RFC 7807 body with probe-specific extension members
type Detail struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	Reason    string `json:"reason"`
	Series    string `json:"series"`
	RootCause string `json:"rootCause"`
	Trace     string `json:"trace"`
}

// Series names the status class: INFORMATIONAL, SUCCESSFUL, REDIRECTION, CLIENT_ERROR or SERVER_ERROR
func Series(status int) string {
	switch status / 100 {
	case 1:
		return "INFORMATIONAL"
	case 2:
		return "SUCCESSFUL"
	case 3:
		return "REDIRECTION"
	case 4:
		return "CLIENT_ERROR"
	case 5:
		return "SERVER_ERROR"
	default:
		return ""
	}
}

// StatusOf returns the status carried by err, or 500
func StatusOf(err error) int {
	var pe *Error
	if errors.As(err, &pe) && pe.Status != 0 {
		return pe.Status
	}
	return http.StatusInternalServerError
}

// FromError builds a Detail for err. instance is the request path and trace
// the "<traceId>-<spanId>" of the current span.
func FromError(err error, instance, trace string) Detail {
	status := http.StatusInternalServerError
	reason := http.StatusText(status)

	var pe *Error
	if errors.As(err, &pe) {
		if pe.Status != 0 {
			status = pe.Status
		}
		reason = pe.Reason
		if reason == "" {
			reason = http.StatusText(status)
		}
	}

	d := Detail{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Instance: instance,
		Reason:   reason,
		Series:   Series(status),
		Trace:    trace,
	}
	if err != nil {
		d.Detail = err.Error()
		d.RootCause = errors.UnwrapAll(err).Error()
	}
	return d
}
