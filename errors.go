// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultErrorStatus is used when no status code could otherwise be
// determined for a non-nil error.
const DefaultErrorStatus int = http.StatusInternalServerError

var (
	// ErrMissingParameter indicates that a required request parameter was absent.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidStatus indicates a status parameter that cannot be written as an HTTP status.
	ErrInvalidStatus = errors.New("status must be between 200 and 999")

	// ErrUnknownCookieAttribute indicates a set-cookie parameter that does not
	// correspond to any cookie attribute.
	ErrUnknownCookieAttribute = errors.New("unknown cookie attribute")
)

// StatusCoder is an optional interface that an error can implement to supply
// the HTTP status associated with that error.
type StatusCoder interface {
	// StatusCode returns the HTTP status associated with this error.
	StatusCode() int
}

// StatusFor determines the response status for a handler failure.  If err,
// or anything it wraps, implements StatusCoder then that status is returned.
// Any other non-nil error yields DefaultErrorStatus.  A nil error yields
// http.StatusOK.
func StatusFor(err error) int {
	var sc StatusCoder
	switch {
	case errors.As(err, &sc):
		return sc.StatusCode()

	case err != nil:
		return DefaultErrorStatus

	default:
		return http.StatusOK
	}
}

// NotFoundError is returned when no handler exists for a request path.
type NotFoundError struct {
	Path string
}

func (nfe *NotFoundError) Error() string {
	return "no handler for " + nfe.Path
}

// StatusCode always returns http.StatusNotFound.
func (nfe *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ParameterError describes a request parameter that a handler could not use.
// It carries no status, so it always surfaces as DefaultErrorStatus.
type ParameterError struct {
	Name  string
	Value string
	Err   error
}

func (pe *ParameterError) Error() string {
	if len(pe.Value) > 0 {
		return fmt.Sprintf("parameter %s=%q: %s", pe.Name, pe.Value, pe.Err)
	}

	return fmt.Sprintf("parameter %s: %s", pe.Name, pe.Err)
}

func (pe *ParameterError) Unwrap() error {
	return pe.Err
}

// UnhandledError is the panic value used when a handler failure is propagated
// rather than translated into a response.  Hosting middleware may recover it to
// render a diagnostic page.
type UnhandledError struct {
	Path string
	Err  error
}

func (ue *UnhandledError) Error() string {
	return fmt.Sprintf("unhandled error for %s: %s", ue.Path, ue.Err)
}

func (ue *UnhandledError) Unwrap() error {
	return ue.Err
}
