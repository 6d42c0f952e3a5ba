// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CookieTimeFormat is the layout accepted by the expires parameter of SetCookie.
const CookieTimeFormat = http.TimeFormat

// cookieShortDayFormat accepts expiry dates whose day of the month has a single digit.
const cookieShortDayFormat = "Mon, 2 Jan 2006 15:04:05 GMT"

// NilRepresentation is what EchoOne writes for an absent environment key.
const NilRepresentation = "<nil>"

// echoEnviron lists the environment keys that Echo reports, in output order.
var echoEnviron = []string{
	"CONTENT_LENGTH",
	"CONTENT_TYPE",
	"HTTP_ACCEPT_LANGUAGE",
	"HTTP_CONNECTION",
	"HTTP_HOST",
	"HTTP_USER_AGENT",
	"PATH_INFO",
	"REQUEST_METHOD",
}

// framingHeaders are derived from the body when a Response is written, so
// SetHeader lists them without setting them.
var framingHeaders = map[string]bool{
	"Content-Length":    true,
	"Transfer-Encoding": true,
}

// Handler produces a Response from a Request.  Handlers share no state.
type Handler func(*Request) (*Response, error)

func requireParam(r *Request, name string) (string, error) {
	v, ok := r.Params.Get(name)
	if !ok {
		return "", &ParameterError{Name: name, Err: ErrMissingParameter}
	}

	return v, nil
}

// SetStatus sets the response status from the status parameter.
func SetStatus(r *Request) (*Response, error) {
	status := r.Param("status")
	if len(status) == 0 {
		return NewResponse("Everything fine"), nil
	}

	code, err := strconv.Atoi(status)
	if err != nil {
		return nil, &ParameterError{Name: "status", Value: status, Err: err}
	}

	// informational statuses never reach the client as the final status
	if code < 200 || code > 999 {
		return nil, &ParameterError{Name: "status", Value: status, Err: ErrInvalidStatus}
	}

	resp := NewResponse("Just set a status of " + status)
	resp.Status = code
	return resp, nil
}

// Echo reports selected transport metadata, every parameter and the raw body.
// A form-encoded POST body has been consumed into the parameters, so its body
// line is always empty.
func Echo(r *Request) (*Response, error) {
	var lines []string
	for _, key := range echoEnviron {
		if v, ok := r.Environ.Lookup(key); ok {
			lines = append(lines, key+": "+v)
		}
	}

	for _, p := range r.Params.Items() {
		lines = append(lines, p.Name+": "+p.Value)
	}

	var body string
	if r.Method != http.MethodPost || r.ContentType != formURLEncoded {
		body = string(r.Body)
	}

	lines = append(lines, "Body: "+strconv.Quote(body))
	return NewResponse(strings.Join(lines, "\n")), nil
}

// EchoOne writes the quoted value of the environment key named by the var parameter.
func EchoOne(r *Request) (*Response, error) {
	key, err := requireParam(r, "var")
	if err != nil {
		return nil, err
	}

	if v, ok := r.Environ.Lookup(key); ok {
		return NewResponse(strconv.Quote(v)), nil
	}

	return NewResponse(NilRepresentation), nil
}

// SetHeader adds each parameter as a response header and lists them in the body.
func SetHeader(r *Request) (*Response, error) {
	var (
		resp = NewResponse("")
		body = []string{"Set Headers:"}
	)

	for _, p := range r.Params.Items() {
		body = append(body, p.Name, p.Value)
		if !framingHeaders[http.CanonicalHeaderKey(p.Name)] {
			resp.AddHeader(p.Name, p.Value)
		}
	}

	resp.Body = []byte(strings.Join(body, "\n"))
	return resp, nil
}

// GetCookie lists the request's cookies as "name: value" lines sorted by name.
func GetCookie(r *Request) (*Response, error) {
	names := make([]string, 0, len(r.Cookies))
	for name := range r.Cookies {
		names = append(names, name)
	}

	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+r.Cookies[name])
	}

	return NewResponse(strings.Join(lines, "\n")), nil
}

// SetCookie sets exactly one cookie described by the request parameters.
// The name and value parameters are required.  Every other parameter must be
// a cookie attribute.
func SetCookie(r *Request) (*Response, error) {
	name, err := requireParam(r, "name")
	if err != nil {
		return nil, err
	}

	value, err := requireParam(r, "value")
	if err != nil {
		return nil, err
	}

	// net/http silently drops a cookie with an invalid name
	if err := (&http.Cookie{Name: name}).Valid(); err != nil {
		return nil, &ParameterError{Name: "name", Value: name, Err: err}
	}

	c := &http.Cookie{
		Name:  name,
		Value: value,
	}

	for _, p := range r.Params.Items() {
		if p.Name == "name" || p.Name == "value" {
			continue
		}

		if err := applyCookieAttribute(c, p.Name, p.Value); err != nil {
			return nil, err
		}
	}

	resp := NewResponse("")
	resp.SetCookie(c)
	return resp, nil
}

func applyCookieAttribute(c *http.Cookie, name, value string) error {
	switch strings.ToLower(name) {
	case "path":
		c.Path = value

	case "domain":
		c.Domain = value

	case "max-age", "max_age":
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return &ParameterError{Name: name, Value: value, Err: err}
		}

		// net/http omits Max-Age when zero, and writes Max-Age=0 when negative
		if seconds <= 0 {
			seconds = -1
		}

		c.MaxAge = seconds

	case "expires":
		expires, err := time.Parse(CookieTimeFormat, value)
		if err != nil {
			expires, err = time.Parse(cookieShortDayFormat, value)
		}

		if err != nil {
			return &ParameterError{Name: name, Value: value, Err: err}
		}

		c.Expires = expires.UTC()

	case "secure":
		c.Secure = flag(value)

	case "httponly":
		c.HttpOnly = flag(value)

	case "samesite":
		switch strings.ToLower(value) {
		case "lax":
			c.SameSite = http.SameSiteLaxMode
		case "strict":
			c.SameSite = http.SameSiteStrictMode
		case "none":
			c.SameSite = http.SameSiteNoneMode
		default:
			return &ParameterError{Name: name, Value: value, Err: ErrUnknownCookieAttribute}
		}

	case "comment", "overwrite":
		// accepted, but have no representation in a Set-Cookie header

	default:
		return &ParameterError{Name: name, Value: value, Err: ErrUnknownCookieAttribute}
	}

	return nil
}

// flag interprets a boolean cookie attribute.  Anything that is not a
// recognizable boolean is true when non-empty.
func flag(v string) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}

	return len(v) > 0
}
