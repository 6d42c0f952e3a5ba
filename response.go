// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"net/http"
	"strconv"
)

// DefaultContentType is the Content-Type of a Response unless a handler changes it.
const DefaultContentType = "text/html; charset=UTF-8"

// Response is a mutable builder for the output of a Handler.
type Response struct {
	// Status is the HTTP status code.  NewResponse sets this to http.StatusOK.
	Status int

	// Header holds the response headers.  Keys are written exactly as stored,
	// so handlers may add non-canonical names directly to the map.
	Header http.Header

	// Body is the complete response entity.
	Body []byte

	// Cookies are emitted as Set-Cookie headers, in order.
	Cookies []*http.Cookie
}

// NewResponse creates a 200 response with the default content type and the given body.
func NewResponse(body string) *Response {
	return &Response{
		Status: http.StatusOK,
		Header: http.Header{
			"Content-Type": {DefaultContentType},
		},
		Body: []byte(body),
	}
}

// NewStatusResponse creates an empty response with the given status.
func NewStatusResponse(status int) *Response {
	r := NewResponse("")
	r.Status = status
	return r
}

// AddHeader appends a header value, keeping name exactly as given.
func (r *Response) AddHeader(name, value string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}

	r.Header[name] = append(r.Header[name], value)
}

// SetCookie appends a cookie to this response.
func (r *Response) SetCookie(c *http.Cookie) {
	r.Cookies = append(r.Cookies, c)
}

// WriteTo writes the status, headers, cookies and body to w.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	for name, values := range r.Header {
		h[name] = append(h[name], values...)
	}

	for _, c := range r.Cookies {
		http.SetCookie(w, c)
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	if !bodyAllowed(status) {
		h.Del("Content-Length")
		w.WriteHeader(status)
		return nil
	}

	h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(status)
	_, err := w.Write(r.Body)
	return err
}

// bodyAllowed reports whether net/http permits an entity with the given status.
func bodyAllowed(status int) bool {
	switch {
	case status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	default:
		return true
	}
}
