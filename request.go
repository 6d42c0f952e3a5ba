// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxMemory is the amount of a multipart body held in memory while parsing.
const DefaultMaxMemory int64 = 32 << 20

const (
	formURLEncoded = "application/x-www-form-urlencoded"
	formMultipart  = "multipart/form-data"
)

// Param is a single name/value pair from a request's parameters.
type Param struct {
	Name  string
	Value string
}

// Params is the multi-map of query and form values for a request.
type Params url.Values

// Get returns the first value for name, along with whether name was present at all.
func (p Params) Get(name string) (string, bool) {
	values, ok := p[name]
	if !ok || len(values) == 0 {
		return "", false
	}

	return values[0], true
}

// Items returns every name/value pair sorted by name, then by value.
func (p Params) Items() []Param {
	items := make([]Param, 0, len(p))
	for name, values := range p {
		for _, v := range values {
			items = append(items, Param{Name: name, Value: v})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].Value < items[j].Value
		}

		return items[i].Name < items[j].Name
	})

	return items
}

// Environ is the CGI-style transport metadata for a request, e.g. REQUEST_METHOD
// or HTTP_USER_AGENT.  Keys are only present when the request supplied them.
type Environ map[string]string

// Lookup returns the value for key and whether it was present.
func (e Environ) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Request is an immutable view over an incoming HTTP exchange.  The body is
// read in full before any form parsing, so both the raw bytes and the parsed
// parameters are available.
type Request struct {
	Path        string
	Method      string
	ContentType string
	Params      Params
	Header      http.Header
	Cookies     map[string]string
	Body        []byte
	Environ     Environ

	// Raw is the underlying request.  Its body has already been consumed.
	Raw *http.Request
}

// NewRequest reads and parses r into a Request.  An error is returned if the
// body cannot be read or the form cannot be parsed.
func NewRequest(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		r.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to read request body: %w", err)
		}
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	contentType := mediaType(r.Header.Get("Content-Type"))

	var err error
	if contentType == formMultipart {
		err = r.ParseMultipartForm(DefaultMaxMemory)
	} else {
		err = r.ParseForm()
	}

	if err != nil {
		return nil, fmt.Errorf("unable to parse request parameters: %w", err)
	}

	params := make(Params, len(r.Form))
	for name, values := range r.Form {
		params[name] = append([]string{}, values...)
	}

	if r.MultipartForm != nil {
		for name, files := range r.MultipartForm.File {
			for _, fh := range files {
				params[name] = append(params[name], fh.Filename)
			}
		}
	}

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	return &Request{
		Path:        r.URL.Path,
		Method:      r.Method,
		ContentType: contentType,
		Params:      params,
		Header:      r.Header.Clone(),
		Cookies:     cookies,
		Body:        body,
		Environ:     newEnviron(r, body),
		Raw:         r,
	}, nil
}

// Param returns the first value of a request parameter.  The empty string is
// returned if the parameter is absent.
func (r *Request) Param(name string) string {
	v, _ := r.Params.Get(name)
	return v
}

// mediaType strips any parameters from a Content-Type value.  Unparseable
// values are returned lowercased and trimmed.
func mediaType(v string) string {
	if len(v) == 0 {
		return ""
	}

	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.Split(v, ";")[0]))
	}

	return mt
}

// environKey converts a header name into its CGI variable name.
func environKey(header string) string {
	return "HTTP_" + strings.ToUpper(strings.ReplaceAll(header, "-", "_"))
}

func newEnviron(r *http.Request, body []byte) Environ {
	e := Environ{
		"REQUEST_METHOD":  r.Method,
		"PATH_INFO":       r.URL.Path,
		"QUERY_STRING":    r.URL.RawQuery,
		"SCRIPT_NAME":     "",
		"SERVER_PROTOCOL": r.Proto,
	}

	for name, values := range r.Header {
		switch http.CanonicalHeaderKey(name) {
		case "Content-Type":
			e["CONTENT_TYPE"] = strings.Join(values, ", ")

		case "Content-Length":
			e["CONTENT_LENGTH"] = strings.Join(values, ", ")

		default:
			e[environKey(name)] = strings.Join(values, ", ")
		}
	}

	if _, ok := e["CONTENT_LENGTH"]; !ok && len(body) > 0 {
		e["CONTENT_LENGTH"] = strconv.Itoa(len(body))
	}

	if len(r.Host) > 0 {
		e["HTTP_HOST"] = r.Host
		host, port, err := net.SplitHostPort(r.Host)
		if err != nil {
			host = r.Host
			port = ""
		}

		if len(port) == 0 {
			port = "80"
			if r.TLS != nil {
				port = "443"
			}
		}

		e["SERVER_NAME"] = host
		e["SERVER_PORT"] = port
	}

	if len(r.RemoteAddr) > 0 {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			e["REMOTE_ADDR"] = host
		} else {
			e["REMOTE_ADDR"] = r.RemoteAddr
		}
	}

	if r.TLS != nil {
		e["HTTPS"] = "on"
	}

	return e
}
