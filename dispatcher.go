// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// PoweredByHeader is the diagnostic header added to every dispatched response.
	PoweredByHeader = "X-Powered-By"

	// PoweredBy is the fixed value of PoweredByHeader.  Clients under test
	// assert on this exact string.
	PoweredBy = "Zope (www.zope.org), Python (www.python.org)"
)

// Routes maps exact request paths onto handlers.  A Routes is never modified
// after construction.
type Routes map[string]Handler

// DefaultRoutes returns the fixture's route table.  The cookie handlers are
// repeated under nested prefixes so that clients can exercise cookie paths and
// relative URL resolution.
func DefaultRoutes() Routes {
	return Routes{
		"/set_status.html":            SetStatus,
		"/echo.html":                  Echo,
		"/echo_one.html":              EchoOne,
		"/set_header.html":            SetHeader,
		"/set_cookie.html":            SetCookie,
		"/get_cookie.html":            GetCookie,
		"/inner/set_cookie.html":      SetCookie,
		"/inner/get_cookie.html":      GetCookie,
		"/inner/path/set_cookie.html": SetCookie,
		"/inner/path/get_cookie.html": GetCookie,
	}
}

// Paths returns the routed paths in sorted order.
func (rs Routes) Paths() []string {
	paths := make([]string, 0, len(rs))
	for p := range rs {
		paths = append(paths, p)
	}

	sort.Strings(paths)
	return paths
}

// NotFound is the handler used when nothing else matches a request path.
func NotFound(r *Request) (*Response, error) {
	return nil, &NotFoundError{Path: r.Path}
}

// DispatcherOption tailors a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRoutes replaces the route table.  The table is copied.
func WithRoutes(rs Routes) DispatcherOption {
	return func(d *Dispatcher) {
		d.routes = make(Routes, len(rs))
		for p, h := range rs {
			d.routes[p] = h
		}
	}
}

// WithResources sets the filesystem used for paths under ResourcePrefix.
func WithResources(fsys afero.Fs) DispatcherOption {
	return func(d *Dispatcher) {
		d.resources = ResourceHandler{Fs: fsys}.Handle
	}
}

// WithLogger sets the logger for failures.  A nil logger discards output.
func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l == nil {
			l = zap.NewNop()
		}

		d.logger = l
	}
}

// WithHandleErrors sets whether ServeHTTP translates handler failures into
// responses by default.
func WithHandleErrors(f bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.handleErrors = f
	}
}

// WithHandleErrorsHeader names a request header that overrides the default
// error handling for that request.  Its value is parsed with strconv.ParseBool.
func WithHandleErrorsHeader(name string) DispatcherOption {
	return func(d *Dispatcher) {
		d.handleErrorsHeader = name
	}
}

// Dispatcher routes requests to handlers.  It is safe for concurrent use.
type Dispatcher struct {
	routes             Routes
	resources          Handler
	handleErrors       bool
	handleErrorsHeader string
	logger             *zap.Logger
}

// NewDispatcher creates a Dispatcher.  Without options it uses DefaultRoutes,
// the embedded resources and translates all failures into responses.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		routes:       DefaultRoutes(),
		resources:    ResourceHandler{Fs: EmbeddedResources()}.Handle,
		handleErrors: true,
		logger:       zap.NewNop(),
	}

	for _, o := range opts {
		o(d)
	}

	return d
}

// Routes returns a copy of this dispatcher's route table.
func (d *Dispatcher) Routes() Routes {
	rs := make(Routes, len(d.routes))
	for p, h := range d.routes {
		rs[p] = h
	}

	return rs
}

// Handler selects the handler for a path: an exact route, then the resource
// handler for paths under ResourcePrefix, then NotFound.
func (d *Dispatcher) Handler(path string) Handler {
	if h, ok := d.routes[path]; ok {
		return h
	}

	if strings.HasPrefix(path, ResourcePrefix) {
		return d.resources
	}

	return NotFound
}

// Dispatch runs the handler for r.  When handleErrors is true, any failure is
// converted into an empty response with the status from StatusFor and the
// returned error is always nil.  Otherwise a failure is returned as is.
//
// Every returned response carries PoweredByHeader.
func (d *Dispatcher) Dispatch(r *http.Request, handleErrors bool) (*Response, error) {
	resp, err := d.run(r)
	if err != nil {
		if !handleErrors {
			return nil, err
		}

		status := StatusFor(err)
		d.logger.Info(
			"handler failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)

		resp = NewStatusResponse(status)
	}

	resp.AddHeader(PoweredByHeader, PoweredBy)
	return resp, nil
}

func (d *Dispatcher) run(r *http.Request) (*Response, error) {
	req, err := NewRequest(r)
	if err != nil {
		return nil, err
	}

	resp, err := d.Handler(req.Path)(req)
	if err == nil && resp == nil {
		resp = NewResponse("")
	}

	return resp, err
}

// HandleErrors reports whether failures for r should be translated into responses.
func (d *Dispatcher) HandleErrors(r *http.Request) bool {
	if len(d.handleErrorsHeader) > 0 {
		if v := r.Header.Get(d.handleErrorsHeader); len(v) > 0 {
			if f, err := strconv.ParseBool(v); err == nil {
				return f
			}
		}
	}

	return d.handleErrors
}

// ServeHTTP implements http.Handler.  A failure that is not translated is
// raised as a panic carrying an *UnhandledError.
func (d *Dispatcher) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	resp, err := d.Dispatch(request, d.HandleErrors(request))
	if err != nil {
		panic(&UnhandledError{Path: request.URL.Path, Err: err})
	}

	if err := resp.WriteTo(response); err != nil {
		d.logger.Debug("unable to write response", zap.String("path", request.URL.Path), zap.Error(err))
	}
}
