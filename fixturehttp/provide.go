// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturehttp

import (
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/xmidt-org/fixture"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module is the name of the fx module emitted by Provide.
const Module = "fixturehttp"

const (
	// MiddlewareGroup is the value group for additional alice.Constructor middleware.
	MiddlewareGroup = "fixturehttp.middleware"

	// ListenersGroup is the value group for additional ListenerDecorators.
	ListenersGroup = "fixturehttp.listeners"
)

// ServerIn describes the set of dependencies for hosting a fixture.Dispatcher
// in an http.Server.
type ServerIn struct {
	fx.In

	// Config is the required server configuration.
	Config ServerConfig

	// Dispatcher is the required fixture that handles every request.
	Dispatcher *fixture.Dispatcher

	// Logger is the optional logger for access logs and server errors.
	Logger *zap.Logger `optional:"true"`

	// Middleware are any additional decorators, applied inside the standard chain.
	Middleware []alice.Constructor `group:"fixturehttp.middleware"`

	// Listeners are any decorators for the server's net.Listener.
	Listeners []ListenerDecorator `group:"fixturehttp.listeners"`

	// Lifecycle is the required uber/fx Lifecycle to which the server will be bound.
	// The server will start with the app starts and will gracefully shutdown when
	// the app is stopped.
	Lifecycle fx.Lifecycle

	// Shutdowner is used to guarantee that a server which aborts its accept loop
	// will stop the entire app.
	Shutdowner fx.Shutdowner
}

// NewRouter mounts h, decorated by chain, at every path.  Paths are not cleaned,
// so the handler sees exactly what the client requested.
func NewRouter(h http.Handler, chain alice.Chain) *mux.Router {
	router := mux.NewRouter()
	router.SkipClean(true)
	router.PathPrefix("/").Handler(chain.Then(h))
	return router
}

// NewServer builds the router and http.Server for a fixture and binds the
// server to the enclosing fx.App's lifecycle.
func NewServer(in ServerIn) (*http.Server, *mux.Router, error) {
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := NewRouter(in.Dispatcher, NewChain(logger, in.Middleware...))
	server, err := in.Config.NewServer(router)
	if err != nil {
		return nil, nil, err
	}

	server.ErrorLog = zap.NewStdLog(logger)
	in.Lifecycle.Append(serverHook{
		server:     server,
		listen:     DecorateListeners(in.Config, in.Listeners...),
		logger:     logger,
		shutdowner: in.Shutdowner,
	}.hook())

	return server, router, nil
}

// Provide emits a ServerConfig unmarshaled from ServerConfigKey and an http.Server
// hosting the *fixture.Dispatcher component.  The server is always started.
func Provide() fx.Option {
	return fx.Module(
		Module,
		fx.Provide(
			fixture.UnmarshalKey(ServerConfigKey, ServerConfig{}),
			NewServer,
		),
		fx.Invoke(
			func(*http.Server) {},
		),
	)
}

// Middleware emits additional middleware into MiddlewareGroup.
func Middleware(m ...alice.Constructor) fx.Option {
	options := make([]fx.Option, 0, len(m))
	for _, c := range m {
		c := c
		options = append(options, fx.Provide(
			fx.Annotated{
				Group: MiddlewareGroup,
				Target: func() alice.Constructor {
					return c
				},
			},
		))
	}

	return fx.Options(options...)
}

// ReportAddressTo emits ReportAddress(ch) into ListenersGroup.
func ReportAddressTo(ch chan<- net.Addr) fx.Option {
	return fx.Provide(
		fx.Annotated{
			Group: ListenersGroup,
			Target: func() ListenerDecorator {
				return ReportAddress(ch)
			},
		},
	)
}
