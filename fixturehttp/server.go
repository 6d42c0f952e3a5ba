// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturehttp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/xmidt-org/fixture/fixturetls"
	"github.com/xmidt-org/httpaux"
	"go.uber.org/multierr"
)

// ServerConfigKey is the configuration key holding a ServerConfig.
const ServerConfigKey = "server"

// ServerConfig holds the configuration for the http.Server hosting the fixture.
// This struct can be unmarshaled via Viper, thus allowing the server to
// be bootstrapped from external configuration.
type ServerConfig struct {
	// Network is the tcp network to listen on.  The default is "tcp".
	Network string

	// Address is the bind address of the server.  If unset, the server binds to
	// an available port on the loopback interface.  In that case, ReportAddress
	// can be used to obtain the bind address for the server.
	Address string

	// ReadTimeout corresponds to http.Server.ReadTimeout
	ReadTimeout time.Duration

	// ReadHeaderTimeout corresponds to http.Server.ReadHeaderTimeout
	ReadHeaderTimeout time.Duration

	// WriteTimeout corresponds to http.Server.WriteTimeout
	WriteTimeout time.Duration

	// IdleTimeout corresponds to http.Server.IdleTimeout
	IdleTimeout time.Duration

	// MaxHeaderBytes corresponds to http.Server.MaxHeaderBytes
	MaxHeaderBytes int

	// KeepAlive corresponds to net.ListenConfig.KeepAlive.  This value is
	// only used for listeners created via Listen.
	KeepAlive time.Duration

	// Header supplies HTTP headers to emit on every response from this server,
	// in addition to anything the fixture itself writes.
	Header http.Header

	// TLS is the optional unmarshaled TLS configuration.  If set, the resulting
	// server will use HTTPS.
	TLS *fixturetls.Config
}

// Validate checks the parts of this configuration that can be checked
// without binding a socket.
func (sc ServerConfig) Validate() (err error) {
	switch strings.ToLower(sc.Network) {
	case "", "tcp", "tcp4", "tcp6":
	default:
		err = multierr.Append(err, fmt.Errorf("unsupported network %q", sc.Network))
	}

	for name, d := range map[string]time.Duration{
		"readTimeout":       sc.ReadTimeout,
		"readHeaderTimeout": sc.ReadHeaderTimeout,
		"writeTimeout":      sc.WriteTimeout,
		"idleTimeout":       sc.IdleTimeout,
		"keepAlive":         sc.KeepAlive,
	} {
		if d < 0 {
			err = multierr.Append(err, fmt.Errorf("%s cannot be negative: %s", name, d))
		}
	}

	if sc.MaxHeaderBytes < 0 {
		err = multierr.Append(err, fmt.Errorf("maxHeaderBytes cannot be negative: %d", sc.MaxHeaderBytes))
	}

	return
}

// NewServer creates the http.Server described by this configuration, with h
// as its handler decorated to emit any configured headers.
func (sc ServerConfig) NewServer(h http.Handler) (server *http.Server, err error) {
	server = &http.Server{
		Addr:              sc.Address,
		Handler:           withHeader(httpaux.NewHeader(sc.Header), h),
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: sc.ReadHeaderTimeout,
		WriteTimeout:      sc.WriteTimeout,
		IdleTimeout:       sc.IdleTimeout,
		MaxHeaderBytes:    sc.MaxHeaderBytes,
	}

	server.TLSConfig, err = sc.TLS.New()
	return
}

// withHeader sets header on every response before next runs, so next may
// still replace any of those values.
func withHeader(header httpaux.Header, next http.Handler) http.Handler {
	if header.Len() == 0 {
		return next
	}

	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		header.SetTo(response.Header())
		next.ServeHTTP(response, request)
	})
}

// Listen is the ListenerFactory implementation driven by ServerConfig
func (sc ServerConfig) Listen(ctx context.Context, s *http.Server) (net.Listener, error) {
	return TCPListenerFactory{
		Network:   sc.Network,
		KeepAlive: sc.KeepAlive,
	}.Listen(ctx, s)
}
