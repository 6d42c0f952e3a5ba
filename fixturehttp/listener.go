// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturehttp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LoopbackAddress is bound when a fixture server has no configured address.
const LoopbackAddress = "127.0.0.1:0"

// ErrNoListenAddress is returned by WaitForAddress when no fixture reported
// its address in time.
var ErrNoListenAddress = errors.New("no listen address was reported")

// ListenerFactory opens the listener a fixture server accepts on.  The server
// is passed so that its Addr and TLSConfig are honored.
type ListenerFactory interface {
	Listen(context.Context, *http.Server) (net.Listener, error)
}

// ListenerFactoryFunc is a closure ListenerFactory.
type ListenerFactoryFunc func(context.Context, *http.Server) (net.Listener, error)

func (lff ListenerFactoryFunc) Listen(ctx context.Context, s *http.Server) (net.Listener, error) {
	return lff(ctx, s)
}

// ListenerDecorator wraps a listener as soon as it has been opened.
type ListenerDecorator func(net.Listener) net.Listener

// DecorateListeners returns a ListenerFactory that wraps each listener f opens
// with the decorators in turn.  The last decorator is the outermost.
func DecorateListeners(f ListenerFactory, decorators ...ListenerDecorator) ListenerFactory {
	if len(decorators) == 0 {
		return f
	}

	return ListenerFactoryFunc(func(ctx context.Context, s *http.Server) (net.Listener, error) {
		l, err := f.Listen(ctx, s)
		if err != nil {
			return nil, err
		}

		for _, d := range decorators {
			l = d(l)
		}

		return l, nil
	})
}

// ReportAddress returns a ListenerDecorator that sends the bound address of
// each listener to ch and leaves the listener as is.
func ReportAddress(ch chan<- net.Addr) ListenerDecorator {
	return func(l net.Listener) net.Listener {
		ch <- l.Addr()
		return l
	}
}

// WaitForAddress returns the first address sent to ch.
func WaitForAddress(ch <-chan net.Addr, timeout time.Duration) (net.Addr, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case a := <-ch:
		return a, nil

	case <-timer.C:
		return nil, fmt.Errorf("%w within %s", ErrNoListenAddress, timeout)
	}
}

// TCPListenerFactory binds TCP listeners.  The zero value listens on "tcp".
type TCPListenerFactory struct {
	Network   string
	KeepAlive time.Duration
}

// Listen binds the server's address.  A server without an address gets an
// ephemeral loopback port, on IPv6 if IPv4 loopback is unavailable.
func (f TCPListenerFactory) Listen(ctx context.Context, server *http.Server) (net.Listener, error) {
	var (
		lc      = net.ListenConfig{KeepAlive: f.KeepAlive}
		network = f.Network
		address = server.Addr
	)

	if len(network) == 0 {
		network = "tcp"
	}

	if len(address) == 0 {
		network, address = "tcp", LoopbackAddress
	}

	l, err := lc.Listen(ctx, network, address)
	if err != nil && len(server.Addr) == 0 {
		l, err = lc.Listen(ctx, "tcp6", "[::1]:0")
	}

	if err != nil {
		return nil, err
	}

	if server.TLSConfig != nil {
		l = tls.NewListener(l, server.TLSConfig)
	}

	return l, nil
}

// serverHook runs a fixture's accept loop for the lifetime of an fx.App.
// Whenever the accept loop ends, the app is asked to shut down.
type serverHook struct {
	server     *http.Server
	listen     ListenerFactory
	logger     *zap.Logger
	shutdowner fx.Shutdowner
}

func (sh serverHook) onStart(ctx context.Context) error {
	l, err := sh.listen.Listen(ctx, sh.server)
	if err != nil {
		return err
	}

	sh.logger.Info(
		"fixture listening",
		zap.Stringer("address", l.Addr()),
		zap.Bool("tls", sh.server.TLSConfig != nil),
	)

	go sh.serve(l)
	return nil
}

func (sh serverHook) serve(l net.Listener) {
	if err := sh.server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		sh.logger.Error("fixture accept loop exited", zap.Error(err))
	}

	if sh.shutdowner != nil {
		sh.shutdowner.Shutdown() //nolint:errcheck
	}
}

func (sh serverHook) onStop(ctx context.Context) error {
	return sh.server.Shutdown(ctx)
}

func (sh serverHook) hook() fx.Hook {
	return fx.Hook{
		OnStart: sh.onStart,
		OnStop:  sh.onStop,
	}
}
