// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturehttp

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/justinas/alice"
	"go.uber.org/zap"
)

// RequestIDHeader is the request header consulted, and the log field written, for
// correlating access log entries.  If a request does not carry one, an id is generated.
const RequestIDHeader = "X-Request-Id"

// statusWriter records the status written through an http.ResponseWriter.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sw *statusWriter) WriteHeader(status int) {
	if sw.status == 0 {
		sw.status = status
	}

	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Write(p []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}

	n, err := sw.ResponseWriter.Write(p)
	sw.bytes += n
	return n, err
}

// wroteHeader reports whether anything has been sent to the client.
func (sw *statusWriter) wroteHeader() bool {
	return sw.status != 0
}

// AccessLog returns a middleware that logs one entry per request at the Info level.
func AccessLog(logger *zap.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			id := request.Header.Get(RequestIDHeader)
			if len(id) == 0 {
				id = uuid.NewString()
			}

			var (
				start = time.Now()
				sw    = &statusWriter{ResponseWriter: response}
			)

			defer func() {
				logger.Info(
					"request",
					zap.String("id", id),
					zap.String("method", request.Method),
					zap.String("path", request.URL.Path),
					zap.Int("status", sw.status),
					zap.Int("bytes", sw.bytes),
					zap.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(sw, request)
		})
	}
}

// Recover returns a middleware that turns a panicking handler into a 500
// diagnostic page containing the panic value.  This is how failures propagated
// by a fixture.Dispatcher with error handling turned off become visible to
// the client.  http.ErrAbortHandler is passed through untouched.
func Recover(logger *zap.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			sw, ok := response.(*statusWriter)
			if !ok {
				sw = &statusWriter{ResponseWriter: response}
			}

			defer func() {
				r := recover()
				if r == nil {
					return
				}

				if r == http.ErrAbortHandler { //nolint:errorlint // net/http compares this way
					panic(r)
				}

				logger.Error(
					"handler panic",
					zap.String("path", request.URL.Path),
					zap.Any("panic", r),
				)

				if sw.wroteHeader() {
					// too late for a diagnostic page
					panic(http.ErrAbortHandler)
				}

				body := fmt.Sprintf("Unhandled error\n\n%v\n", r)
				sw.Header().Set("Content-Type", "text/plain; charset=utf-8")
				sw.Header().Set("Content-Length", strconv.Itoa(len(body)))
				sw.WriteHeader(http.StatusInternalServerError)
				sw.Write([]byte(body)) //nolint:errcheck
			}()

			next.ServeHTTP(sw, request)
		})
	}
}

// NewChain returns the standard middleware for a hosted fixture, access logging
// then panic recovery, followed by any additional constructors.
func NewChain(logger *zap.Logger, more ...alice.Constructor) alice.Chain {
	return alice.New(
		AccessLog(logger),
		Recover(logger),
	).Append(more...)
}
