// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturetest

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/xmidt-org/fixture"
	"github.com/xmidt-org/fixture/fixturehttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// DefaultStartTimeout is how long Start waits for the fixture to bind its listener.
const DefaultStartTimeout = 5 * time.Second

// Session is a client bound to a running fixture.  Cookies persist across
// requests made with the same Session.
type Session struct {
	// BaseURL is the root of the running fixture.
	BaseURL *url.URL

	// Client is the HTTP client, with a cookie jar, used for all requests.
	Client *http.Client

	// App is the running fx application hosting the fixture.
	App *fxtest.App
}

// NewSession creates a Session for a fixture listening on addr.
func NewSession(addr net.Addr) *Session {
	jar, _ := cookiejar.New(nil) // only fails with a non-nil PublicSuffixList
	return &Session{
		BaseURL: &url.URL{
			Scheme: "http",
			Host:   addr.String(),
		},
		Client: &http.Client{
			Jar: jar,

			// the fixture's redirects, if any, are the client's business
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// UseTLS switches this session to https, trusting the given roots.
func (s *Session) UseTLS(roots *x509.CertPool) {
	s.BaseURL.Scheme = "https"
	s.Client.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    roots,
			MinVersion: tls.VersionTLS12,
		},
	}
}

// URL resolves a path, which may include a query, against BaseURL.
func (s *Session) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return s.BaseURL.String() + path
	}

	return s.BaseURL.ResolveReference(ref).String()
}

// Do sends a request built from method, path, and an optional body.
func (s *Session) Do(method, path, contentType string, body io.Reader) (*http.Response, error) {
	request, err := http.NewRequest(method, s.URL(path), body)
	if err != nil {
		return nil, err
	}

	if len(contentType) > 0 {
		request.Header.Set("Content-Type", contentType)
	}

	return s.Client.Do(request)
}

// Get issues a GET for path.
func (s *Session) Get(path string) (*http.Response, error) {
	return s.Do(http.MethodGet, path, "", nil)
}

// PostForm issues a form-encoded POST for path.
func (s *Session) PostForm(path string, values url.Values) (*http.Response, error) {
	return s.Do(
		http.MethodPost,
		path,
		"application/x-www-form-urlencoded",
		strings.NewReader(values.Encode()),
	)
}

// Cookies returns the cookies this session would send to path.
func (s *Session) Cookies(path string) []*http.Cookie {
	u, err := url.Parse(s.URL(path))
	if err != nil {
		return nil
	}

	return s.Client.Jar.Cookies(u)
}

// ReadBody reads and closes a response body.
func ReadBody(response *http.Response) (string, error) {
	defer response.Body.Close()
	b, err := io.ReadAll(response.Body)
	return string(b), err
}

// Start runs a fixture configured from v, waits for its listener, and returns
// a Session bound to it.  The fixture is stopped when t finishes.  A nil v
// gives the default configuration on an ephemeral loopback port.
func Start(t testing.TB, v *viper.Viper, more ...fx.Option) *Session {
	if v == nil {
		v = viper.New()
	}

	addr := make(chan net.Addr, 1)
	app := NewApp(
		t,
		append(
			[]fx.Option{
				fx.Supply(v),
				fixture.Provide(),
				fixturehttp.Provide(),
				fixturehttp.ReportAddressTo(addr),
			},
			more...,
		)...,
	)

	app.RequireStart()
	t.Cleanup(app.RequireStop)

	a, err := fixturehttp.WaitForAddress(addr, DefaultStartTimeout)
	if err != nil {
		t.Fatalf("fixture did not start: %s", err)
	}

	s := NewSession(a)
	s.App = app
	return s
}
