package fixturehttp

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/fixture"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func get(t *testing.T, addr net.Addr, path string) (*http.Response, string) {
	client := http.Client{Timeout: 5 * time.Second}
	response, err := client.Get("http://" + addr.String() + path)
	require.NoError(t, err)

	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response, string(body)
}

func TestNewRouter(t *testing.T) {
	var (
		assert = assert.New(t)
		paths  []string

		router = NewRouter(
			http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
				paths = append(paths, request.URL.Path)
			}),
			alice.New(),
		)
	)

	for _, p := range []string{"/", "/a/../b.html", "/inner//path/get_cookie.html", fixture.ResourcePrefix + "style.css"} {
		router.ServeHTTP(
			httptest.NewRecorder(),
			&http.Request{Method: "GET", URL: &url.URL{Path: p}, Header: http.Header{}},
		)
	}

	assert.Equal(
		[]string{"/", "/a/../b.html", "/inner//path/get_cookie.html", fixture.ResourcePrefix + "style.css"},
		paths,
	)
}

func testProvideDefaults(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		addr   = make(chan net.Addr, 1)
		server *http.Server
		router *mux.Router

		app = fxtest.New(
			t,
			fixture.Logger(zaptest.NewLogger(t)),
			fx.Supply(newTestViper(t, `
server:
  header:
    X-Server: fixture
`)),
			fixture.Provide(),
			Provide(),
			ReportAddressTo(addr),
			fx.Populate(&server, &router),
		)
	)

	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(server)
	require.NotNil(router)

	a, err := WaitForAddress(addr, 5*time.Second)
	require.NoError(err)

	response, body := get(t, a, "/set_status.html")
	assert.Equal(http.StatusOK, response.StatusCode)
	assert.Equal("Everything fine", body)
	assert.Equal(fixture.PoweredBy, response.Header.Get(fixture.PoweredByHeader))
	assert.Equal("fixture", response.Header.Get("X-Server"))

	response, _ = get(t, a, "/missing.html")
	assert.Equal(http.StatusNotFound, response.StatusCode)
	assert.Equal(fixture.PoweredBy, response.Header.Get(fixture.PoweredByHeader))
}

func testProvideUnhandled(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		addr = make(chan net.Addr, 1)

		app = fxtest.New(
			t,
			fixture.Logger(zaptest.NewLogger(t)),
			fx.Supply(newTestViper(t, `
fixture:
  handleErrors: false
  handleErrorsHeader: X-Handle-Errors
`)),
			fixture.Provide(),
			Provide(),
			ReportAddressTo(addr),
		)
	)

	app.RequireStart()
	defer app.RequireStop()

	a, err := WaitForAddress(addr, 5*time.Second)
	require.NoError(err)

	response, body := get(t, a, "/missing.html")
	assert.Equal(http.StatusInternalServerError, response.StatusCode)
	assert.True(strings.HasPrefix(body, "Unhandled error"))
	assert.Contains(body, "/missing.html")

	request, err := http.NewRequest("GET", "http://"+a.String()+"/missing.html", nil)
	require.NoError(err)
	request.Header.Set("X-Handle-Errors", "true")

	handled, err := http.DefaultClient.Do(request)
	require.NoError(err)
	handled.Body.Close()
	assert.Equal(http.StatusNotFound, handled.StatusCode)
}

func testProvideMiddleware(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		addr = make(chan net.Addr, 1)

		app = fxtest.New(
			t,
			fx.Supply(viper.New()),
			fixture.Provide(),
			Provide(),
			ReportAddressTo(addr),
			Middleware(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
					response.Header().Set("X-Middleware", "true")
					next.ServeHTTP(response, request)
				})
			}),
		)
	)

	app.RequireStart()
	defer app.RequireStop()

	a, err := WaitForAddress(addr, 5*time.Second)
	require.NoError(err)

	response, _ := get(t, a, "/echo.html")
	assert.Equal(http.StatusOK, response.StatusCode)
	assert.Equal("true", response.Header.Get("X-Middleware"))
}

func testProvideInvalidConfig(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(newTestViper(t, `
server:
  network: udp
`)),
		fixture.Provide(),
		Provide(),
	)

	assert.Error(t, app.Err())
}

func TestProvide(t *testing.T) {
	t.Run("Defaults", testProvideDefaults)
	t.Run("Unhandled", testProvideUnhandled)
	t.Run("Middleware", testProvideMiddleware)
	t.Run("InvalidConfig", testProvideInvalidConfig)
}
