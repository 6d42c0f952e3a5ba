package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/fixture"
	"github.com/xmidt-org/fixture/fixturehttp"
)

func newTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	rootFlags(flags)
	serveFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestPrintRoutes(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		out bytes.Buffer
	)

	require.NoError(printRoutes(&out, fixture.NewDispatcher()))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(append(fixture.DefaultRoutes().Paths(), fixture.ResourcePrefix+"<file>"), lines)
}

func TestNewViper(t *testing.T) {
	t.Run("NoConfig", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		v, err := newViper(newTestFlags(t))
		require.NoError(t, err)
		assert.Empty(t, v.AllKeys())
	})

	t.Run("Flag", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "fixture.yaml")
		require.NoError(t, os.WriteFile(file, []byte("fixture:\n  handleErrors: false\n"), 0600))

		v, err := newViper(newTestFlags(t, "--config", file))
		require.NoError(t, err)
		assert.True(t, v.IsSet("fixture.handleErrors"))
	})

	t.Run("Env", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "fixture.json")
		require.NoError(t, os.WriteFile(file, []byte(`{"server": {"address": ":9999"}}`), 0600))
		t.Setenv(ConfigEnv, file)

		v, err := newViper(newTestFlags(t))
		require.NoError(t, err)
		assert.Equal(t, ":9999", v.GetString("server.address"))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := newViper(newTestFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
		assert.Error(t, err)
	})
}

func TestFlagOverrides(t *testing.T) {
	t.Run("Unchanged", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)

			fo = flagOverrides{flags: newTestFlags(t)}
		)

		cfg, err := fo.fixture(fixture.Config{HandleErrors: false, HandleErrorsHeader: "X-Keep"})
		require.NoError(err)
		assert.False(cfg.HandleErrors)
		assert.Equal("X-Keep", cfg.HandleErrorsHeader)

		assert.Equal(":1234", fo.server(fixturehttp.ServerConfig{Address: ":1234"}).Address)
		assert.Equal("warn", fo.log(fixture.LogConfig{Level: "warn"}).Level)
	})

	t.Run("Changed", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)

			dir = t.TempDir()
			fo  = flagOverrides{flags: newTestFlags(
				t,
				"--handle-errors=false",
				"--handle-errors-header", "X-Handle-Errors",
				"--resource-dir", dir,
				"--address", ":8080",
				"--log-level", "debug",
				"--development",
			)}
		)

		cfg, err := fo.fixture(fixture.DefaultConfig())
		require.NoError(err)
		assert.False(cfg.HandleErrors)
		assert.Equal("X-Handle-Errors", cfg.HandleErrorsHeader)
		assert.Equal(dir, cfg.ResourceDir)

		assert.Equal(":8080", fo.server(fixturehttp.ServerConfig{}).Address)

		lc := fo.log(fixture.LogConfig{})
		assert.Equal("debug", lc.Level)
		assert.True(lc.Development)
	})

	t.Run("InvalidResourceDir", func(t *testing.T) {
		fo := flagOverrides{flags: newTestFlags(t, "--resource-dir", "/this/does/not/exist/anywhere")}
		_, err := fo.fixture(fixture.DefaultConfig())
		assert.Error(t, err)
	})
}

func TestNewApp(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		flags := newTestFlags(t, "--log-level", "error")
		v, err := newViper(flags)
		require.NoError(t, err)

		app, logger, err := newApp(v, flags)
		require.NoError(t, err)
		assert.NotNil(t, app)
		assert.NotNil(t, logger)
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		flags := newTestFlags(t, "--log-level", "loud")
		v, err := newViper(flags)
		require.NoError(t, err)

		_, _, err = newApp(v, flags)
		assert.Error(t, err)
	})
}
