package fixture

import (
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestConfigValidate(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("ExistingDir", func(t *testing.T) {
		assert.NoError(t, Config{ResourceDir: t.TempDir()}.Validate())
	})

	t.Run("MissingDir", func(t *testing.T) {
		assert.Error(t, Config{ResourceDir: "/this/does/not/exist/anywhere"}.Validate())
	})

	t.Run("BadHeader", func(t *testing.T) {
		assert.Error(t, Config{HandleErrorsHeader: "Bad: Header"}.Validate())
	})
}

func TestConfigOptions(t *testing.T) {
	var (
		assert = assert.New(t)

		c = Config{
			HandleErrors:       false,
			HandleErrorsHeader: "X-Handle-Errors",
			ResourceDir:        t.TempDir(),
		}
	)

	d := NewDispatcher(c.Options()...)
	assert.False(d.handleErrors)
	assert.Equal("X-Handle-Errors", d.handleErrorsHeader)
	assert.NotNil(d.resources)
}

type testDecodeConfig struct {
	Timeout time.Duration
	Names   []string
}

func TestUnmarshal(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)
		)

		c, err := Unmarshal(viper.New(), ConfigKey, DefaultConfig())
		require.NoError(err)
		assert.Equal(DefaultConfig(), c)
	})

	t.Run("Values", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)

			v = newTestViper(t, `
fixture:
  handleErrors: false
  handleErrorsHeader: X-Handle-Errors
`)
		)

		c, err := Unmarshal(v, ConfigKey, DefaultConfig())
		require.NoError(err)
		assert.False(c.HandleErrors)
		assert.Equal("X-Handle-Errors", c.HandleErrorsHeader)
	})

	t.Run("DecodeHooks", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)

			v = newTestViper(t, `
test:
  timeout: 15s
  names: a,b,c
`)
		)

		c, err := Unmarshal(v, "test", testDecodeConfig{})
		require.NoError(err)
		assert.Equal(15*time.Second, c.Timeout)
		assert.Equal([]string{"a", "b", "c"}, c.Names)
	})

	t.Run("Invalid", func(t *testing.T) {
		v := newTestViper(t, `
fixture:
  resourceDir: /this/does/not/exist/anywhere
`)

		_, err := Unmarshal(v, ConfigKey, DefaultConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid fixture configuration")
	})

	t.Run("ErrorUnused", func(t *testing.T) {
		v := newTestViper(t, `
fixture:
  handleErrors: true
  notAField: 123
`)

		_, err := Unmarshal(v, ConfigKey, DefaultConfig())
		assert.NoError(t, err)

		_, err = Unmarshal(v, ConfigKey, DefaultConfig(), ErrorUnused(true))
		assert.Error(t, err)
	})
}

func TestMerge(t *testing.T) {
	var (
		assert = assert.New(t)
		order  []int

		merged = Merge(
			[]viper.DecoderConfigOption{
				func(*mapstructure.DecoderConfig) { order = append(order, 1) },
			},
			nil,
			[]viper.DecoderConfigOption{
				func(*mapstructure.DecoderConfig) { order = append(order, 2) },
				ErrorUnused(true),
			},
		)

		dc mapstructure.DecoderConfig
	)

	merged(&dc)
	assert.Equal([]int{1, 2}, order)
	assert.True(dc.ErrorUnused)
}

func TestUnmarshalKey(t *testing.T) {
	var (
		assert = assert.New(t)
		c      Config

		app = fxtest.New(
			t,
			fx.Supply(newTestViper(t, `
fixture:
  handleErrors: false
  unknown: value
`)),
			fx.Supply([]viper.DecoderConfigOption{ErrorUnused(false)}),
			fx.Provide(UnmarshalKey(ConfigKey, DefaultConfig())),
			fx.Populate(&c),
		)
	)

	app.RequireStart()
	app.RequireStop()
	assert.False(c.HandleErrors)

	errApp := fx.New(
		fx.NopLogger,
		fx.Supply(newTestViper(t, `
fixture:
  unknown: value
`)),
		fx.Provide(UnmarshalKey(ConfigKey, DefaultConfig(), ErrorUnused(true))),
		fx.Invoke(func(Config) {}),
	)

	assert.Error(errApp.Err())
}
