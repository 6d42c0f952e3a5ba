// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/multierr"
)

// ConfigKey is the configuration key holding the fixture's Config.
const ConfigKey = "fixture"

// Config is the externally supplied configuration for a Dispatcher.
type Config struct {
	// HandleErrors controls whether handler failures become 404/500 responses.
	// When false, failures propagate to the hosting layer.  The default is true.
	HandleErrors bool

	// HandleErrorsHeader optionally names a request header whose boolean value
	// overrides HandleErrors for that request.
	HandleErrorsHeader string

	// ResourceDir is an optional local directory served under ResourcePrefix.
	// If unset, the embedded resources are served.
	ResourceDir string
}

// DefaultConfig returns the Config used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		HandleErrors: true,
	}
}

// Validate checks this configuration against the local environment.
func (c Config) Validate() (err error) {
	if strings.ContainsAny(c.HandleErrorsHeader, " \t:\r\n") {
		err = multierr.Append(err, fmt.Errorf("invalid header name %q", c.HandleErrorsHeader))
	}

	if len(c.ResourceDir) > 0 {
		if ok, dirErr := afero.DirExists(afero.NewOsFs(), c.ResourceDir); dirErr != nil {
			err = multierr.Append(err, dirErr)
		} else if !ok {
			err = multierr.Append(err, fmt.Errorf("resource directory %s does not exist", c.ResourceDir))
		}
	}

	return
}

// Options converts this configuration into DispatcherOptions.
func (c Config) Options() []DispatcherOption {
	opts := []DispatcherOption{
		WithHandleErrors(c.HandleErrors),
		WithHandleErrorsHeader(c.HandleErrorsHeader),
	}

	if len(c.ResourceDir) > 0 {
		opts = append(opts, WithResources(ResourceDir(c.ResourceDir)))
	}

	return opts
}

// validator is implemented by configuration types that can check themselves
// after unmarshaling.
type validator interface {
	Validate() error
}

// ErrorUnused sets the DecoderConfig.ErrorUnused flag, which makes unknown
// configuration keys an error.
func ErrorUnused(f bool) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = f
	}
}

// DecodeHooks installs the decode hooks used for all configuration in this module:
// durations, comma-separated slices and anything implementing encoding.TextUnmarshaler.
func DecodeHooks(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// Merge takes any number of slices of decoder options and merges them
// into a single option, applied in order.
func Merge(opts ...[]viper.DecoderConfigOption) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		for _, group := range opts {
			for _, o := range group {
				o(dc)
			}
		}
	}
}

// UnmarshalIn is the set of dependencies for UnmarshalKey
type UnmarshalIn struct {
	fx.In

	// Viper is the required Viper component in the enclosing fx.App
	Viper *viper.Viper

	// DecodeOptions are an optional set of options from the enclosing fx.App
	DecodeOptions []viper.DecoderConfigOption `optional:"true"`
}

// UnmarshalKey returns an fx constructor that unmarshals the given key into a
// copy of prototype.  The prototype supplies defaults for anything the
// configuration does not set.  If the result has a Validate() error method,
// it is invoked after unmarshaling.
func UnmarshalKey[T any](key string, prototype T, opts ...viper.DecoderConfigOption) func(UnmarshalIn) (T, error) {
	return func(in UnmarshalIn) (T, error) {
		return Unmarshal(
			in.Viper,
			key,
			prototype,
			append(append([]viper.DecoderConfigOption{}, in.DecodeOptions...), opts...)...,
		)
	}
}

// Unmarshal reads key from v into a copy of prototype, using DecodeHooks
// followed by any supplied options.
func Unmarshal[T any](v *viper.Viper, key string, prototype T, opts ...viper.DecoderConfigOption) (T, error) {
	target := prototype
	err := v.UnmarshalKey(
		key,
		&target,
		Merge([]viper.DecoderConfigOption{DecodeHooks}, opts),
	)

	if err == nil {
		if val, ok := any(target).(validator); ok {
			err = val.Validate()
		}
	}

	if err != nil {
		err = fmt.Errorf("invalid %s configuration: %w", key, err)
	}

	return target, err
}
