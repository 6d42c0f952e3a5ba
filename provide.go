// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module is the name of the fx module emitted by Provide.
const Module = "fixture"

// ResourcesName is the component name of an optional afero.Fs that replaces
// any configured resource directory.
const ResourcesName = "fixture.resources"

// DispatcherIn is the set of dependencies for a Dispatcher component.
type DispatcherIn struct {
	fx.In

	// Config is the required fixture configuration.
	Config Config

	// Resources is an optional filesystem served under ResourcePrefix.
	Resources afero.Fs `name:"fixture.resources" optional:"true"`

	// Routes optionally replaces DefaultRoutes.
	Routes Routes `optional:"true"`

	// Logger is the optional logger for handler failures.
	Logger *zap.Logger `optional:"true"`
}

// NewDispatcherIn builds a Dispatcher from injected dependencies.
func NewDispatcherIn(in DispatcherIn) *Dispatcher {
	opts := append(in.Config.Options(), WithLogger(in.Logger))
	if in.Resources != nil {
		opts = append(opts, WithResources(in.Resources))
	}

	if in.Routes != nil {
		opts = append(opts, WithRoutes(in.Routes))
	}

	return NewDispatcher(opts...)
}

// Provide emits the fixture's components: Config, unmarshaled from ConfigKey,
// and the *Dispatcher built from it.  A *viper.Viper component is required.
func Provide() fx.Option {
	return fx.Module(
		Module,
		fx.Provide(
			UnmarshalKey(ConfigKey, DefaultConfig()),
			NewDispatcherIn,
		),
	)
}
