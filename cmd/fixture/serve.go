// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/fixture"
	"github.com/xmidt-org/fixture/fixturehttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fixture until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveFlags(serveCmd.Flags())
}

// serveFlags defines the flags that override configuration for serve.
func serveFlags(flags *pflag.FlagSet) {
	flags.String("address", "", "bind address, e.g. :8080 (default: an ephemeral loopback port)")
	flags.Bool("handle-errors", true, "translate handler failures into 404/500 responses")
	flags.String("handle-errors-header", "", "request header that overrides --handle-errors per request")
	flags.String("resource-dir", "", "directory served under "+fixture.ResourcePrefix)
	flags.String("log-level", "", "minimum log level")
	flags.Bool("development", false, "use development logging")
}

// newViper reads the configuration file named by --config or $FIXTURE_CONFIG, if any.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	file, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	if len(file) == 0 {
		file = os.Getenv(ConfigEnv)
	}

	if len(file) > 0 {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// flagOverrides applies only the flags that were explicitly set on the command line.
type flagOverrides struct {
	flags *pflag.FlagSet
}

func (fo flagOverrides) str(name string, dst *string) {
	if fo.flags.Changed(name) {
		*dst, _ = fo.flags.GetString(name)
	}
}

func (fo flagOverrides) boolean(name string, dst *bool) {
	if fo.flags.Changed(name) {
		*dst, _ = fo.flags.GetBool(name)
	}
}

func (fo flagOverrides) fixture(cfg fixture.Config) (fixture.Config, error) {
	fo.boolean("handle-errors", &cfg.HandleErrors)
	fo.str("handle-errors-header", &cfg.HandleErrorsHeader)
	fo.str("resource-dir", &cfg.ResourceDir)
	return cfg, cfg.Validate()
}

func (fo flagOverrides) server(sc fixturehttp.ServerConfig) fixturehttp.ServerConfig {
	fo.str("address", &sc.Address)
	return sc
}

func (fo flagOverrides) log(lc fixture.LogConfig) fixture.LogConfig {
	fo.str("log-level", &lc.Level)
	fo.boolean("development", &lc.Development)
	return lc
}

// newApp assembles the fixture application from configuration and flags.
func newApp(v *viper.Viper, flags *pflag.FlagSet) (*fx.App, *zap.Logger, error) {
	fo := flagOverrides{flags: flags}
	lc, err := fixture.Unmarshal(v, fixture.LogConfigKey, fixture.LogConfig{})
	if err != nil {
		return nil, nil, err
	}

	logger, err := fo.log(lc).NewLogger()
	if err != nil {
		return nil, nil, err
	}

	app := fx.New(
		fixture.Logger(logger),
		fx.Supply(v),
		fixture.Provide(),
		fixturehttp.Provide(),
		fx.Decorate(
			fo.fixture,
			fo.server,
		),
	)

	return app, logger, app.Err()
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}

	app, logger, err := newApp(v, cmd.Flags())
	if err != nil {
		return err
	}

	defer logger.Sync() //nolint:errcheck
	if err := app.Start(context.Background()); err != nil {
		return err
	}

	sig := <-app.Done()
	logger.Info("stopping", zap.Stringer("signal", sig))

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}
