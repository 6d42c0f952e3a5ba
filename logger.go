// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfigKey is the configuration key holding a LogConfig.
const LogConfigKey = "log"

// LogConfig is the externally supplied logging configuration.
type LogConfig struct {
	// Level is the minimum enabled level, e.g. "debug" or "warn".  Defaults to "info".
	Level string

	// Development switches to zap's development settings: console output,
	// stack traces on warnings and panics on DPanic.
	Development bool

	// Encoding is either "json" or "console".  The default depends on Development.
	Encoding string

	// OutputPaths are the sinks for log output.  Defaults to stderr.
	OutputPaths []string
}

// NewLogger builds a zap logger from this configuration.
func (lc LogConfig) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if len(lc.Level) > 0 {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, err
		}

		zc.Level = zap.NewAtomicLevelAt(level)
	}

	if len(lc.Encoding) > 0 {
		zc.Encoding = lc.Encoding
	}

	if len(lc.OutputPaths) > 0 {
		zc.OutputPaths = append([]string{}, lc.OutputPaths...)
	}

	return zc.Build()
}

// Logger supplies l as the *zap.Logger component and routes the fx container's
// own event logging through it.
func Logger(l *zap.Logger) fx.Option {
	return fx.Options(
		fx.Supply(l),
		fx.WithLogger(
			func() fxevent.Logger {
				return &fxevent.ZapLogger{Logger: l}
			},
		),
	)
}
