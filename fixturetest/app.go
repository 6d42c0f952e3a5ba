// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturetest

import (
	"testing"

	"github.com/xmidt-org/fixture"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

// NewApp creates an *fxtest.App that logs, fx events included, through t.
func NewApp(t testing.TB, o ...fx.Option) *fxtest.App {
	return fxtest.New(
		t,
		append(
			[]fx.Option{fixture.Logger(zaptest.NewLogger(t))},
			o...,
		)...,
	)
}
