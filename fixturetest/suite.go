// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturetest

import (
	"net/http"
	"strings"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
)

// Suite is embedded by testify suites that run fixtures.  Each test starts
// with an empty configuration, and every YAML or JSON document the test
// supplies is merged into it before Start.
type Suite struct {
	suite.Suite
	config *viper.Viper
}

func (suite *Suite) SetupTest() {
	suite.config = viper.New()
}

// Viper returns the configuration of the current test.
func (suite *Suite) Viper() *viper.Viper {
	return suite.config
}

func (suite *Suite) YAML(text string) {
	suite.merge("yaml", text)
}

func (suite *Suite) JSON(text string) {
	suite.merge("json", text)
}

func (suite *Suite) merge(configType, text string) {
	suite.config.SetConfigType(configType)
	suite.Require().NoError(
		suite.config.MergeConfig(strings.NewReader(text)),
		"invalid %s configuration", configType,
	)
}

// Start runs a fixture with the current test's configuration.
func (suite *Suite) Start(more ...fx.Option) *Session {
	return Start(suite.T(), suite.config, more...)
}

// Get requires a successful GET of path through s and returns the response
// with its body already read.
func (suite *Suite) Get(s *Session, path string) (*http.Response, string) {
	response, err := s.Get(path)
	suite.Require().NoError(err)

	body, err := ReadBody(response)
	suite.Require().NoError(err)
	return response, body
}
