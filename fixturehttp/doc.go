// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package fixturehttp hosts a fixture.Dispatcher in an http.Server whose
configuration is unmarshaled from viper and whose lifecycle is bound to an
uber/fx application.
*/
package fixturehttp
