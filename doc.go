// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package fixture is a small HTTP application used to exercise browser-like
client libraries against a real request/response cycle.

A Dispatcher routes each request by exact path to one of a fixed set of
handlers:

	/set_status.html      sets the response status from ?status=
	/echo.html            echoes transport metadata, parameters and the body
	/echo_one.html        echoes one metadata value named by ?var=
	/set_header.html      sets a response header for each parameter
	/set_cookie.html      sets one cookie described by the parameters
	/get_cookie.html      lists the request's cookies

The cookie handlers are repeated under /inner/ and /inner/path/.  Paths under
ResourcePrefix serve files, with HTML files rendered as templates.  Anything
else is a 404.

Handler failures become 404 or 500 responses unless error handling is turned
off, in which case they propagate to the hosting layer.  Every response from
the Dispatcher carries an X-Powered-By header.

Packages fixturehttp and fixturetest host a Dispatcher inside an uber/fx
application, configured through viper.
*/
package fixture
