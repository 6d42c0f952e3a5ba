// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturetls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrTLSCertificateRequired means a fixture server was configured for TLS
	// without a complete certificate and key pair.
	ErrTLSCertificateRequired = errors.New("both a certificateFile and keyFile are required")

	// ErrUnableToAddClientCACertificate means a client CA file held no PEM certificates.
	ErrUnableToAddClientCACertificate = errors.New("no PEM certificates found")
)

// cipherSuites restricts handshakes below TLS 1.3, which ignores this list.
var cipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
}

// Version is a TLS protocol version that unmarshals from text such as "1.2".
type Version uint16

// UnmarshalText accepts "1.0" through "1.3", optionally prefixed with "tls".
func (v *Version) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(string(text))), "tls")
	switch strings.TrimSpace(s) {
	case "":
		*v = 0
	case "1.0", "10":
		*v = tls.VersionTLS10
	case "1.1", "11":
		*v = tls.VersionTLS11
	case "1.2", "12":
		*v = tls.VersionTLS12
	case "1.3", "13":
		*v = tls.VersionTLS13
	default:
		return fmt.Errorf("unsupported TLS version %q", text)
	}

	return nil
}

// ExternalCertificate is a PEM certificate and its private key, each in a file.
type ExternalCertificate struct {
	CertificateFile string
	KeyFile         string
}

func (ec ExternalCertificate) Load() (tls.Certificate, error) {
	if len(ec.CertificateFile) == 0 || len(ec.KeyFile) == 0 {
		return tls.Certificate{}, ErrTLSCertificateRequired
	}

	return tls.LoadX509KeyPair(ec.CertificateFile, ec.KeyFile)
}

type ExternalCertificates []ExternalCertificate

// Load reads every certificate.  All failures are reported together.
func (ecs ExternalCertificates) Load() (certs []tls.Certificate, err error) {
	if len(ecs) == 0 {
		return nil, ErrTLSCertificateRequired
	}

	for _, ec := range ecs {
		c, loadErr := ec.Load()
		if loadErr != nil {
			err = multierr.Append(err, fmt.Errorf("certificate %s: %w", ec.CertificateFile, loadErr))
			continue
		}

		certs = append(certs, c)
	}

	if err != nil {
		certs = nil
	}

	return
}

// ExternalCertPool names PEM files, each holding one or more CA certificates.
type ExternalCertPool []string

// Load builds a pool from every file.  All failures are reported together.
func (ecp ExternalCertPool) Load() (*x509.CertPool, error) {
	var (
		pool = x509.NewCertPool()
		err  error
	)

	for _, name := range ecp {
		contents, readErr := os.ReadFile(name)
		switch {
		case readErr != nil:
			err = multierr.Append(err, readErr)

		case !pool.AppendCertsFromPEM(contents):
			err = multierr.Append(err, fmt.Errorf("%w in %s", ErrUnableToAddClientCACertificate, name))
		}
	}

	if err != nil {
		return nil, err
	}

	return pool, nil
}

// Config is the TLS section of a fixture server's configuration.
type Config struct {
	// Certificates are presented to clients.  At least one is required.
	Certificates ExternalCertificates

	// ClientCAs, when set, makes the server require client certificates signed by one of them.
	ClientCAs ExternalCertPool

	// NextProtos defaults to http/1.1.
	NextProtos []string

	// MinVersion defaults to 1.3.
	MinVersion Version

	// MaxVersion is raised to MinVersion if lower.  Zero leaves the crypto/tls default.
	MaxVersion Version
}

// New creates the server *tls.Config.  A nil Config means plain HTTP, so New
// returns nil with no error.
func (c *Config) New() (*tls.Config, error) {
	if c == nil {
		return nil, nil
	}

	certs, err := c.Certificates.Load()
	if err != nil {
		return nil, err
	}

	tc := &tls.Config{
		Certificates: certs,
		CipherSuites: cipherSuites,
		MinVersion:   uint16(c.MinVersion),
		MaxVersion:   uint16(c.MaxVersion),
		NextProtos:   append([]string{}, c.NextProtos...),
	}

	if tc.MinVersion == 0 {
		tc.MinVersion = tls.VersionTLS13
	}

	if tc.MaxVersion != 0 && tc.MaxVersion < tc.MinVersion {
		tc.MaxVersion = tc.MinVersion
	}

	if len(tc.NextProtos) == 0 {
		tc.NextProtos = []string{"http/1.1"}
	}

	if len(c.ClientCAs) > 0 {
		tc.ClientCAs, err = c.ClientCAs.Load()
		if err != nil {
			return nil, err
		}

		tc.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tc, nil
}
