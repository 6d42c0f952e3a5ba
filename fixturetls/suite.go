// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturetls

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/stretchr/testify/suite"
)

// Suite is embedded by testify suites that serve fixtures over HTTPS.  A
// self-signed certificate for localhost is written to temporary files when
// the suite starts and removed when it ends.
type Suite struct {
	suite.Suite

	leaf  *x509.Certificate
	files ExternalCertificate
}

func (suite *Suite) SetupSuite() {
	certificate, err := CreateTestCertificate(NewTestTemplate())
	suite.Require().NoError(err, "unable to generate a test certificate")

	suite.leaf, err = x509.ParseCertificate(certificate.Certificate[0])
	suite.Require().NoError(err)

	suite.files.CertificateFile, suite.files.KeyFile, err = CreateTestServerFiles(certificate)
	suite.Require().NoError(err, "unable to write the test certificate")
}

func (suite *Suite) TearDownSuite() {
	for _, name := range []string{suite.files.CertificateFile, suite.files.KeyFile} {
		if err := os.Remove(name); err != nil {
			suite.T().Logf("unable to remove %s: %s", name, err)
		}
	}
}

// Certificate returns the files holding this suite's certificate and key.
func (suite *Suite) Certificate() ExternalCertificate {
	return suite.files
}

// Config returns a server configuration that presents this suite's certificate.
func (suite *Suite) Config() *Config {
	return &Config{
		Certificates: ExternalCertificates{suite.files},
	}
}

// TLSConfig requires that Config produces a *tls.Config.
func (suite *Suite) TLSConfig() *tls.Config {
	tc, err := suite.Config().New()
	suite.Require().NoError(err)
	suite.Require().NotNil(tc)
	return tc
}

// CertPool returns roots that trust this suite's certificate.
func (suite *Suite) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(suite.leaf)
	return pool
}
