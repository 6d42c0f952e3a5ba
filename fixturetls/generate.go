// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixturetls

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"time"
)

// NewTestTemplate returns a certificate template suitable for a fixture served
// on the loopback interface.
func NewTestTemplate() *x509.Certificate {
	return &x509.Certificate{
		SerialNumber: big.NewInt(837492837),
		Issuer: pkix.Name{
			CommonName: "fixture",
		},
		Subject: pkix.Name{
			CommonName: "fixture",
		},
		DNSNames: []string{
			"localhost",
		},
		IPAddresses: []net.IP{
			net.IPv4(127, 0, 0, 1),
			net.IPv6loopback,
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
}

// CreateTestCertificate creates a self-signed x509 certificate for use in testing
// TLS code.
func CreateTestCertificate(template *x509.Certificate) (*tls.Certificate, error) {
	var (
		key      *rsa.PrivateKey
		derBytes []byte
		err      error
	)

	key, err = rsa.GenerateKey(rand.Reader, 2048)
	if err == nil {
		derBytes, err = x509.CreateCertificate(
			rand.Reader,
			template,
			template,
			&key.PublicKey,
			key,
		)
	}

	return &tls.Certificate{
		Certificate: [][]byte{derBytes},
		PrivateKey:  key,
	}, err
}

// CreateTestServerFiles writes the certificate file and key file expected by
// ExternalCertificate.
//
// The supplied certificate must have at least (1) []byte in its Certificate chain.
// If not, this function will panic.  If it has more than (1) entry in its chain,
// only the first entry is written to the certificate file.
func CreateTestServerFiles(certificate *tls.Certificate) (certificateFileName, keyFileName string, err error) {
	var (
		certificateFile *os.File
		keyFile         *os.File
		keyBytes        []byte
	)

	certificateFile, err = os.CreateTemp("", "fixture-cert-*.pem")
	if err == nil {
		defer certificateFile.Close()
		keyFile, err = os.CreateTemp("", "fixture-key-*.pem")
	}

	if err == nil {
		defer keyFile.Close()
		err = pem.Encode(certificateFile, &pem.Block{
			Type:  "CERTIFICATE",
			Bytes: certificate.Certificate[0],
		})
	}

	if err == nil {
		keyBytes, err = x509.MarshalPKCS8PrivateKey(certificate.PrivateKey)
	}

	if err == nil {
		err = pem.Encode(keyFile, &pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: keyBytes,
		})
	}

	if err == nil {
		certificateFileName = certificateFile.Name()
		keyFileName = keyFile.Name()
	}

	return
}
