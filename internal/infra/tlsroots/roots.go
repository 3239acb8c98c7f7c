package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNoCertsFound      = errors.New("tlsroots: no certificates found in PEM data")
	ErrIncompleteKeyPair = errors.New("tlsroots: client cert and key must be set together")
)

// Options selects the TLS material of the API client.
type Options struct {
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string
	// CertFile and KeyFile form the client certificate for mutual TLS.
	CertFile string
	KeyFile  string
	// Insecure disables server certificate verification.
	Insecure bool
}

// IsZero reports whether the options leave Go's defaults untouched.
func (o Options) IsZero() bool {
	return o == Options{}
}

// Config builds the client TLS config. It returns nil for zero options so
// the transport keeps its defaults.
func Config(opts Options) (*tls.Config, error) {
	if opts.IsZero() {
		return nil, nil
	}
	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, ErrIncompleteKeyPair
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.Insecure, //nolint:gosec // explicit user opt-in
	}

	if opts.CAFile != "" {
		data, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: read CA file: %w", err)
		}
		roots, err := Roots(data)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: %s: %w", opts.CAFile, err)
		}
		cfg.RootCAs = roots
	}

	if opts.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: load key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

// Roots returns the system roots extended with every CERTIFICATE block of
// bundle. Blocks of other types are skipped.
func Roots(bundle []byte) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}

	added := 0
	for rest := bundle; len(rest) > 0; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return nil, ErrNoCertsFound
	}
	return pool, nil
}
