package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// CreateTransport returns the writer transport with TLS and SASL applied.
func CreateTransport(cfg *Config) (*kafka.Transport, error) {
	tc, mech, err := cfg.security()
	if err != nil {
		return nil, err
	}
	return &kafka.Transport{
		DialTimeout: cfg.DialTimeout,
		IdleTimeout: cfg.IdleTimeout,
		MetadataTTL: cfg.MetadataTTL,
		TLS:         tc,
		SASL:        mech,
	}, nil
}

// CreateDialer returns a dialer with the same security, used to probe brokers.
func CreateDialer(cfg *Config) (*kafka.Dialer, error) {
	tc, mech, err := cfg.security()
	if err != nil {
		return nil, err
	}
	return &kafka.Dialer{Timeout: cfg.DialTimeout, DualStack: true, TLS: tc, SASLMechanism: mech}, nil
}

// security returns nil for each part that is switched off.
func (c *Config) security() (*tls.Config, sasl.Mechanism, error) {
	var (
		tc   *tls.Config
		mech sasl.Mechanism
		err  error
	)
	if c.TLS.Enabled {
		if tc, err = c.TLS.build(); err != nil {
			return nil, nil, fmt.Errorf("kafka tls: %w", err)
		}
	}
	if c.SASL.Enabled {
		if mech, err = c.SASL.build(); err != nil {
			return nil, nil, fmt.Errorf("kafka sasl: %w", err)
		}
	}
	return tc, mech, nil
}

func (t TLSConfig) build() (*tls.Config, error) {
	tc := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: t.SkipVerify, //nolint:gosec // opt-in for dev clusters
	}
	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, err
		}
		tc.RootCAs = x509.NewCertPool()
		if !tc.RootCAs.AppendCertsFromPEM(pem) {
			return nil, errors.New("no certificates in " + t.CAFile)
		}
	}
	if t.CertFile != "" && t.KeyFile != "" {
		pair, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, err
		}
		tc.Certificates = append(tc.Certificates, pair)
	}
	return tc, nil
}

func (s SASLConfig) build() (sasl.Mechanism, error) {
	switch s.Mechanism {
	case "PLAIN":
		return plain.Mechanism{Username: s.Username, Password: s.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, s.Username, s.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, s.Username, s.Password)
	}
	return nil, fmt.Errorf("unsupported mechanism %q", s.Mechanism)
}

var codecs = map[string]kafka.Compression{
	"none": 0,
	"gzip": kafka.Gzip,
	"lz4":  kafka.Lz4,
	"zstd": kafka.Zstd,
}

// ResolveCompression maps a codec name to kafka-go's constant. Unknown
// names fall back to snappy.
func ResolveCompression(name string) kafka.Compression {
	if c, ok := codecs[name]; ok {
		return c
	}
	return kafka.Snappy
}
