package kafka

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Supported SASL mechanisms.
const (
	SASLPlain       = "PLAIN"
	SASLScramSHA256 = "SCRAM-SHA-256"
	SASLScramSHA512 = "SCRAM-SHA-512"
)

// ErrUnsupportedSASL is returned for a mechanism other than the ones above.
var ErrUnsupportedSASL = errors.New("kafka: unsupported SASL mechanism")

// Config holds broker connection parameters shared by producers and consumers.
type Config struct {
	ClientID      string
	ConsumerGroup string

	// SASLMechanism defaults to PLAIN when SASLEnabled is set.
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string

	Brokers []string

	TLS         bool
	SASLEnabled bool
}

// Validate reports configuration the client would only discover at dial time.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	if c.SASLEnabled {
		if c.SASLUsername == "" {
			return errors.New("kafka: SASL username is required")
		}
		if _, err := c.mechanism(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) secured() bool {
	return c.TLS || c.SASLEnabled
}

func (c Config) tlsConfig() *tls.Config {
	if !c.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

func (c Config) mechanism() (sasl.Mechanism, error) {
	switch c.SASLMechanism {
	case SASLPlain, "":
		return plain.Mechanism{Username: c.SASLUsername, Password: c.SASLPassword}, nil
	case SASLScramSHA256:
		return scram.Mechanism(scram.SHA256, c.SASLUsername, c.SASLPassword)
	case SASLScramSHA512:
		return scram.Mechanism(scram.SHA512, c.SASLUsername, c.SASLPassword)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSASL, c.SASLMechanism)
	}
}
