package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBadger   = "badger"
	StoreDriverMemory   = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Telemetry   TelemetryConfig
	Auth        AuthConfig
	Kafka       KafkaConfig
	Badger      BadgerConfig
	DB          DBConfig
	StoreDriver string
	PolicyFile  string
	LogLevel    string
	LogFormat   string
	Environment string
	HTTPPort    int
	GRPCPort    int
	// GRPCReflection registers the reflection service for grpcurl and friends.
	GRPCReflection bool
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Port     int
	MaxConns int32
	MinConns int32

	StatementTimeout time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	TriggerTopic  string
	AuditTopic    string
	RelayInterval time.Duration
	RelayBatch    int
	TLS           bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// Enabled reports whether a broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type BadgerConfig struct {
	Path     string
	InMemory bool
}

type AuthConfig struct {
	JWTSecret string
	// JWTPublicKeyFile switches token validation to RS256.
	JWTPublicKeyFile string
	JWTIssuer        string
	JWTAudience      string
	TLSCertFile      string
	TLSKeyFile       string
	TLSCAFile        string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Insecure     bool
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		HTTPPort:       getEnvInt("HTTP_PORT", 8090),
		GRPCPort:       getEnvInt("GRPC_PORT", 9090),
		GRPCReflection: getEnvBool("GRPC_REFLECTION", false),
		StoreDriver:    getEnv("STORE_DRIVER", StoreDriverPostgres),
		PolicyFile:     getEnv("RISK_POLICY_FILE", ""),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "crewrisk"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "crewrisk"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)), //nolint:gosec // bounded by env config
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),  //nolint:gosec // bounded by env config

			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 5*time.Second),
		},
		Badger: BadgerConfig{
			Path:     getEnv("BADGER_PATH", "./data/crewrisk"),
			InMemory: getEnvBool("BADGER_IN_MEMORY", false),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "crewrisk"),
			TriggerTopic:  getEnv("KAFKA_TRIGGER_TOPIC", "crewrisk.engine-outputs"),
			AuditTopic:    getEnv("KAFKA_AUDIT_TOPIC", "crewrisk.audit"),
			RelayInterval: getEnvDuration("OUTBOX_RELAY_INTERVAL", 2*time.Second),
			RelayBatch:    getEnvInt("OUTBOX_RELAY_BATCH", 100),
			TLS:           getEnvBool("KAFKA_TLS", false),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			JWTIssuer:        getEnv("JWT_ISSUER", "crewrisk"),
			JWTAudience:      getEnv("JWT_AUDIENCE", "crewrisk-api"),
			TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
			TLSCAFile:        getEnv("TLS_CA_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  "crewrisk",
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

// Validate checks required configuration values.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required for the postgres store"))
		}
	case StoreDriverBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			errs = append(errs, errors.New("BADGER_PATH is required unless BADGER_IN_MEMORY is set"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKeyFile == "" {
		errs = append(errs, errors.New("JWT_SECRET or JWT_PUBLIC_KEY_FILE is required"))
	}
	if (c.Auth.TLSCertFile == "") != (c.Auth.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}

	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c Config) GRPCAddress() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
