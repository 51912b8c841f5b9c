package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selects where state lives.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
)

// Config is the full process configuration, read once at start-up.
type Config struct {
	Server      Server
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Boxoffice   BoxofficeConfig
	Idempotency IdempotencyConfig
	// DevDeposits seeds ledger balances at start-up. Development only.
	DevDeposits map[string]uint64
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	JWTSigningKey  string
	JWTIssuer      string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	URL           string
	StoreBackend  Backend
	LedgerBackend Backend
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// BoxofficeConfig holds the deployment constants of the ticketing domain.
type BoxofficeConfig struct {
	MinAdmissionFee   uint64
	MaxCapacity       uint32
	ProtectionRate    uint64
	ProtectionEnabled bool
	VaultAccount      string
}

type IdempotencyConfig struct {
	TTL time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Config from BOXOFFICE_* environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Server: Server{
			Addr:           getenv("BOXOFFICE_ADDR", ":8080"),
			JWTSigningKey:  getenv("BOXOFFICE_JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:      getenv("BOXOFFICE_JWT_ISSUER", "boxoffice"),
			RequestTimeout: durationEnv("BOXOFFICE_REQUEST_TIMEOUT", 10*time.Second, &errs),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("BOXOFFICE_DATABASE_URL"),
			StoreBackend:  Backend(getenv("BOXOFFICE_STORE_BACKEND", string(BackendMemory))),
			LedgerBackend: Backend(getenv("BOXOFFICE_LEDGER_BACKEND", string(BackendMemory))),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("BOXOFFICE_REDIS_URL"),
			PoolSize:     int(uintEnv("BOXOFFICE_REDIS_POOL_SIZE", 10, 16, &errs)),
			MinIdleConns: int(uintEnv("BOXOFFICE_REDIS_MIN_IDLE_CONNS", 2, 16, &errs)),
			DialTimeout:  durationEnv("BOXOFFICE_REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  durationEnv("BOXOFFICE_REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: durationEnv("BOXOFFICE_REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("BOXOFFICE_KAFKA_BROKERS")),
			Topic:   getenv("BOXOFFICE_KAFKA_TOPIC", "boxoffice.audit"),
		},
		Boxoffice: BoxofficeConfig{
			MinAdmissionFee:   uintEnv("BOXOFFICE_MIN_ADMISSION_FEE", 100, 64, &errs),
			MaxCapacity:       uint32(uintEnv("BOXOFFICE_MAX_CAPACITY", 10000, 32, &errs)),
			ProtectionRate:    uintEnv("BOXOFFICE_PROTECTION_RATE", 5, 64, &errs),
			ProtectionEnabled: boolEnv("BOXOFFICE_PROTECTION_ENABLED", true, &errs),
			VaultAccount:      getenv("BOXOFFICE_VAULT_ACCOUNT", "insurance-vault"),
		},
		Idempotency: IdempotencyConfig{
			TTL: durationEnv("BOXOFFICE_IDEMPOTENCY_TTL", 24*time.Hour, &errs),
		},
	}

	deposits, err := parseDeposits(os.Getenv("BOXOFFICE_DEV_DEPOSITS"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.DevDeposits = deposits

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks combinations that individual parsers cannot.
func (c Config) Validate() error {
	var errs []error
	for name, b := range map[string]Backend{"store": c.Database.StoreBackend, "ledger": c.Database.LedgerBackend} {
		if b != BackendMemory && b != BackendPostgres {
			errs = append(errs, fmt.Errorf("unknown %s backend %q", name, b))
		}
		if b == BackendPostgres && c.Database.URL == "" {
			errs = append(errs, fmt.Errorf("%s backend postgres requires BOXOFFICE_DATABASE_URL", name))
		}
	}
	if c.Database.StoreBackend == BackendPostgres && c.Database.LedgerBackend == BackendMemory {
		errs = append(errs, errors.New("a postgres store requires the postgres ledger"))
	}
	if c.Server.JWTSigningKey == "" {
		errs = append(errs, errors.New("jwt signing key is required"))
	}
	if c.Boxoffice.MaxCapacity == 0 || c.Boxoffice.MaxCapacity > 10000 {
		errs = append(errs, errors.New("max capacity must be between 1 and 10000"))
	}
	if c.Boxoffice.ProtectionRate > 100 {
		errs = append(errs, errors.New("protection rate must be a percentage"))
	}
	if c.Boxoffice.ProtectionEnabled && c.Boxoffice.VaultAccount == "" {
		errs = append(errs, errors.New("vault account is required when protection is enabled"))
	}
	if c.Kafka.Topic == "" && len(c.Kafka.Brokers) > 0 {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}

// UsesDevSigningKey reports whether tokens are signed with the built-in key.
func (c Config) UsesDevSigningKey() bool {
	return c.Server.JWTSigningKey == devSigningKey
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func uintEnv(key string, fallback uint64, bits int, errs *[]error) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func durationEnv(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDeposits reads "alice=1000,bob=500".
func parseDeposits(v string) (map[string]uint64, error) {
	deposits := map[string]uint64{}
	for _, entry := range splitList(v) {
		account, amount, ok := strings.Cut(entry, "=")
		account = strings.TrimSpace(account)
		if !ok || account == "" {
			return nil, fmt.Errorf("BOXOFFICE_DEV_DEPOSITS: malformed entry %q", entry)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(amount), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("BOXOFFICE_DEV_DEPOSITS: %s: %w", account, err)
		}
		deposits[account] = n
	}
	return deposits, nil
}
