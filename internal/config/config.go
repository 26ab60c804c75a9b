package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
)

// Config is the full application configuration. Values come from the YAML
// file first; a small set of environment variables override it for
// deployment-specific secrets and endpoints.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Chain    ChainConfig    `yaml:"chain"`
	Prover   ProverConfig   `yaml:"prover"`
	Verifier VerifierConfig `yaml:"verifier"`
	Relay    RelayConfig    `yaml:"relay"`
	Registry RegistryConfig `yaml:"registry"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Admin    AdminConfig    `yaml:"admin"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// ChainConfig points at the source-chain data API used for transaction and
// block lookups.
type ChainConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ProverConfig points at the proof-generation backend. Generation can take
// minutes, hence the separate and much larger timeout.
type ProverConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// VerifierConfig points at the external proof verification backend.
type VerifierConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RelayConfig anchors the header relay. The genesis hash and timestamp are
// trusted configuration; everything after them is validated on append.
type RelayConfig struct {
	GenesisHash              string `yaml:"genesis_hash"`
	GenesisTimestamp         int64  `yaml:"genesis_timestamp"`
	MaxFutureDriftSeconds    int    `yaml:"max_future_drift_seconds"`
	EmergencyCooldownSeconds int    `yaml:"emergency_cooldown_seconds"`
}

// RegistryConfig tunes the proof registry and declares the circuits it
// accepts at startup.
type RegistryConfig struct {
	CooldownSeconds            int             `yaml:"cooldown_seconds"`
	VerificationTimeoutSeconds int             `yaml:"verification_timeout_seconds"`
	MaxBatchSize               int             `yaml:"max_batch_size"`
	Circuits                   []CircuitConfig `yaml:"circuits"`
}

type CircuitConfig struct {
	CircuitID          string `yaml:"circuit_id"`
	VerificationKeyRef string `yaml:"verification_key_ref"`
	MaxPublicInputs    int    `yaml:"max_public_inputs"`
	ExpectedProofSize  int    `yaml:"expected_proof_size"`
	Active             bool   `yaml:"active"`
}

// BridgeConfig tunes the transfer pipeline.
type BridgeConfig struct {
	CircuitID             string `yaml:"circuit_id"`
	ConfirmationThreshold int64  `yaml:"confirmation_threshold"`
	PollIntervalSeconds   int    `yaml:"poll_interval_seconds"`
}

// AdminConfig controls access to the admin and relayer API surfaces.
type AdminConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAgeSeconds    int      `yaml:"max_age_seconds"`
}

// Load reads and validates the configuration at path. An empty path falls
// back to config.yaml, preferring config.local.yaml when present.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			path = "config.local.yaml"
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	overrideFromEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Chain:  ChainConfig{TimeoutSeconds: 30},
		Prover: ProverConfig{TimeoutSeconds: 600},
		Verifier: VerifierConfig{
			TimeoutSeconds: 60,
		},
		Relay: RelayConfig{
			MaxFutureDriftSeconds:    7200,
			EmergencyCooldownSeconds: 86400,
		},
		Registry: RegistryConfig{
			CooldownSeconds:            60,
			VerificationTimeoutSeconds: 300,
			MaxBatchSize:               10,
		},
		Bridge: BridgeConfig{
			ConfirmationThreshold: 6,
			PollIntervalSeconds:   15,
		},
		Admin: AdminConfig{TokenTTLMinutes: 60},
	}
}

func overrideFromEnv(cfg *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
		cfg.NATS.Enabled = true
	}
	if url := os.Getenv("CHAIN_API_URL"); url != "" {
		cfg.Chain.BaseURL = url
	}
	if url := os.Getenv("PROVER_URL"); url != "" {
		cfg.Prover.BaseURL = url
	}
	if url := os.Getenv("VERIFIER_URL"); url != "" {
		cfg.Verifier.BaseURL = url
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		cfg.Admin.JWTSecret = secret
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Chain.BaseURL == "" {
		return fmt.Errorf("chain.base_url is required")
	}
	if c.Prover.BaseURL == "" {
		return fmt.Errorf("prover.base_url is required")
	}
	if c.Verifier.BaseURL == "" {
		return fmt.Errorf("verifier.base_url is required")
	}
	if _, err := merkle.ParseHash(c.Relay.GenesisHash); err != nil {
		return fmt.Errorf("relay.genesis_hash: %w", err)
	}
	if c.Relay.GenesisTimestamp <= 0 {
		return fmt.Errorf("relay.genesis_timestamp is required")
	}
	if c.Bridge.CircuitID == "" {
		return fmt.Errorf("bridge.circuit_id is required")
	}
	found := false
	for _, circuit := range c.Registry.Circuits {
		if circuit.CircuitID == c.Bridge.CircuitID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("bridge.circuit_id %q is not declared under registry.circuits", c.Bridge.CircuitID)
	}
	if c.Admin.JWTSecret == "" {
		return fmt.Errorf("admin.jwt_secret is required")
	}
	return nil
}

// GenesisHash returns the parsed relay genesis hash. Call after validation.
func (c *Config) GenesisHash() merkle.Hash32 {
	return merkle.MustParseHash(c.Relay.GenesisHash)
}

func (c *Config) ChainTimeout() time.Duration {
	return time.Duration(c.Chain.TimeoutSeconds) * time.Second
}

func (c *Config) ProverTimeout() time.Duration {
	return time.Duration(c.Prover.TimeoutSeconds) * time.Second
}

func (c *Config) VerifierTimeout() time.Duration {
	return time.Duration(c.Verifier.TimeoutSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Bridge.PollIntervalSeconds) * time.Second
}

func (c *Config) AdminTokenTTL() time.Duration {
	return time.Duration(c.Admin.TokenTTLMinutes) * time.Minute
}
