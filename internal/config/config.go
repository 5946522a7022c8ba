// Package config loads the CLI's YAML configuration and applies environment
// overrides for secrets. The loaded values are handed to the engine as an
// explicit configuration; nothing here is process-wide state.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the file omits a field.
const (
	DefaultLookbackDays    = 90
	DefaultPreparationWait = Duration(8 * time.Second)
	DefaultCreatePause     = Duration(1200 * time.Millisecond)
	DefaultHTTPTimeout     = Duration(30 * time.Second)
	DefaultArchiveDir      = "transactions"
	DefaultLedgerPath      = "cashcrawler.db"
)

// Duration decodes YAML scalars in time.ParseDuration form ("8s", "1200ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Bank configures one bank source.
//
// Credentials are never stored in the file: ClientNumberEnv and
// ClientSecretEnv name the environment variables holding them, defaulting to
// CASHCRAWLER_<ID>_CLIENT_NUMBER and CASHCRAWLER_<ID>_CLIENT_SECRET.
type Bank struct {
	ID              string `yaml:"id"`
	BaseURL         string `yaml:"base_url"`
	ClientNumberEnv string `yaml:"client_number_env,omitempty"`
	ClientSecretEnv string `yaml:"client_secret_env,omitempty"`
}

// ClientNumber resolves the bank's client number from the environment.
func (b Bank) ClientNumber() string {
	return os.Getenv(b.envName(b.ClientNumberEnv, "CLIENT_NUMBER"))
}

// ClientSecret resolves the bank's client secret from the environment.
func (b Bank) ClientSecret() string {
	return os.Getenv(b.envName(b.ClientSecretEnv, "CLIENT_SECRET"))
}

func (b Bank) envName(explicit, suffix string) string {
	if explicit != "" {
		return explicit
	}
	id := strings.ToUpper(strings.ReplaceAll(b.ID, "-", "_"))
	return "CASHCRAWLER_" + id + "_" + suffix
}

// Config is the full file.
type Config struct {
	ArchiveDir      string   `yaml:"archive_dir"`
	LedgerPath      string   `yaml:"ledger_path"`
	LookbackDays    int      `yaml:"lookback_days"`
	PreparationWait Duration `yaml:"preparation_wait"`
	CreatePause     Duration `yaml:"create_pause"`
	HTTPTimeout     Duration `yaml:"http_timeout"`
	Banks           []Bank   `yaml:"banks"`
}

// Load reads, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ArchiveDir == "" {
		c.ArchiveDir = DefaultArchiveDir
	}
	if c.LedgerPath == "" {
		c.LedgerPath = DefaultLedgerPath
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	if c.PreparationWait == 0 {
		c.PreparationWait = DefaultPreparationWait
	}
	if c.CreatePause == 0 {
		c.CreatePause = DefaultCreatePause
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
}

// Validate fails fast on configurations the engine cannot run with.
// Whether each bank id has a registered connector is checked by the caller,
// which knows the registry.
func (c *Config) Validate() error {
	if len(c.Banks) == 0 {
		return fmt.Errorf("config: at least one bank is required")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("config: lookback_days must be positive, got %d", c.LookbackDays)
	}
	seen := map[string]struct{}{}
	for i, b := range c.Banks {
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("config: banks[%d] is missing an id", i)
		}
		if strings.TrimSpace(b.BaseURL) == "" {
			return fmt.Errorf("config: bank %q is missing base_url", b.ID)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("config: bank %q configured twice", b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}
