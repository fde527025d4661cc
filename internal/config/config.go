package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/cashclose/internal/model"
)

// FileName is the config file at the root of a cashclose repo.
const FileName = "cashclose.yaml"

// Config represents the top-level cashclose.yaml configuration.
type Config struct {
	Entities []EntityConfig       `yaml:"entities"`
	Ledger   LedgerConfig         `yaml:"ledger"`
	Storage  StorageConfig        `yaml:"storage"`
	Users    map[string]UserConfig `yaml:"users,omitempty"`
	Variance VarianceConfig       `yaml:"variance"`
	Git      GitConfig            `yaml:"git"`
	Server   ServerConfig         `yaml:"server"`
}

// EntityConfig identifies an independently reconciled business unit.
type EntityConfig struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	LocalCurrency string `yaml:"local_currency"`
}

// LedgerConfig describes the journal the balances are read from.
type LedgerConfig struct {
	// DualCurrency is set when journal rows carry the alternate-currency
	// columns. Without it USD and EUR balances are zero.
	DualCurrency bool `yaml:"dual_currency"`
}

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// StorageConfig selects the close store.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSNEnv string `yaml:"dsn_env,omitempty"`
}

// UserConfig links a user to a personnel record for signature lookup.
type UserConfig struct {
	Personnel string `yaml:"personnel,omitempty"`
}

// VarianceConfig holds absolute difference thresholds for flagging lines.
type VarianceConfig struct {
	Warning  decimal.Decimal `yaml:"warning"`
	Critical decimal.Decimal `yaml:"critical"`
}

// Variance levels.
const (
	VarianceOK       = "ok"
	VarianceWarning  = "warning"
	VarianceCritical = "critical"
)

// Classify returns the level of a line difference.
func (v VarianceConfig) Classify(diff decimal.Decimal) string {
	abs := diff.Abs()
	switch {
	case !v.Critical.IsZero() && abs.GreaterThanOrEqual(v.Critical):
		return VarianceCritical
	case !v.Warning.IsZero() && abs.GreaterThanOrEqual(v.Warning):
		return VarianceWarning
	case v.Warning.IsZero() && v.Critical.IsZero() && !abs.IsZero():
		return VarianceWarning
	}
	return VarianceOK
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads a cashclose.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks entity codes and the storage driver.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, e := range c.Entities {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		if code == "" {
			return fmt.Errorf("entity %d: code is required", i+1)
		}
		if seen[code] {
			return fmt.Errorf("entity %s: duplicate code", code)
		}
		if e.LocalCurrency == "" {
			return fmt.Errorf("entity %s: local_currency is required", code)
		}
		seen[code] = true
		c.Entities[i].Code = code
		c.Entities[i].LocalCurrency = strings.ToUpper(e.LocalCurrency)
	}
	switch c.Storage.Driver {
	case "", DriverFile:
	case DriverPostgres:
		if c.Storage.DSNEnv == "" {
			return errors.New("storage: postgres driver needs dsn_env")
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}
	return nil
}

// Entity returns a configured entity by code.
func (c *Config) Entity(code string) (model.Entity, bool) {
	for _, e := range c.Entities {
		if strings.EqualFold(e.Code, code) {
			return model.Entity{Code: e.Code, Name: e.Name, LocalCurrency: e.LocalCurrency}, true
		}
	}
	return model.Entity{}, false
}

// EntityCodes returns the configured entity codes in file order.
func (c *Config) EntityCodes() []string {
	codes := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		codes[i] = e.Code
	}
	return codes
}

// Personnel returns the personnel record linked to a user, if any.
func (c *Config) Personnel(user string) string {
	return c.Users[user].Personnel
}

// LoadEnv reads <repoRoot>/.env into the process environment without
// overriding variables that are already set. A missing file is fine.
func LoadEnv(repoRoot string) error {
	path := filepath.Join(repoRoot, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// DSN returns the database connection string named by storage.dsn_env.
func (c *Config) DSN() (string, error) {
	dsn := os.Getenv(c.Storage.DSNEnv)
	if dsn == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.Storage.DSNEnv)
	}
	return dsn, nil
}

// Default returns a Config with sensible defaults for a new repo.
func Default(entities ...EntityConfig) *Config {
	return &Config{
		Entities: entities,
		Storage:  StorageConfig{Driver: DriverFile},
		Variance: VarianceConfig{
			Warning:  decimal.NewFromInt(1),
			Critical: decimal.NewFromInt(50),
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Cash Close",
			AuthorEmail: "cashclose@localhost",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}
