package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"spkstore/internal/domain"
)

// Storage backends accepted in Config.Backend.
const (
	BackendBolt    = "bolt"
	BackendLevelDB = "leveldb"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home        string        `yaml:"home"`         // state directory, e.g. $HOME/.spkstore
	Backend     string        `yaml:"backend"`      // bolt or leveldb
	Scope       string        `yaml:"scope"`        // identity scope commands act on
	LogLevel    string        `yaml:"log_level"`    // go-log level for spkstore loggers
	MetricsAddr string        `yaml:"metrics_addr"` // listen address for serve-metrics
	CullMaxAge  time.Duration `yaml:"cull_max_age"` // records older than this may be culled
	CullKeep    int           `yaml:"cull_keep"`    // non-current records always kept by cull
}

// DefaultConfig returns the configuration used when no file or flag overrides it.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendBolt,
		Scope:       domain.ScopePrimary.String(),
		LogLevel:    "info",
		MetricsAddr: "127.0.0.1:9464",
		CullMaxAge:  30 * 24 * time.Hour,
		CullKeep:    1,
	}
}

// LoadConfig overlays the YAML file at path on top of DefaultConfig. Fields
// missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultHome returns $HOME/.spkstore.
func DefaultHome() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".spkstore"), nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Home == "" {
		return errors.New("config: home is required")
	}
	switch c.Backend {
	case BackendBolt, BackendLevelDB:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := domain.ParseIdentityScope(c.Scope); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CullMaxAge < 0 || c.CullKeep < 0 {
		return errors.New("config: cull settings must not be negative")
	}
	return nil
}

// IdentityScope returns the parsed Scope.
func (c Config) IdentityScope() domain.IdentityScope {
	s, err := domain.ParseIdentityScope(c.Scope)
	if err != nil {
		return domain.ScopePrimary
	}
	return s
}
