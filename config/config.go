// Package config loads and validates Relic's process-level configuration
// surface: body size limits, header strictness, error-message sanitizing,
// worker count, and host-based routing mode.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is Relic's external configuration surface. Zero values are not
// automatically valid; call Validate (or rely on Load, which validates
// after applying defaults) before use.
type Config struct {
	// MaxRequestBodyBytes caps request body size; bodies exceeding it
	// fail with PayloadTooLarge. Zero means unlimited.
	MaxRequestBodyBytes int64 `yaml:"maxRequestBodyBytes"`
	// StrictHeaders, when true, makes the router reject a request whose
	// Content-Type header fails to parse with 400 at dispatch time. Other
	// headers are still parsed lazily on first typed access.
	StrictHeaders bool `yaml:"strictHeaders"`
	// SanitizeErrorMessages, when true, keeps 5xx bodies from reflecting
	// any request content or internal error detail.
	SanitizeErrorMessages bool `yaml:"sanitizeErrorMessages"`
	// NumberOfWorkers is the number of goroutines App.ListenWorkers runs,
	// each serving the one shared listener. Must be >= 1.
	NumberOfWorkers int `yaml:"numberOfWorkers"`
	// HostBasedRouting, when true, makes the router match against
	// "{host}{path}" instead of just "path".
	HostBasedRouting bool `yaml:"hostBasedRouting"`
}

// Default returns the configuration Relic uses when the caller supplies
// none: no body limit, lenient headers, unsanitized errors (useful in
// development), a single worker, path-only routing.
func Default() Config {
	return Config{
		MaxRequestBodyBytes:   0,
		StrictHeaders:         false,
		SanitizeErrorMessages: false,
		NumberOfWorkers:       1,
		HostBasedRouting:      false,
	}
}

// Load reads and parses the YAML file at path into a Config, applies
// Default's zero-value fallbacks, then Validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.NumberOfWorkers == 0 {
		cfg.NumberOfWorkers = 1
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the Config's fields hold values the rest of the
// package can act on safely.
func (c Config) Validate() error {
	if c.MaxRequestBodyBytes < 0 {
		return fmt.Errorf("config: maxRequestBodyBytes must be >= 0, got %d", c.MaxRequestBodyBytes)
	}
	if c.NumberOfWorkers < 1 {
		return fmt.Errorf("config: numberOfWorkers must be >= 1, got %d", c.NumberOfWorkers)
	}
	return nil
}
