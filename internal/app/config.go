package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	// VaultPath is the root of the document vault to compute over.
	VaultPath string

	// RecallPath, when set, computes the recall widgets for that document
	// instead of the ground dashboard.
	RecallPath string

	// Force bypasses the cache and refreshes stored entries.
	Force bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.VaultPath == "" {
		return nil, errors.New("VaultPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
