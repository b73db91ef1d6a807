package datadog

import (
	"fmt"
	"os"
	"strings"

	"buildreport/internal/config"
)

// Credentials supplies the API key at call time. Implementations must not
// cache the secret beyond one call and must never log it.
type Credentials interface {
	APIKey() (string, error)
}

// StaticKey is a fixed API key taken from configuration.
type StaticKey string

// APIKey returns the configured key.
// Params: none.
// Returns: key string, never an error.
func (k StaticKey) APIKey() (string, error) {
	return string(k), nil
}

// KeyFile reads the API key from a file on every call, so key rotation on
// disk takes effect without a restart.
type KeyFile string

// APIKey reads and trims the key file content.
// Params: none.
// Returns: key string or read error.
func (f KeyFile) APIKey() (string, error) {
	raw, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("read api key file: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", fmt.Errorf("api key file %q is empty", string(f))
	}
	return key, nil
}

// CredentialsFromConfig selects the configured credential source.
// A key file takes precedence over an inline key.
// Params: cfg validated API section.
// Returns: credential source.
func CredentialsFromConfig(cfg config.APIConfig) Credentials {
	if strings.TrimSpace(cfg.KeyFile) != "" {
		return KeyFile(cfg.KeyFile)
	}
	return StaticKey(cfg.Key)
}
