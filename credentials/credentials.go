// Package credentials loads API keys and the encryption secret from
// standard locations, keeping them out of the main config file.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInsecurePermissions is returned when the credentials file is readable
// by anyone but the owner.
var ErrInsecurePermissions = fmt.Errorf("credentials file has insecure permissions")

// Credentials holds secrets loaded from credentials.toml.
type Credentials struct {
	// LLM is the generic completion API key, used when no
	// provider-specific section matches.
	LLM *ProviderCreds `toml:"llm"`

	// Encryption seals memory content at rest.
	Encryption *EncryptionCreds `toml:"encryption"`

	providers map[string]*ProviderCreds
}

// ProviderCreds holds the key for a single completion provider.
type ProviderCreds struct {
	APIKey string `toml:"api_key"`
}

// EncryptionCreds holds the content-encryption secret.
type EncryptionCreds struct {
	Key string `toml:"key"`
}

// StandardPaths returns the credential file locations in priority order.
func StandardPaths() []string {
	paths := []string{"credentials.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hatira", "credentials.toml"))
		paths = append(paths, filepath.Join(home, ".hatira", "credentials.toml"))
	}

	return paths
}

// Load loads credentials from the first available standard location.
// A missing file is not an error; the caller falls back to the
// environment.
func Load() (*Credentials, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			creds, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return creds, path, nil
		}
	}
	return nil, "", nil
}

// LoadFile loads credentials from a specific file. Returns
// ErrInsecurePermissions unless the file is owner read-only.
func LoadFile(path string) (*Credentials, error) {
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		mode := info.Mode().Perm()
		if mode != 0400 {
			return nil, fmt.Errorf("%w: %s has mode %04o (must be 0400)",
				ErrInsecurePermissions, path, mode)
		}
	}

	var rawData map[string]interface{}
	if _, err := toml.DecodeFile(path, &rawData); err != nil {
		return nil, err
	}

	creds := &Credentials{
		providers: make(map[string]*ProviderCreds),
	}

	for key, value := range rawData {
		section, ok := value.(map[string]interface{})
		if !ok {
			continue
		}

		if key == "encryption" {
			if secret, _ := section["key"].(string); secret != "" {
				creds.Encryption = &EncryptionCreds{Key: secret}
			}
			continue
		}

		apiKey, _ := section["api_key"].(string)
		if apiKey == "" {
			continue
		}
		provCreds := &ProviderCreds{APIKey: apiKey}
		if key == "llm" {
			creds.LLM = provCreds
		} else {
			creds.providers[key] = provCreds
		}
	}

	return creds, nil
}

// GetAPIKey returns the API key for a provider.
// Priority: [provider] section > [llm] section > environment variable.
func (c *Credentials) GetAPIKey(provider string) string {
	if c != nil {
		if creds, ok := c.providers[provider]; ok && creds.APIKey != "" {
			return creds.APIKey
		}
		if c.LLM != nil && c.LLM.APIKey != "" {
			return c.LLM.APIKey
		}
	}

	return os.Getenv(envVarForProvider(provider))
}

// GetEncryptionKey returns the content-encryption secret, or empty when
// the file carries none.
func (c *Credentials) GetEncryptionKey() string {
	if c != nil && c.Encryption != nil {
		return c.Encryption.Key
	}
	return ""
}

// envVarForProvider returns the environment variable name for a provider.
func envVarForProvider(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
	}
}
