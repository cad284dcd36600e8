package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInsecurePermissions is returned when the credentials file is readable
// by group or others.
var ErrInsecurePermissions = fmt.Errorf("credentials file has insecure permissions")

// Credentials holds per-provider API keys loaded from credentials.toml.
// Keys never appear in engine.toml or the event log.
type Credentials struct {
	providers map[string]string
}

// CredentialPaths returns the credential file locations in priority order.
func CredentialPaths() []string {
	paths := []string{"credentials.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "engine-lever", "credentials.toml"))
	}
	return paths
}

// LoadCredentials reads the first credentials file found. A missing file is
// not an error; environment variables remain the fallback.
func LoadCredentials() (*Credentials, string, error) {
	for _, path := range CredentialPaths() {
		if _, err := os.Stat(path); err == nil {
			creds, err := LoadCredentialsFile(path)
			return creds, path, err
		}
	}
	return &Credentials{providers: map[string]string{}}, "", nil
}

// LoadCredentialsFile reads one credentials file. The file must be owner
// read-only (0400) on Unix.
func LoadCredentialsFile(path string) (*Credentials, error) {
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if mode := info.Mode().Perm(); mode != 0400 {
			return nil, fmt.Errorf("%w: %s has mode %04o (must be 0400)",
				ErrInsecurePermissions, path, mode)
		}
	}

	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, err
	}

	creds := &Credentials{providers: make(map[string]string)}
	for name, value := range raw {
		section, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		if key, _ := section["api_key"].(string); key != "" {
			creds.providers[strings.ToLower(name)] = key
		}
	}
	return creds, nil
}

// APIKey returns the key for a provider, falling back to the provider's
// conventional environment variable.
func (c *Credentials) APIKey(provider string) string {
	provider = strings.ToLower(provider)
	if c != nil {
		if key, ok := c.providers[provider]; ok {
			return key
		}
	}
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}
