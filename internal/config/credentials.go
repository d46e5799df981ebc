package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials are the three opaque strings the run needs: campus id,
// password, and the recognition-service API key. Never logged, never
// mutated after load.
type Credentials struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	GeminiKey string `json:"gemini_key"`
}

const credFileName = ".xmu_booking.json"

// CredentialsPath returns the on-disk credential file location
// (~/.xmu_booking.json).
func CredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, credFileName), nil
}

// LoadCredentials assembles credentials with env vars taking precedence
// over the saved file. A missing or unreadable file is not an error; the
// caller decides whether what was found is enough.
func LoadCredentials() (Credentials, error) {
	path, err := CredentialsPath()
	if err != nil {
		return Credentials{}, err
	}
	return loadCredentials(path), nil
}

func loadCredentials(path string) Credentials {
	var c Credentials
	if b, err := os.ReadFile(path); err == nil {
		// Best effort: a corrupt file behaves like an absent one.
		_ = json.Unmarshal(b, &c)
	}
	if v := strings.TrimSpace(os.Getenv("XMUM_USERNAME")); v != "" {
		c.Username = v
	}
	if v := strings.TrimSpace(os.Getenv("XMUM_PASSWORD")); v != "" {
		c.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("XMUM_GEMINI_KEY")); v != "" {
		c.GeminiKey = v
	}
	return c
}

// Missing lists the required env var names that have no value from any
// source. The Gemini key is deliberately not required here: without it the
// captcha solver fails per attempt and login exhausts its retries.
func (c Credentials) Missing() []string {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "XMUM_USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "XMUM_PASSWORD")
	}
	return missing
}

// SaveCredentials writes the credential file, readable only by the owner.
func SaveCredentials(c Credentials) (string, error) {
	path, err := CredentialsPath()
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
