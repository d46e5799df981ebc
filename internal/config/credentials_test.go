package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCredFile(t *testing.T, c string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), credFileName)
	require.NoError(t, os.WriteFile(path, []byte(c), 0o600))
	return path
}

func TestLoadCredentialsFromFile(t *testing.T) {
	t.Setenv("XMUM_USERNAME", "")
	t.Setenv("XMUM_PASSWORD", "")
	t.Setenv("XMUM_GEMINI_KEY", "")

	path := writeCredFile(t, `{"username":"MCS1234","password":"secret","gemini_key":"gk"}`)
	c := loadCredentials(path)
	require.Equal(t, "MCS1234", c.Username)
	require.Equal(t, "secret", c.Password)
	require.Equal(t, "gk", c.GeminiKey)
	require.Empty(t, c.Missing())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("XMUM_USERNAME", "ENV1234")
	t.Setenv("XMUM_PASSWORD", "")
	t.Setenv("XMUM_GEMINI_KEY", "env-key")

	path := writeCredFile(t, `{"username":"MCS1234","password":"secret","gemini_key":"gk"}`)
	c := loadCredentials(path)
	require.Equal(t, "ENV1234", c.Username)
	require.Equal(t, "secret", c.Password) // file value survives when env is empty
	require.Equal(t, "env-key", c.GeminiKey)
}

func TestCorruptFileBehavesLikeAbsent(t *testing.T) {
	t.Setenv("XMUM_USERNAME", "")
	t.Setenv("XMUM_PASSWORD", "")
	t.Setenv("XMUM_GEMINI_KEY", "")

	path := writeCredFile(t, `{not json`)
	c := loadCredentials(path)
	require.ElementsMatch(t, []string{"XMUM_USERNAME", "XMUM_PASSWORD"}, c.Missing())
}

func TestMissingDoesNotRequireGeminiKey(t *testing.T) {
	c := Credentials{Username: "u", Password: "p"}
	require.Empty(t, c.Missing())
}

func TestSaveCredentialsMode(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := SaveCredentials(Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
