// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_ReadsAndTrims(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, AnthropicAPIKey), []byte("  sk-test-123\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("   \n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("nope"), 0o600))

	got, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", got[AnthropicAPIKey])
	assert.NotContains(t, got, "empty")
	assert.NotContains(t, got, ".hidden")
}

func TestLoad_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet_FallsBackToEnvironment(t *testing.T) {
	t.Setenv("TRIAL_AGENT_TEST_KEY", "env-value")

	assert.Equal(t, "file-value", Get(map[string]string{"k": "file-value"}, "k", "TRIAL_AGENT_TEST_KEY"))
	assert.Equal(t, "env-value", Get(map[string]string{}, "k", "TRIAL_AGENT_TEST_KEY"))
	assert.Equal(t, "", Get(nil, "k", "TRIAL_AGENT_NO_SUCH_VAR"))
}
