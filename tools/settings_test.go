package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
enable_user_approval: true
enabled_categories:
  - utility
  - memory
enabled_tools:
  - calculator
mcp_servers:
  files:
    command: mcp-files
    args: ["--root", "/data"]
    require_approval: true
    risk_level: high
`), 0644))

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.True(t, s.EnableUserApproval)
	assert.Equal(t, []string{"utility", "memory"}, s.EnabledCategories)
	assert.Equal(t, []string{"calculator"}, s.EnabledTools)

	server, ok := s.MCPServers["files"]
	require.True(t, ok)
	assert.Equal(t, "mcp-files", server.Command)
	assert.Equal(t, []string{"--root", "/data"}, server.Args)
	assert.True(t, server.RequireApproval)
	assert.Equal(t, "high", server.RiskLevel)
}

func TestLoadSettingsMissingFileDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, s.EnableUserApproval)
	assert.Empty(t, s.EnabledCategories)
	assert.Empty(t, s.MCPServers)
}

func TestLoadSettingsRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enable_user_approval: [not a bool"), 0644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestSettingsOptions(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TOOLGATE_TEST_KEY=secret\n"), 0644))

	s := &Settings{
		EnableUserApproval: true,
		EnabledCategories:  []string{"utility"},
		EnvFile:            envPath,
	}

	opts, err := s.Options(nil, nil)
	require.NoError(t, err)
	assert.True(t, opts.EnableApproval)
	assert.Equal(t, []string{"utility"}, opts.EnabledCategories)
	assert.Nil(t, opts.MCP)
	assert.Equal(t, "secret", os.Getenv("TOOLGATE_TEST_KEY"))
	os.Unsetenv("TOOLGATE_TEST_KEY")
}

func TestSettingsOptionsMissingEnvFile(t *testing.T) {
	s := &Settings{EnvFile: filepath.Join(t.TempDir(), "missing.env")}
	_, err := s.Options(nil, nil)
	assert.Error(t, err)
}
