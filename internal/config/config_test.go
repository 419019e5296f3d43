package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Every shell-backed stage has a command template out of the box.
	for _, name := range []string{"deployContracts", "register", "deployProof", "deployRefiner", "testAll"} {
		assert.Contains(t, cfg.Operations, name)
		assert.NotEmpty(t, cfg.Operations[name].Command)
	}

	assert.Equal(t, ".", cfg.ProjectDir)
	assert.Equal(t, 15*time.Minute, cfg.OperationTimeout)
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "daoforge.yaml")
	content := `
owner_address: "0x1234"
operation_timeout: 30m
credentials:
  pinata_api_key: "abc"
operations:
  register:
    command: "./my-register.sh {{.contractAddresses.proxy}}"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := NewLoader().LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "0x1234", cfg.OwnerAddress)
	assert.Equal(t, 30*time.Minute, cfg.OperationTimeout)
	assert.Equal(t, "abc", cfg.Credentials["pinata_api_key"])

	// Overridden command replaces the default; untouched stages keep theirs.
	assert.Equal(t, "./my-register.sh {{.contractAddresses.proxy}}", cfg.Operations["register"].Command)
	assert.NotEmpty(t, cfg.Operations["deployContracts"].Command)
}

func TestLoader_LoadFromFile_Missing(t *testing.T) {
	_, err := NewLoader().LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoader_Load_NoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewLoader().Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectDir)
	assert.NotEmpty(t, cfg.Operations)
}

func TestLoader_Load_EnvOverridesWithoutConfigFile(t *testing.T) {
	t.Setenv("DAOFORGE_OWNER_ADDRESS", "0x9999")
	t.Setenv("DAOFORGE_OPERATION_TIMEOUT", "45m")
	t.Setenv("DAOFORGE_OPERATIONS_REGISTER_COMMAND", "./env-register.sh")

	cfg, err := NewLoader().Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0x9999", cfg.OwnerAddress)
	assert.Equal(t, 45*time.Minute, cfg.OperationTimeout)
	assert.Equal(t, "./env-register.sh", cfg.Operations["register"].Command)

	// Keys without an env override keep their defaults.
	assert.NotEmpty(t, cfg.Operations["deployContracts"].Command)
}

func TestLoader_Load_EnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "owner_address: \"0xfile\"\noperation_timeout: 30m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daoforge.yaml"), []byte(content), 0o644))
	t.Setenv("DAOFORGE_OWNER_ADDRESS", "0x9999")

	cfg, err := NewLoader().Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "0x9999", cfg.OwnerAddress, "environment wins over the config file")
	assert.Equal(t, 30*time.Minute, cfg.OperationTimeout, "file values without env overrides still apply")
}

func TestLoader_Load_DiscoversProjectConfig(t *testing.T) {
	dir := t.TempDir()
	content := "owner_address: \"0xabcd\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daoforge.yaml"), []byte(content), 0o644))

	cfg, err := NewLoader().Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "0xabcd", cfg.OwnerAddress)
}
