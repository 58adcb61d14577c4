package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysight/internal/config"
)

func TestEncryptConfig(t *testing.T) {
	t.Setenv(config.EnvEncryptionKey, "test-passphrase")
	original := strings.Replace(testConfig, "database: phonepe", "database: phonepe\n  password: plain-secret", 1)
	path := writeConfig(t, original)

	output, err := execute(t, "encrypt-config")
	require.NoError(t, err)
	assert.Contains(t, output, "Created backup: "+path+".backup")

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	require.True(t, config.IsEncrypted(cfg.Warehouse.Password))
	password, err := config.DecryptPassword(cfg.Warehouse.Password)
	require.NoError(t, err)
	assert.Equal(t, "plain-secret", password)

	// a second run leaves the file alone
	output, err = execute(t, "encrypt-config")
	require.NoError(t, err)
	assert.Contains(t, output, "already encrypted")
}

func TestEncryptConfigSkipsKeyringReference(t *testing.T) {
	path := writeConfig(t, strings.Replace(testConfig, "database: phonepe", "database: phonepe\n  password: keyring:analyst@localhost", 1))

	output, err := execute(t, "encrypt-config", "--backup=false")
	require.NoError(t, err)
	assert.Contains(t, output, "OS keyring")

	_, statErr := os.Stat(path + ".backup")
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncryptConfigMissingFile(t *testing.T) {
	freshConfigPath(t)

	_, err := execute(t, "encrypt-config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
