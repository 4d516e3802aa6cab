package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbEnvKeys = []string{"MYSQL_HOST", "MYSQL_PORT", "MYSQL_USER", "MYSQL_PWD", "MYSQL_DB"}

func setDBEnv(t *testing.T) {
	t.Setenv("MYSQL_HOST", "db.local")
	t.Setenv("MYSQL_PORT", "3306")
	t.Setenv("MYSQL_USER", "bridge")
	t.Setenv("MYSQL_PWD", "secret")
	t.Setenv("MYSQL_DB", "premiumdb")
}

func TestLoadDBConfigs(t *testing.T) {
	setDBEnv(t)

	configs, err := loadDBConfigs()
	require.NoError(t, err)
	assert.Equal(t, "db.local", configs.Host)
	assert.Equal(t, "3306", configs.Port)
	assert.Equal(t, "bridge", configs.Username)
	assert.Equal(t, "secret", configs.Password)
	assert.Equal(t, "premiumdb", configs.Database)
}

func TestLoadDBConfigs_MissingParameter(t *testing.T) {
	for _, key := range dbEnvKeys {
		t.Run(key, func(t *testing.T) {
			setDBEnv(t)
			t.Setenv(key, "")

			_, err := loadDBConfigs()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Run("Returns env var when set", func(t *testing.T) {
		t.Setenv("TEST_BRIDGE_ENV_VAR", "test-value")

		result := getEnvOrDefault("TEST_BRIDGE_ENV_VAR", "default")
		assert.Equal(t, "test-value", result)
	})

	t.Run("Returns default when not set", func(t *testing.T) {
		os.Unsetenv("TEST_BRIDGE_ENV_VAR_NONEXISTENT")

		result := getEnvOrDefault("TEST_BRIDGE_ENV_VAR_NONEXISTENT", "default-value")
		assert.Equal(t, "default-value", result)
	})

	t.Run("Returns default when empty string", func(t *testing.T) {
		t.Setenv("TEST_BRIDGE_ENV_VAR_EMPTY", "")

		result := getEnvOrDefault("TEST_BRIDGE_ENV_VAR_EMPTY", "default")
		assert.Equal(t, "default", result)
	})
}

func TestParseIntOrDefault(t *testing.T) {
	t.Run("Returns default when not set", func(t *testing.T) {
		os.Unsetenv("TEST_BRIDGE_SCAN_LIMIT")

		value, err := parseIntOrDefault("TEST_BRIDGE_SCAN_LIMIT", 0)
		require.NoError(t, err)
		assert.Equal(t, 0, value)
	})

	t.Run("Parses value when set", func(t *testing.T) {
		t.Setenv("TEST_BRIDGE_SCAN_LIMIT", "50")

		value, err := parseIntOrDefault("TEST_BRIDGE_SCAN_LIMIT", 0)
		require.NoError(t, err)
		assert.Equal(t, 50, value)
	})

	t.Run("Errors on garbage", func(t *testing.T) {
		t.Setenv("TEST_BRIDGE_SCAN_LIMIT", "not-a-number")

		_, err := parseIntOrDefault("TEST_BRIDGE_SCAN_LIMIT", 0)
		assert.Error(t, err)
	})
}

func TestDefaultLogSettings(t *testing.T) {
	assert.Equal(t, "warn", getDefaultLogLevel("production"))
	assert.Equal(t, "debug", getDefaultLogLevel("local"))
	assert.Equal(t, "json", getDefaultLogFormat("production"))
	assert.Equal(t, "text", getDefaultLogFormat("local"))
}
