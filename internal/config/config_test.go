package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldforge/shared/utils"
)

func withSecretsDir(t *testing.T) {
	t.Helper()
	prev := utils.SecretsDir
	utils.SecretsDir = t.TempDir()
	t.Cleanup(func() { utils.SecretsDir = prev })
}

func TestLoadConfigDefaults(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("AI_CLIENT_TYPE", "ollama")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.WorldStore)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 120*time.Second, cfg.AITimeout)
	assert.Equal(t, time.Second, cfg.AIBaseRetryDelay)
	assert.Equal(t, 3, cfg.NameMaxAttempts)
	assert.False(t, cfg.UseRedisLatch)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	withSecretsDir(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AI_CLIENT_TYPE=ollama\nWORLD_STORE=sqlite\nNAME_MAX_ATTEMPTS=5\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("AI_CLIENT_TYPE")
		os.Unsetenv("WORLD_STORE")
		os.Unsetenv("NAME_MAX_ATTEMPTS")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.WorldStore)
	assert.Equal(t, 5, cfg.NameMaxAttempts)
}

func TestLoadConfigRequiresKeyForOpenAI(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("AI_CLIENT_TYPE", "openai")
	t.Setenv("AI_API_KEY", "")

	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown store", func(c *Config) { c.WorldStore = "mongo" }, true},
		{"unknown client", func(c *Config) { c.AIClientType = "bard" }, true},
		{"client is case insensitive", func(c *Config) { c.AIClientType = "Ollama" }, false},
		{"zero attempts", func(c *Config) { c.NameMaxAttempts = 0 }, true},
		{"redis latch outlives the model call", func(c *Config) {
			c.UseRedisLatch, c.AITimeout, c.LatchTTL = true, 120*time.Second, 5*time.Minute
		}, false},
		{"redis latch shorter than the model call", func(c *Config) {
			c.UseRedisLatch, c.AITimeout, c.LatchTTL = true, 120*time.Second, 60*time.Second
		}, true},
		{"redis latch without room to save", func(c *Config) {
			c.UseRedisLatch, c.AITimeout, c.LatchTTL = true, 120*time.Second, 130*time.Second
		}, true},
		{"short ttl ignored for in-process latch", func(c *Config) {
			c.AITimeout, c.LatchTTL = 120*time.Second, 10*time.Second
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{WorldStore: StoreMemory, AIClientType: "openai", NameMaxAttempts: 3}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetAllowedOrigins(t *testing.T) {
	c := &Config{CORSAllowedOrigins: "http://a.test, http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.GetAllowedOrigins())

	c.CORSAllowedOrigins = ""
	assert.Nil(t, c.GetAllowedOrigins())
}

func TestMaskedDSNHidesPassword(t *testing.T) {
	c := &Config{DBUser: "u", DBPassword: "secret", DBHost: "h", DBPort: "5432", DBName: "db", DBSSLMode: "disable"}
	masked := c.getMaskedDSN()
	assert.NotContains(t, masked, "secret")
	assert.Contains(t, masked, "********@h:5432/db")
}
