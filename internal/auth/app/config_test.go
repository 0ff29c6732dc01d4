package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	c := defaults()

	require.Equal(t, "cinder-auth", c.Issuer)
	require.Equal(t, 15*time.Minute, c.AccessTTL)
	require.Equal(t, 7*24*time.Hour, c.RefreshTTL)
	require.Equal(t, 5*time.Minute, c.TemporaryTTL)
	require.Equal(t, "memory", c.BlacklistBackend)
	require.Equal(t, "ephemeral", c.KeyStorageMode)
	require.Equal(t, "json", c.LogFormat)
	require.Equal(t, 8080, c.Port)
	require.False(t, c.RotateRevokesOld)

	require.NoError(t, c.Validate())
}

func TestConfigLoadEnv(t *testing.T) {
	c := defaults()
	getenv := func(key string) string {
		switch key {
		case "AUTH_ISSUER":
			return "my-issuer"
		case "AUTH_AUDIENCE":
			return "api, admin"
		case "AUTH_ACCESS_SECRET":
			return "env-access-secret-0123456789"
		case "AUTH_ACCESS_TTL":
			return "30m"
		case "AUTH_BLACKLIST_BACKEND":
			return "redis"
		case "REDIS_DB":
			return "3"
		case "ROTATE_REVOKES_OLD":
			return "true"
		case "PORT":
			return "9090"
		default:
			return ""
		}
	}

	c.loadEnv(getenv)

	require.Equal(t, "my-issuer", c.Issuer)
	require.Equal(t, []string{"api", "admin"}, c.Audience)
	require.Equal(t, "env-access-secret-0123456789", c.AccessSecret)
	require.Equal(t, 30*time.Minute, c.AccessTTL)
	require.Equal(t, "redis", c.BlacklistBackend)
	require.Equal(t, 3, c.RedisDB)
	require.True(t, c.RotateRevokesOld)
	require.Equal(t, 9090, c.Port)

	// Untouched values keep their defaults.
	require.Equal(t, 7*24*time.Hour, c.RefreshTTL)
	require.Equal(t, "memory", defaults().BlacklistBackend)
}

func TestConfigLoadEnvIgnoresGarbage(t *testing.T) {
	c := defaults()
	c.loadEnv(func(key string) string {
		switch key {
		case "PORT":
			return "not-a-number"
		case "AUTH_ACCESS_TTL":
			return "soon"
		default:
			return ""
		}
	})

	require.Equal(t, 8080, c.Port)
	require.Equal(t, 15*time.Minute, c.AccessTTL)
}

func TestConfigParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
	}{
		{
			name:  "short",
			flags: []string{"-b", "sqlite", "-d", "/tmp/test.db", "-l", "debug", "-p", "9000"},
		},
		{
			name: "long",
			flags: []string{
				"--blacklist", "sqlite",
				"--database", "/tmp/test.db",
				"--log-level", "debug",
				"--port", "9000",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			require.NoError(t, c.parseFlags(tt.flags))

			require.Equal(t, "sqlite", c.BlacklistBackend)
			require.Equal(t, "/tmp/test.db", c.DatabaseFile)
			require.Equal(t, "debug", c.LogLevel)
			require.Equal(t, 9000, c.Port)
		})
	}

	t.Run("unknown flag", func(t *testing.T) {
		c := defaults()
		require.Error(t, c.parseFlags([]string{"--bogus"}))
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{
			name:   "weak access secret",
			mutate: func(c *Config) { c.AccessSecret = "short" },
		},
		{
			name:   "weak refresh secret",
			mutate: func(c *Config) { c.RefreshSecret = "short" },
		},
		{
			name:   "long enough secret",
			mutate: func(c *Config) { c.AccessSecret = "exactly-16-chars" },
			ok:     true,
		},
		{
			name:   "unknown blacklist backend",
			mutate: func(c *Config) { c.BlacklistBackend = "etcd" },
		},
		{
			name:   "unknown key storage mode",
			mutate: func(c *Config) { c.KeyStorageMode = "vault" },
		},
		{
			name:   "persistent mode requires master key path",
			mutate: func(c *Config) { c.KeyStorageMode = "persistent" },
		},
		{
			name: "persistent mode with master key path",
			mutate: func(c *Config) {
				c.KeyStorageMode = "persistent"
				c.MasterKeyPath = "/etc/auth/master.key"
			},
			ok: true,
		},
		{
			name:   "redis backend requires address",
			mutate: func(c *Config) { c.BlacklistBackend = "redis"; c.RedisAddr = "" },
		},
		{
			name:   "missing issuer",
			mutate: func(c *Config) { c.Issuer = "" },
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Port = 70000 },
		},
		{
			name:   "non-positive ttl",
			mutate: func(c *Config) { c.AccessTTL = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
