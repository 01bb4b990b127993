package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HBNB_TYPE_STORAGE", "")
	t.Setenv("HBNB_API_PORT", "")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageFile, c.Storage)
	assert.Equal(t, "file.json", c.FilePath)
	assert.Equal(t, "0.0.0.0:5000", c.Addr())
	assert.Equal(t, 60, c.AccessTTLMin)
	assert.False(t, c.AuthEnabled())
	assert.Equal(t, []string{"*"}, c.Origins())
	assert.Equal(t, "logs/changes.log", c.AuditLog)
}

func TestLoadAuditLog(t *testing.T) {
	t.Setenv("AUDIT_LOG", "/var/log/hbnb/changes.log")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/log/hbnb/changes.log", c.AuditLog)
}

func TestLoadStorageAliases(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		storage string
		wantErr string
	}{
		{
			name:    "db means mysql",
			env:     map[string]string{"HBNB_TYPE_STORAGE": "db", "HBNB_MYSQL_USER": "hbnb_dev", "HBNB_MYSQL_DB": "hbnb_dev_db"},
			storage: StorageMySQL,
		},
		{
			name:    "mysql without credentials",
			env:     map[string]string{"HBNB_TYPE_STORAGE": "mysql"},
			wantErr: "HBNB_MYSQL_USER",
		},
		{
			name:    "postgres needs a url",
			env:     map[string]string{"HBNB_TYPE_STORAGE": "postgresql"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown engine",
			env:     map[string]string{"HBNB_TYPE_STORAGE": "sqlite"},
			wantErr: "unknown HBNB_TYPE_STORAGE",
		},
		{
			name:    "unknown events driver",
			env:     map[string]string{"HBNB_TYPE_STORAGE": "memory", "EVENTS_DRIVER": "nats"},
			wantErr: "unknown EVENTS_DRIVER",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			c, err := Load()
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.storage, c.Storage)
			assert.True(t, c.IsSQL())
		})
	}
}

func TestBrokersSplit(t *testing.T) {
	c := Config{KafkaBrokers: "k1:9092, k2:9092,,"}
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Brokers())
}

func TestLoadRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "off")

	c := LoadCacheConfig()
	assert.False(t, c.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
}
