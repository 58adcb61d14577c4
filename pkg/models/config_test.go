package models

import (
	"testing"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfigMarshalUnmarshal(t *testing.T) {
	config := Config{
		Warehouse: Warehouse{
			Driver:       "mysql",
			Host:         "db.internal",
			Port:         3306,
			Username:     "analyst",
			Password:     "ENC[abc]",
			Database:     "payments",
			Timeout:      "30s",
			MaxOpenConns: 8,
			Params:       map[string]string{"tls": "skip-verify"},
		},
		Cache: CacheConfig{
			Enabled:    true,
			Token:      "auto",
			MaxEntries: 64,
		},
		Log:    LogConfig{Level: "debug"},
		Output: OutputConfig{Format: "json"},
	}

	data, err := yaml.Marshal(&config)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	var unmarshaledConfig Config
	err = yaml.Unmarshal(data, &unmarshaledConfig)
	assert.NoError(t, err)

	assert.Equal(t, config, unmarshaledConfig)
}

func TestConfigYAMLKeys(t *testing.T) {
	raw := `
warehouse:
  driver: snowflake
  account: xy12345.us-east-1
  warehouse: ANALYTICS_WH
  role: ANALYST
  max_idle_conns: 2
  conn_max_lifetime: 5m
cache:
  enabled: true
  ttl: 10m
`
	var config Config
	err := yaml.Unmarshal([]byte(raw), &config)
	assert.NoError(t, err)

	assert.Equal(t, "snowflake", config.Warehouse.Driver)
	assert.Equal(t, "xy12345.us-east-1", config.Warehouse.Account)
	assert.Equal(t, "ANALYTICS_WH", config.Warehouse.Warehouse)
	assert.Equal(t, 2, config.Warehouse.MaxIdleConns)
	assert.Equal(t, "5m", config.Warehouse.ConnMaxLifetime)
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, "10m", config.Cache.TTL)
}

func TestEmptyConfig(t *testing.T) {
	config := Config{}

	data, err := yaml.Marshal(&config)
	assert.NoError(t, err)

	var unmarshaledConfig Config
	err = yaml.Unmarshal(data, &unmarshaledConfig)
	assert.NoError(t, err)
	assert.Empty(t, unmarshaledConfig.Warehouse.Driver)
	assert.False(t, unmarshaledConfig.Cache.Enabled)
}
