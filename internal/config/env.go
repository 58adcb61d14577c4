package config

import (
	"github.com/spf13/viper"

	"paysight/pkg/models"
)

// envBindings maps config keys to the environment variables that may
// override them. PAYSIGHT_* wins over the generic DB_* names.
var envBindings = map[string][]string{
	"warehouse.driver":    {"PAYSIGHT_WAREHOUSE_DRIVER", "DB_DRIVER"},
	"warehouse.host":      {"PAYSIGHT_WAREHOUSE_HOST", "DB_HOST"},
	"warehouse.port":      {"PAYSIGHT_WAREHOUSE_PORT", "DB_PORT"},
	"warehouse.username":  {"PAYSIGHT_WAREHOUSE_USERNAME", "DB_USER"},
	"warehouse.password":  {"PAYSIGHT_WAREHOUSE_PASSWORD", "DB_PASSWORD"},
	"warehouse.database":  {"PAYSIGHT_WAREHOUSE_DATABASE", "DB_NAME"},
	"warehouse.schema":    {"PAYSIGHT_WAREHOUSE_SCHEMA", "DB_SCHEMA"},
	"warehouse.account":   {"PAYSIGHT_WAREHOUSE_ACCOUNT"},
	"warehouse.warehouse": {"PAYSIGHT_WAREHOUSE_WAREHOUSE"},
	"warehouse.role":      {"PAYSIGHT_WAREHOUSE_ROLE"},
	"warehouse.timeout":   {"PAYSIGHT_WAREHOUSE_TIMEOUT"},
	"cache.enabled":       {"PAYSIGHT_CACHE_ENABLED"},
	"cache.token":         {"PAYSIGHT_CACHE_TOKEN"},
	"cache.ttl":           {"PAYSIGHT_CACHE_TTL"},
	"log.level":           {"PAYSIGHT_LOG_LEVEL"},
	"output.format":       {"PAYSIGHT_OUTPUT_FORMAT"},
}

// BindEnv registers the environment overrides on v
func BindEnv(v *viper.Viper) error {
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

// ApplyOverrides copies every key set in v (environment or changed flags)
// onto config
func ApplyOverrides(config *models.Config, v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	w := &config.Warehouse
	str("warehouse.driver", &w.Driver)
	str("warehouse.host", &w.Host)
	str("warehouse.username", &w.Username)
	str("warehouse.password", &w.Password)
	str("warehouse.database", &w.Database)
	str("warehouse.schema", &w.Schema)
	str("warehouse.account", &w.Account)
	str("warehouse.warehouse", &w.Warehouse)
	str("warehouse.role", &w.Role)
	str("warehouse.timeout", &w.Timeout)
	if v.IsSet("warehouse.port") {
		w.Port = v.GetInt("warehouse.port")
	}

	if v.IsSet("cache.enabled") {
		config.Cache.Enabled = v.GetBool("cache.enabled")
	}
	str("cache.token", &config.Cache.Token)
	str("cache.ttl", &config.Cache.TTL)
	str("log.level", &config.Log.Level)
	str("output.format", &config.Output.Format)
}
