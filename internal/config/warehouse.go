package config

import (
	"fmt"
	"time"

	"paysight/internal/warehouse"
	"paysight/pkg/errors"
	"paysight/pkg/models"
)

// WarehouseConfig converts the file form of the warehouse section into the
// connection settings, resolving the password on the way
func WarehouseConfig(config *models.Config) (warehouse.Config, error) {
	w := config.Warehouse

	driver, err := warehouse.ParseDriver(w.Driver)
	if err != nil {
		return warehouse.Config{}, err
	}

	timeout, err := ParseDuration("warehouse.timeout", w.Timeout)
	if err != nil {
		return warehouse.Config{}, err
	}
	lifetime, err := ParseDuration("warehouse.conn_max_lifetime", w.ConnMaxLifetime)
	if err != nil {
		return warehouse.Config{}, err
	}

	password, err := ResolvePassword(w.Password)
	if err != nil {
		return warehouse.Config{}, err
	}

	return warehouse.Config{
		Driver:          driver,
		Host:            w.Host,
		Port:            w.Port,
		Username:        w.Username,
		Password:        password,
		Database:        w.Database,
		Schema:          w.Schema,
		Account:         w.Account,
		Warehouse:       w.Warehouse,
		Role:            w.Role,
		Params:          w.Params,
		Timeout:         timeout,
		MaxOpenConns:    w.MaxOpenConns,
		MaxIdleConns:    w.MaxIdleConns,
		ConnMaxLifetime: lifetime,
	}, nil
}

// ParseDuration parses an optional duration field. Empty means zero.
func ParseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.ConfigError(fmt.Sprintf("invalid duration %q", value), field)
	}
	if d < 0 {
		return 0, errors.ConfigError(fmt.Sprintf("duration %q is negative", value), field)
	}
	return d, nil
}
