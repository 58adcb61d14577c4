package warehouse

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/snowflakedb/gosnowflake"
)

// Open builds the DSN for config and opens a pool with the matching
// driver. No connection is made until the pool is used.
func Open(config Config) (*sql.DB, error) {
	switch config.Driver {
	case DriverPostgres:
		connConfig, err := postgresConfig(config)
		if err != nil {
			return nil, err
		}
		return stdlib.OpenDB(*connConfig), nil
	case DriverMySQL, DriverSnowflake:
		dsn, err := BuildDSN(config)
		if err != nil {
			return nil, err
		}
		return sql.Open(string(config.Driver), dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", config.Driver)
	}
}

// BuildDSN renders the driver-specific connection string
func BuildDSN(config Config) (string, error) {
	switch config.Driver {
	case DriverMySQL:
		return mysqlDSN(config), nil
	case DriverPostgres:
		return postgresDSN(config), nil
	case DriverSnowflake:
		return snowflakeDSN(config)
	default:
		return "", fmt.Errorf("unsupported driver %q", config.Driver)
	}
}

func mysqlDSN(config Config) string {
	cfg := mysql.NewConfig()
	cfg.User = config.Username
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(config.Host, strconv.Itoa(portOrDefault(config)))
	cfg.DBName = config.Database
	cfg.Timeout = dialTimeout(config.Timeout)
	if len(config.Params) > 0 {
		cfg.Params = make(map[string]string, len(config.Params))
		for k, v := range config.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

func postgresDSN(config Config) string {
	query := url.Values{}
	for k, v := range config.Params {
		query.Set(k, v)
	}
	if config.Schema != "" && query.Get("search_path") == "" {
		query.Set("search_path", config.Schema)
	}
	if query.Get("connect_timeout") == "" {
		query.Set("connect_timeout", strconv.Itoa(int(dialTimeout(config.Timeout)/time.Second)))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.Username, config.Password),
		Host:     net.JoinHostPort(config.Host, strconv.Itoa(portOrDefault(config))),
		Path:     "/" + config.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

func postgresConfig(config Config) (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig(postgresDSN(config))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres configuration: %w", err)
	}
	return connConfig, nil
}

func snowflakeDSN(config Config) (string, error) {
	cfg := &gosnowflake.Config{
		Account:      config.Account,
		User:         config.Username,
		Password:     config.Password,
		Database:     config.Database,
		Schema:       config.Schema,
		Warehouse:    config.Warehouse,
		Role:         config.Role,
		LoginTimeout: dialTimeout(config.Timeout),
	}
	if len(config.Params) > 0 {
		cfg.Params = make(map[string]*string, len(config.Params))
		for k, v := range config.Params {
			v := v
			cfg.Params[k] = &v
		}
	}
	return gosnowflake.DSN(cfg)
}

func portOrDefault(config Config) int {
	if config.Port == 0 {
		return DefaultPort(config.Driver)
	}
	return config.Port
}

func dialTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 10 * time.Second
	}
	return timeout
}
