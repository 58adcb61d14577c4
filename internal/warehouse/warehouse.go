// Package warehouse owns the connection to the payments warehouse: driver
// selection, DSN construction, pool tuning and the initial reachability
// check. Retry and circuit breaking live here and nowhere else; the query
// layer reports failures without retrying.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"paysight/internal/observability"
	"paysight/pkg/errors"
)

// Driver names a supported database/sql driver
type Driver string

const (
	DriverMySQL     Driver = "mysql"
	DriverPostgres  Driver = "postgres"
	DriverSnowflake Driver = "snowflake"
)

// Drivers lists the supported drivers
var Drivers = []Driver{DriverMySQL, DriverPostgres, DriverSnowflake}

// ParseDriver normalizes a driver name. "pgx" and "postgresql" are
// accepted for postgres.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	case "snowflake":
		return DriverSnowflake, nil
	default:
		return "", errors.ValidationError("driver", name, "must be one of mysql, postgres, snowflake")
	}
}

// String implements pflag.Value
func (d *Driver) String() string {
	return string(*d)
}

// Set implements pflag.Value
func (d *Driver) Set(s string) error {
	parsed, err := ParseDriver(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Type implements pflag.Value
func (d *Driver) Type() string {
	return "driver"
}

// Config holds everything needed to open a pool
type Config struct {
	Driver          Driver
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	Schema          string
	Account         string
	Warehouse       string
	Role            string
	Params          map[string]string
	Timeout         time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPort returns the conventional port for a driver
func DefaultPort(d Driver) int {
	switch d {
	case DriverPostgres:
		return 5432
	case DriverSnowflake:
		return 443
	default:
		return 3306
	}
}

// ValidateConfig checks that the fields a driver needs are present
func ValidateConfig(config Config) error {
	if config.Username == "" {
		return errors.ConfigError("username is required", "warehouse.username")
	}
	if config.Database == "" {
		return errors.ConfigError("database is required", "warehouse.database")
	}

	switch config.Driver {
	case DriverMySQL, DriverPostgres:
		if config.Host == "" {
			return errors.ConfigError("host is required", "warehouse.host")
		}
		if config.Port < 0 || config.Port > 65535 {
			return errors.ConfigError(fmt.Sprintf("port %d is out of range", config.Port), "warehouse.port")
		}
	case DriverSnowflake:
		if config.Account == "" {
			return errors.ConfigError("account is required", "warehouse.account")
		}
		if config.Warehouse == "" {
			return errors.ConfigError("warehouse is required", "warehouse.warehouse")
		}
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported driver %q", config.Driver), "warehouse.driver")
	}
	return nil
}

// OpenFunc opens a pool without touching the network
type OpenFunc func(Config) (*sql.DB, error)

// Service provides the pooled connection handle the catalog runs on
type Service struct {
	config         Config
	db             *sql.DB
	connected      bool
	open           OpenFunc
	retry          *errors.RetryConfig
	circuitBreaker *errors.CircuitBreaker
	logger         *observability.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithOpenFunc replaces the driver-backed opener, mainly for tests
func WithOpenFunc(open OpenFunc) Option {
	return func(s *Service) { s.open = open }
}

// WithRetryConfig replaces the retry policy used by Connect
func WithRetryConfig(rc *errors.RetryConfig) Option {
	return func(s *Service) { s.retry = rc }
}

// WithLogger sets the logger used for connection events
func WithLogger(logger *observability.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a new warehouse service
func NewService(config Config, opts ...Option) *Service {
	if config.Port == 0 {
		config.Port = DefaultPort(config.Driver)
	}

	s := &Service{
		config:         config,
		open:           Open,
		retry:          errors.DefaultRetryConfig(),
		circuitBreaker: errors.NewCircuitBreaker("warehouse", 5, 30*time.Second),
		logger:         observability.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens the pool and pings it, retrying transient failures
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}
	if err := ValidateConfig(s.config); err != nil {
		return err
	}

	retry := *s.retry
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.logger.WarnWithFields("warehouse connection attempt failed", map[string]interface{}{
			"attempt":  attempt,
			"retry_in": delay.String(),
			"error":    err.Error(),
		})
	}

	return s.circuitBreaker.Execute(ctx, func() error {
		return errors.Retry(ctx, &retry, func(ctx context.Context) error {
			db, err := s.open(s.config)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to open warehouse pool").
					WithContext("driver", string(s.config.Driver))
			}

			s.applyPool(db)

			pingCtx, cancel := s.queryContext(ctx)
			defer cancel()

			if err := db.PingContext(pingCtx); err != nil {
				_ = db.Close()

				msg := strings.ToLower(err.Error())
				if strings.Contains(msg, "access denied") || strings.Contains(msg, "authentication") ||
					strings.Contains(msg, "password") {
					return errors.Wrap(err, errors.ErrCodeAuthenticationFailed, "authentication failed").
						WithContext("user", s.config.Username).
						WithSuggestions(
							"Verify the username and password",
							"Run 'paysight setup' to store new credentials",
						)
				}

				return errors.ConnectionError("failed to reach warehouse", err).
					WithContext("driver", string(s.config.Driver)).
					WithContext("host", s.endpoint())
			}

			s.db = db
			s.connected = true
			s.logger.InfoWithFields("connected to warehouse", map[string]interface{}{
				"driver": string(s.config.Driver),
				"host":   s.endpoint(),
			})
			return nil
		})
	})
}

// DB returns the pool. It is nil until Connect succeeds.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the configured driver
func (s *Service) Dialect() Dialect {
	return Dialect{Driver: s.config.Driver}
}

// Timeout returns the per-query timeout
func (s *Service) Timeout() time.Duration {
	if s.config.Timeout <= 0 {
		return 30 * time.Second
	}
	return s.config.Timeout
}

// Close closes the pool
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	s.connected = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Service) applyPool(db *sql.DB) {
	maxOpen := s.config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := s.config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := s.config.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 10 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

func (s *Service) queryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.Timeout())
}

func (s *Service) endpoint() string {
	if s.config.Driver == DriverSnowflake {
		return s.config.Account
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
