package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// StorageDriverPostgres keeps all state in PostgreSQL.
	StorageDriverPostgres = "postgres"
	// StorageDriverMemory keeps all state in process; intended for local runs.
	StorageDriverMemory = "memory"
)

// Environment variables that override secrets from the config file.
const (
	EnvTokenSecret      = "JOBBOARD_TOKEN_SECRET"
	EnvDatabasePassword = "JOBBOARD_DB_PASSWORD"
	EnvRabbitMQPassword = "JOBBOARD_RABBITMQ_PASSWORD"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the store implementation
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// RabbitMQConfig holds RabbitMQ connection and topology configuration
type RabbitMQConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Host        string           `yaml:"host"`
	Port        int              `yaml:"port"`
	User        string           `yaml:"user"`
	Password    string           `yaml:"password"`
	VHost       string           `yaml:"vhost"`
	Exchange    ExchangeConfig   `yaml:"exchange"`
	Queue       QueueConfig      `yaml:"queue"`
	BindingKeys []string         `yaml:"binding_keys"`
	Connection  ConnectionConfig `yaml:"connection"`
	Publish     PublishConfig    `yaml:"publish"`
	Consumer    ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	Issuer      string        `yaml:"issuer"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	ID              string        `yaml:"id"`
	Concurrency     int           `yaml:"concurrency"`
	RecordTimeout   time.Duration `yaml:"record_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load reads and parses the configuration file, then applies environment
// overrides and defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvTokenSecret); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := os.Getenv(EnvDatabasePassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvRabbitMQPassword); v != "" {
		c.RabbitMQ.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = 5 * time.Second
	}
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "topic"
	}
	if c.RabbitMQ.Publish.Timeout == 0 {
		c.RabbitMQ.Publish.Timeout = 2 * time.Second
	}
}

func validatePort(name string, port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("invalid %s port: %d (must be between %d and %d)", name, port, MinPort, MaxPort)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return errors.New("database host is required")
	}
	if err := validatePort("database", c.Database.Port); err != nil {
		return err
	}
	if c.Database.Database == "" {
		return errors.New("database name is required")
	}
	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return errors.New("rabbitmq host is required")
	}
	if err := validatePort("rabbitmq", c.RabbitMQ.Port); err != nil {
		return err
	}
	if c.RabbitMQ.Exchange.Name == "" {
		return errors.New("rabbitmq exchange name is required")
	}
	return nil
}

// Validate checks the configuration of the API service
func (c *Config) Validate() error {
	if err := validatePort("server", c.Server.Port); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if err := c.validateDatabase(); err != nil {
			return err
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q (must be %q or %q)", c.Storage.Driver, StorageDriverPostgres, StorageDriverMemory)
	}

	if c.RabbitMQ.Enabled {
		if err := c.validateRabbitMQ(); err != nil {
			return err
		}
	}

	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token_secret is required (or set %s)", EnvTokenSecret)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth token_ttl must be greater than 0")
	}

	return nil
}

// ValidateWorkerConfig checks the configuration of the worker service,
// which always needs PostgreSQL and RabbitMQ
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.RabbitMQ.Queue.Name == "" {
		return errors.New("rabbitmq queue name is required")
	}

	if len(c.RabbitMQ.BindingKeys) == 0 {
		return errors.New("rabbitmq binding_keys must not be empty")
	}

	if c.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be greater than 0")
	}

	if c.Worker.RecordTimeout <= 0 {
		return errors.New("worker record_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return errors.New("worker shutdown_timeout must be greater than 0")
	}

	return nil
}
