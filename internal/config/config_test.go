package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
			assert.Equal(t, "jobboard_db", cfg.Database.Database)
			assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
			assert.True(t, cfg.RabbitMQ.Enabled)
			assert.Equal(t, "jobboard.events", cfg.RabbitMQ.Exchange.Name)
			assert.Equal(t, []string{"application.#", "job.#"}, cfg.RabbitMQ.BindingKeys)
			assert.Equal(t, 10, cfg.RabbitMQ.Consumer.PrefetchCount)
			assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
			assert.Equal(t, 4, cfg.Worker.Concurrency)
		})
	}
}

func TestLoad_EnvOverridesAndDefaults(t *testing.T) {
	t.Setenv(EnvTokenSecret, "env-secret")
	t.Setenv(EnvDatabasePassword, "env-db-password")
	t.Setenv(EnvRabbitMQPassword, "env-mq-password")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.TokenSecret)
	assert.Equal(t, "env-db-password", cfg.Database.Password)
	assert.Equal(t, "env-mq-password", cfg.RabbitMQ.Password)

	cfg, err = Load("testdata/invalid_port.yaml")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "topic", cfg.RabbitMQ.Exchange.Type)
}

// validConfig returns a configuration accepted by both validators.
func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "jobboard_db",
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:     true,
			Host:        "localhost",
			Port:        5672,
			Exchange:    ExchangeConfig{Name: "jobboard.events"},
			Queue:       QueueConfig{Name: "jobboard.activity"},
			BindingKeys: []string{"#"},
		},
		Auth: AuthConfig{TokenSecret: "secret", TokenTTL: time.Hour},
		Worker: WorkerConfig{
			Concurrency:     2,
			RecordTimeout:   time.Second,
			ShutdownTimeout: time.Second,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errString string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "memory storage skips database", mutate: func(c *Config) {
			c.Storage.Driver = StorageDriverMemory
			c.Database = DatabaseConfig{}
		}},
		{name: "disabled rabbitmq skips broker", mutate: func(c *Config) {
			c.RabbitMQ = RabbitMQConfig{}
		}},
		{name: "server port too low", mutate: func(c *Config) { c.Server.Port = 0 }, errString: "invalid server port"},
		{name: "server port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, errString: "invalid server port"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, errString: "unknown storage driver"},
		{name: "empty database host", mutate: func(c *Config) { c.Database.Host = "" }, errString: "database host is required"},
		{name: "empty database name", mutate: func(c *Config) { c.Database.Database = "" }, errString: "database name is required"},
		{name: "empty rabbitmq host", mutate: func(c *Config) { c.RabbitMQ.Host = "" }, errString: "rabbitmq host is required"},
		{name: "empty exchange name", mutate: func(c *Config) { c.RabbitMQ.Exchange.Name = "" }, errString: "rabbitmq exchange name is required"},
		{name: "missing token secret", mutate: func(c *Config) { c.Auth.TokenSecret = "" }, errString: "token_secret is required"},
		{name: "non-positive ttl", mutate: func(c *Config) { c.Auth.TokenTTL = -time.Minute }, errString: "token_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errString == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errString string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "worker ignores storage driver", mutate: func(c *Config) { c.Storage.Driver = StorageDriverMemory }},
		{name: "database required", mutate: func(c *Config) { c.Database.Host = "" }, errString: "database host is required"},
		{name: "rabbitmq required even when publishing is off", mutate: func(c *Config) {
			c.RabbitMQ.Enabled = false
			c.RabbitMQ.Host = ""
		}, errString: "rabbitmq host is required"},
		{name: "empty queue name", mutate: func(c *Config) { c.RabbitMQ.Queue.Name = "" }, errString: "rabbitmq queue name is required"},
		{name: "no binding keys", mutate: func(c *Config) { c.RabbitMQ.BindingKeys = nil }, errString: "binding_keys"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Worker.Concurrency = 0 }, errString: "worker concurrency"},
		{name: "zero record timeout", mutate: func(c *Config) { c.Worker.RecordTimeout = 0 }, errString: "worker record_timeout"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.Worker.ShutdownTimeout = 0 }, errString: "worker shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.ValidateWorkerConfig()

			if tt.errString == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}
