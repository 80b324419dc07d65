package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	EcoFlow   EcoFlowConfig   `mapstructure:"ecoflow"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Poller    PollerConfig    `mapstructure:"poller"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type EcoFlowConfig struct {
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type AuthConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type PollerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Retention time.Duration `mapstructure:"retention"`
	Devices   []string      `mapstructure:"devices"`
}

type RateLimitConfig struct {
	APIReadPerMinute  int `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int `mapstructure:"api_write_per_minute"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

var (
	ErrMissingAccessKey = errors.New("config: ecoflow.access_key is required")
	ErrMissingSecretKey = errors.New("config: ecoflow.secret_key is required")
	ErrMissingJWTSecret = errors.New("config: jwt.secret is required")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("ecoflow.base_url", "https://api-e.ecoflow.com")
	v.SetDefault("ecoflow.timeout", 10*time.Second)
	v.SetDefault("ecoflow.retry_attempts", 2)
	v.SetDefault("ecoflow.retry_backoff", 500*time.Millisecond)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.path", "data/ecoflow.db")
	v.SetDefault("database.max_connections", 1)

	v.SetDefault("jwt.access_token_ttl", 24*time.Hour)

	v.SetDefault("poller.interval", time.Minute)
	v.SetDefault("poller.retention", 7*24*time.Hour)

	v.SetDefault("rate_limit.api_read_per_minute", 120)
	v.SetDefault("rate_limit.api_write_per_minute", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
}

// Load reads the YAML file at path, with environment overrides such as
// ECOFLOW_SECRET_KEY for ecoflow.secret_key. A .env file in the working
// directory is loaded first when present. A missing config file is not an
// error so the CLI can run from the environment alone.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{"ecoflow.access_key", "ecoflow.secret_key", "jwt.secret", "auth.username", "auth.password_hash"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings needed to talk to the vendor API.
func (c *EcoFlowConfig) Validate() error {
	if c.AccessKey == "" {
		return ErrMissingAccessKey
	}
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	return nil
}

// Validate checks the settings needed by the relay server.
func (c *Config) Validate() error {
	if err := c.EcoFlow.Validate(); err != nil {
		return err
	}
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
