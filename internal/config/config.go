package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds settings for the realtime broker server.
type Config struct {
	ListenAddr   string         `mapstructure:"listen_addr" validate:"required"`
	LogLevel     string         `mapstructure:"log_level"`
	InstanceID   string         `mapstructure:"instance_id"`
	JWT          JWTConfig      `mapstructure:"jwt"`
	Database     DatabaseConfig `mapstructure:"database"`
	RedisURL     string         `mapstructure:"redis_url"`
	NATSURL      string         `mapstructure:"nats_url"`
	SendBuffer   int            `mapstructure:"send_buffer" validate:"gt=0"`
	WriteTimeout time.Duration  `mapstructure:"write_timeout"`
	HistoryLimit int            `mapstructure:"history_limit" validate:"gte=0"`
}

// ClientConfig holds settings for the broker client.
type ClientConfig struct {
	ServerURL         string        `mapstructure:"server_url" validate:"required"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts" validate:"gte=0"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
}

// DatabaseConfig captures chat store configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// JWTConfig defines token verification parameters.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret" validate:"required"`
	Issuer     string        `mapstructure:"issuer"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// ReadConfig reads the configuration from the specified JSON file.
func ReadConfig(configPath string) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// MustReadConfig reads the configuration or panics if there's an error.
func MustReadConfig(configPath string) Config {
	cfg, err := ReadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("write_timeout", 15*time.Second)
	v.SetDefault("history_limit", 100)
	v.SetDefault("database.path", "servora.db")
	v.SetDefault("jwt.issuer", "servora")
	v.SetDefault("jwt.expiration", 24*time.Hour)
}

// DefaultClientConfig returns client settings with the stock retry policy:
// a fixed number of attempts separated by a flat delay.
func DefaultClientConfig(serverURL string) ClientConfig {
	return ClientConfig{
		ServerURL:         serverURL,
		ReconnectAttempts: 5,
		ReconnectDelay:    3 * time.Second,
	}
}
