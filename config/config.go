// Package config implements layered configuration loading for the server
// and client binaries: built-in defaults, overlaid by an optional YAML
// file, overlaid by SOUPBIN_* environment variables — the same
// defaults-then-file-then-env precedence, built on viper, that the example
// control-plane config package uses for its own Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for both binaries.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig configures the reference server binary.
type ServerConfig struct {
	BindAddress       string        `mapstructure:"bind_address"`
	Port              int           `mapstructure:"port"`
	DBDir             string        `mapstructure:"db_dir"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`

	// AuthBackend selects the Authenticator implementation: "memory" (the
	// default, hardcoded bootstrap user) or "etcd" (see EtcdEndpoints).
	AuthBackend   string   `mapstructure:"auth_backend"`
	EtcdEndpoints []string `mapstructure:"etcd_endpoints"`
}

// ClientConfig configures the reference client binary.
type ClientConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	Session           string        `mapstructure:"session"`
	DBDir             string        `mapstructure:"db_dir"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

// LogConfig configures the logging package.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Address returns host:port for the server's bind address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// Address returns host:port for the client's target.
func (c ClientConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			BindAddress:       "0.0.0.0",
			Port:              25000,
			DBDir:             ".",
			HeartbeatInterval: 1 * time.Second,
			IdleTimeout:       15 * time.Second,
			AuthBackend:       "memory",
			EtcdEndpoints:     []string{"127.0.0.1:2379"},
		},
		Client: ClientConfig{
			Host:              "127.0.0.1",
			Port:              25000,
			Username:          "user1",
			Password:          "password1",
			Session:           "session1",
			DBDir:             ".",
			HeartbeatInterval: 1 * time.Second,
			IdleTimeout:       15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from built-in defaults, an optional YAML file (path
// may be empty to skip), then SOUPBIN_* environment variables, in that
// precedence order. With an empty path no file is read and defaults (and
// any env overrides) still apply, matching §6's "no environment required"
// claim for out-of-the-box behavior; a non-empty path that cannot be read
// is an error.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix("SOUPBIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %q: %w", configPath, err)
		}
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	return &out, nil
}

// setDefaults registers every field of cfg as a viper default so that
// AutomaticEnv and Unmarshal see a value even when neither a file nor an
// environment variable supplies one.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server.bind_address", cfg.Server.BindAddress)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.db_dir", cfg.Server.DBDir)
	v.SetDefault("server.heartbeat_interval", cfg.Server.HeartbeatInterval)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.auth_backend", cfg.Server.AuthBackend)
	v.SetDefault("server.etcd_endpoints", cfg.Server.EtcdEndpoints)

	v.SetDefault("client.host", cfg.Client.Host)
	v.SetDefault("client.port", cfg.Client.Port)
	v.SetDefault("client.username", cfg.Client.Username)
	v.SetDefault("client.password", cfg.Client.Password)
	v.SetDefault("client.session", cfg.Client.Session)
	v.SetDefault("client.db_dir", cfg.Client.DBDir)
	v.SetDefault("client.heartbeat_interval", cfg.Client.HeartbeatInterval)
	v.SetDefault("client.idle_timeout", cfg.Client.IdleTimeout)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}
