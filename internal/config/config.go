package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	Service  ServiceConfig
	Server   ServerConfig
	Remote   RemoteConfig
	NATS     NATSConfig
	Workflow WorkflowConfig
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RemoteConfig points at the persistence service.
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NATSConfig configures the event publisher. URL may be empty to
// disable publishing entirely.
type NATSConfig struct {
	URL string
}

// WorkflowConfig carries domain rules that vary per deployment.
// LimitBearingGroups names the workflow groups whose levels carry
// monetary approval limits.
type WorkflowConfig struct {
	LimitBearingGroups []int
}

// Load reads configuration from an optional config file and the
// environment. Environment variables use the CCAPPROVALS_ prefix with
// underscores, e.g. CCAPPROVALS_SERVER_PORT.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("service.name", "be-cc-approvals")
	v.SetDefault("service.version", "dev")
	v.SetDefault("service.environment", "development")
	v.SetDefault("service.loglevel", "info")

	v.SetDefault("server.port", 8086)
	v.SetDefault("server.readtimeout", 15*time.Second)
	v.SetDefault("server.writetimeout", 15*time.Second)
	v.SetDefault("server.idletimeout", 60*time.Second)
	v.SetDefault("server.shutdowntimeout", 10*time.Second)

	v.SetDefault("remote.baseurl", "http://localhost:8080")
	v.SetDefault("remote.timeout", 30*time.Second)

	v.SetDefault("nats.url", "")

	v.SetDefault("workflow.limitbearinggroups", []int{2})

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/be-cc-approvals")

	v.SetEnvPrefix("CCAPPROVALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env + defaults are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
