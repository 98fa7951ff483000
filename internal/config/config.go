// Package config loads service settings from .env, the environment and flags.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/satishkumarchandala/clean-India/internal/priority"
)

// Keys double as environment variable names once upper-cased.
const (
	KeyDatabaseURL     = "database_url"
	KeyPort            = "port"
	KeyEnv             = "go_env"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyPolicyFile      = "priority_policy_file"
	KeyCORSOrigins     = "cors_origins"
	KeyShutdownTimeout = "shutdown_timeout"
)

type Config struct {
	DatabaseURL     string
	Port            string
	Env             string
	LogLevel        string
	LogFormat       string
	PolicyFile      string
	CORSOrigins     string
	ShutdownTimeout time.Duration
}

// SetDefaults registers default values and enables environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyPolicyFile, "")
	v.SetDefault(KeyCORSOrigins, "*")
	v.SetDefault(KeyShutdownTimeout, 5*time.Second)
	v.AutomaticEnv()
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, bool) {
	dotenv := godotenv.Load() == nil
	v := viper.New()
	SetDefaults(v)
	return FromViper(v), dotenv
}

// FromViper snapshots the settings held by v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		DatabaseURL:     v.GetString(KeyDatabaseURL),
		Port:            v.GetString(KeyPort),
		Env:             v.GetString(KeyEnv),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		PolicyFile:      v.GetString(KeyPolicyFile),
		CORSOrigins:     v.GetString(KeyCORSOrigins),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Policy returns the scoring policy: the file at PolicyFile when set, the
// built-in rules otherwise.
func (c *Config) Policy() (priority.Policy, error) {
	if c.PolicyFile == "" {
		return priority.DefaultPolicy(), nil
	}
	p, err := priority.LoadPolicy(c.PolicyFile)
	if err != nil {
		return priority.Policy{}, fmt.Errorf("config: %w", err)
	}
	return p, nil
}
