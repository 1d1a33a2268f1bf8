// Package config exposes runtime configuration as small interfaces so
// components depend only on the settings they read.
package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	ClientConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type ClientConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetCredentialsFile() string
}

type mainConfig struct {
	EnvVars
}

// New loads a .env file when one is present and returns the assembled
// configuration.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
