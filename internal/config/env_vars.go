package config

import (
	"os"
	"strconv"
	"time"
)

const (
	apiBaseURLVar      = "API_BASE_URL"
	appNameVar         = "APP_NAME"
	requestTimeoutVar  = "API_TIMEOUT_MS"
	credentialsFileVar = "CREDENTIALS_FILE"

	defaultTimeoutMs = 15000
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ ClientConfig = EnvVars{}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080/api/v1")
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Expenses Tracker")
}

// GetRequestTimeout returns the fixed per-request timeout, configured
// in milliseconds.
func (EnvVars) GetRequestTimeout() time.Duration {
	ms, err := strconv.Atoi(GetEnv(requestTimeoutVar, ""))
	if err != nil || ms <= 0 {
		ms = defaultTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// GetCredentialsFile returns the credential store path; empty means use
// the per-user default location.
func (EnvVars) GetCredentialsFile() string {
	return GetEnv(credentialsFileVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
