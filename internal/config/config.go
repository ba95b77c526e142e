package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	APIConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetTenantsFile() string
	GetFakeAPIPort() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// APIConfig describes how the console reaches the ticketing backend.
type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetRefreshSkew() time.Duration
}

// SessionConfig selects and configures the session store.
type SessionConfig interface {
	GetSessionBackend() string
	GetSessionKey() string
	GetRedisAddr() string
	GetRedisPassword() string
}

type mainConfig struct {
	EnvVars
	Cors
	API
	Sessions
}

func New() Config {
	return mainConfig{}
}
