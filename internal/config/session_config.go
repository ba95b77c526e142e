package config

import "strings"

const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

type Sessions struct{}

var _ SessionConfig = Sessions{}

func (Sessions) GetSessionBackend() string {
	return strings.ToLower(GetEnv("SESSION_BACKEND", SessionBackendFile))
}

// GetSessionKey returns the passphrase used to encrypt file sessions. Empty
// means sessions are stored in plain JSON.
func (Sessions) GetSessionKey() string {
	return GetEnv("SESSION_KEY", "")
}

func (Sessions) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Sessions) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}
