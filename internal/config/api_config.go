package config

import "time"

const (
	apiBaseURLEnvVar     = "API_BASE_URL"
	requestTimeoutEnvVar = "REQUEST_TIMEOUT"
	refreshTimeoutEnvVar = "REFRESH_TIMEOUT"
	refreshSkewEnvVar    = "REFRESH_SKEW"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL is the single origin shared by all tenants.
func (API) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLEnvVar, "http://localhost:8000/api")
}

func (API) GetRequestTimeout() time.Duration {
	return GetDuration(requestTimeoutEnvVar, 30*time.Second)
}

func (API) GetRefreshTimeout() time.Duration {
	return GetDuration(refreshTimeoutEnvVar, 15*time.Second)
}

// GetRefreshSkew enables refreshing ahead of expiry when positive.
func (API) GetRefreshSkew() time.Duration {
	return GetDuration(refreshSkewEnvVar, 0)
}
