package config

import "time"

type AuthConfig interface {
	GetJWTSecret() string
	GetJWTIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetSessionSweepInterval() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "")
}

func (Auth) GetJWTIssuer() string {
	return GetEnv("JWT_ISSUER", "lunavps.com")
}

func (Auth) GetAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour) // 7 days
}

// GetSessionSweepInterval controls the optional background cleanup of expired
// session rows. Zero disables the sweep; expired sessions are still evicted
// reactively on refresh.
func (Auth) GetSessionSweepInterval() time.Duration {
	return durationEnv("SESSION_SWEEP_INTERVAL", time.Hour)
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
