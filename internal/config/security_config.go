package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	jwtSecretVar     = "JWT_SECRET"
	jwtIssuerVar     = "JWT_ISSUER"
	accessExpiryVar  = "JWT_ACCESS_TTL"
	refreshExpiryVar = "JWT_REFRESH_TTL"
)

// SecurityConfig is only consumed by the reference backend.
type SecurityConfig interface {
	GetJWTSecret() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

func (s Security) GetJWTSecret() string {
	return s.v.GetString(jwtSecretVar)
}

func (s Security) GetIssuer() string {
	return s.v.GetString(jwtIssuerVar)
}

func (s Security) GetAccessTokenExpiry() time.Duration {
	d := s.v.GetDuration(accessExpiryVar)
	if d <= 0 {
		return 15 * time.Minute
	}
	return d
}

func (s Security) GetRefreshTokenExpiry() time.Duration {
	d := s.v.GetDuration(refreshExpiryVar)
	if d <= 0 {
		return 7 * 24 * time.Hour // 7 days
	}
	return d
}

func (Security) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}
