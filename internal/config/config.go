package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	APIConfig
	RealtimeConfig
	SecurityConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetSessionDB() string
	GetLogLevel() string
	GetEnv() string
	GetDatabaseURL() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	API
	Realtime
	Security
	Cors
}

// New builds the configuration from the environment, falling back to an
// optional .env file in the working directory.
func New() Config {
	return FromViper(newViper(".env"))
}

// FromViper builds the configuration from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	setDefaults(v)
	return mainConfig{
		EnvVars:  EnvVars{v: v},
		API:      API{v: v},
		Realtime: Realtime{v: v},
		Security: Security{v: v},
		Cors:     Cors{v: v},
	}
}

func newViper(envFile string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(appNameVar, "Taskboard")
	v.SetDefault(folderEnvVar, "./data")
	v.SetDefault(logLevelVar, "info")
	v.SetDefault(envVar, "DEV")

	v.SetDefault(apiURLVar, "http://localhost:8080/api")
	v.SetDefault(apiTimeoutVar, 10*time.Second)

	v.SetDefault(wsURLVar, "ws://localhost:8080/ws")
	v.SetDefault(reconnectAttemptsVar, 5)
	v.SetDefault(reconnectDelayVar, time.Second)

	v.SetDefault(jwtSecretVar, "taskboard-dev-secret")
	v.SetDefault(jwtIssuerVar, "taskboard")
	v.SetDefault(accessExpiryVar, 15*time.Minute)
	v.SetDefault(refreshExpiryVar, 7*24*time.Hour)

	v.SetDefault(allowedOriginsVar, "http://localhost:3000")
}
