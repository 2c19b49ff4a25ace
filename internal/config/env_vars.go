package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	portEnvVar   = "PORT"
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	sessionDBVar = "SESSION_DB"
	logLevelVar  = "LOG_LEVEL"
	envVar       = "ENV"
	dbURLVar     = "DATABASE_URL"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(portEnvVar)
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetDataFolder() string {
	return e.v.GetString(folderEnvVar)
}

// GetSessionDB returns the SQLite file holding the persisted session tokens.
// Defaults to session.db inside the data folder.
func (e EnvVars) GetSessionDB() string {
	if db := e.v.GetString(sessionDBVar); db != "" {
		return db
	}
	return filepath.Join(e.GetDataFolder(), "session.db")
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.v.GetString(logLevelVar))
}

func (e EnvVars) GetEnv() string {
	env := e.v.GetString(envVar)
	if env == "" {
		return "DEV"
	}
	return strings.ToUpper(env)
}

// GetDatabaseURL is the Postgres DSN of the reference backend. Empty means
// the backend keeps everything in memory.
func (e EnvVars) GetDatabaseURL() string {
	return e.v.GetString(dbURLVar)
}
