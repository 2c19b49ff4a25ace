package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	apiURLVar     = "TASKBOARD_API_URL"
	apiTimeoutVar = "API_TIMEOUT"
)

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the REST base URL without a trailing slash
// (e.g. "http://localhost:8080/api").
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.v.GetString(apiURLVar), "/")
}

func (a API) GetRequestTimeout() time.Duration {
	d := a.v.GetDuration(apiTimeoutVar)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
