package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	wsURLVar             = "TASKBOARD_WS_URL"
	reconnectAttemptsVar = "REALTIME_RECONNECT_ATTEMPTS"
	reconnectDelayVar    = "REALTIME_RECONNECT_DELAY"
)

type RealtimeConfig interface {
	GetRealtimeURL() string
	GetReconnectAttempts() int
	GetReconnectDelay() time.Duration
}

type Realtime struct {
	v *viper.Viper
}

var _ RealtimeConfig = Realtime{}

func (r Realtime) GetRealtimeURL() string {
	return r.v.GetString(wsURLVar)
}

// GetReconnectAttempts is the number of automatic reconnects tried after a
// connection drops. Zero disables reconnection.
func (r Realtime) GetReconnectAttempts() int {
	n := r.v.GetInt(reconnectAttemptsVar)
	if n < 0 {
		return 0
	}
	return n
}

func (r Realtime) GetReconnectDelay() time.Duration {
	d := r.v.GetDuration(reconnectDelayVar)
	if d <= 0 {
		return time.Second
	}
	return d
}
