package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-taskboard/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	c := config.FromViper(viper.New())

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8080/api", c.GetAPIBaseURL())
	require.Equal(t, "ws://localhost:8080/ws", c.GetRealtimeURL())
	require.Equal(t, 10*time.Second, c.GetRequestTimeout())
	require.Equal(t, 5, c.GetReconnectAttempts())
	require.Equal(t, time.Second, c.GetReconnectDelay())
	require.Equal(t, "data/session.db", c.GetSessionDB())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("TASKBOARD_API_URL", "https://tasks.example.com/api/")
	t.Setenv("TASKBOARD_WS_URL", "wss://tasks.example.com/ws")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("REALTIME_RECONNECT_ATTEMPTS", "2")
	t.Setenv("REALTIME_RECONNECT_DELAY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("ENV", "prod")

	v := viper.New()
	v.AutomaticEnv()
	c := config.FromViper(v)

	require.Equal(t, "https://tasks.example.com/api", c.GetAPIBaseURL())
	require.Equal(t, "wss://tasks.example.com/ws", c.GetRealtimeURL())
	require.Equal(t, 3*time.Second, c.GetRequestTimeout())
	require.Equal(t, 2, c.GetReconnectAttempts())
	require.Equal(t, 250*time.Millisecond, c.GetReconnectDelay())
	require.Equal(t, "PROD", c.GetEnv())
	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("http://localhost:3000"))
}

func TestConfig_InvalidDurationsFallBack(t *testing.T) {
	v := viper.New()
	v.Set("API_TIMEOUT", "-1s")
	v.Set("REALTIME_RECONNECT_ATTEMPTS", -3)
	c := config.FromViper(v)

	require.Equal(t, 10*time.Second, c.GetRequestTimeout())
	require.Equal(t, 0, c.GetReconnectAttempts())
}
