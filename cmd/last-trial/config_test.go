package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{serverURL: "http://localhost:8001", logLevel: "info"},
		},
		{
			name:    "missing server",
			cfg:     Config{logLevel: "info"},
			wantErr: "--server is required",
		},
		{
			name:    "bad scheme",
			cfg:     Config{serverURL: "ftp://host", logLevel: "info"},
			wantErr: "scheme",
		},
		{
			name:    "bad log level",
			cfg:     Config{serverURL: "http://host", logLevel: "loud"},
			wantErr: "unknown log level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConfigWSURL(t *testing.T) {
	cfg := Config{serverURL: "http://localhost:8001"}
	u, err := cfg.wsURL(12)
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8001/api/ws/game/12", u)

	cfg.serverURL = "https://trials.example.com"
	u, err = cfg.wsURL(3)
	require.NoError(t, err)
	require.Equal(t, "wss://trials.example.com/api/ws/game/3", u)
}

func TestParseGameID(t *testing.T) {
	id, err := parseGameID("42")
	require.NoError(t, err)
	require.Equal(t, 42, id)

	for _, bad := range []string{"", "abc", "0", "-1"} {
		_, err := parseGameID(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestCommandDefaults(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.PersistentFlags().Parse(nil))

	require.Equal(t, "http://localhost:8001", cfg.serverURL)
	require.Equal(t, "info", cfg.logLevel)
	require.Equal(t, 30*time.Second, cfg.heartbeat)
	require.Equal(t, 5*time.Second, cfg.reconnectDelay)
	require.Equal(t, 3*time.Second, cfg.minLive)
	require.Equal(t, 10*time.Second, cfg.pollInterval)
}
