package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-w", "127.0.0.1:8081", "-d", "memory", "-s", "secret",
			"-r", "redis:6379", "-t", "3s", "-l", "text",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrGRPC: "127.0.0.1:9090",
				EndpointAddrHTTP: "127.0.0.1:8081",
				DatabaseDSN:      "memory",
				SecretKey:        "secret",
				RedisAddr:        "redis:6379",
				PlatformTimeout:  3 * time.Second,
				LogFormat:        "text",
			}},
		{name: "foreign flags ignored", args: []string{"cmd", "-test.v", "-x", "1", "-d", "dsn"},
			expected: &Config{DatabaseDSN: "dsn"}},
		{name: "bad duration", args: []string{"cmd", "-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
