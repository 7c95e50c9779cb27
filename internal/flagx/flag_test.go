package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.yaml", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.yaml"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end",
			args:         []string{"-t"},
			allowedFlags: []string{"-t"},
			want:         []string{"-t"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "several owned flags keep order",
			args:         []string{"-a", ":50051", "-h", ":8080", "--other", "x", "-d", "memory"},
			allowedFlags: []string{"-a", "-h", "-d"},
			want:         []string{"-a", ":50051", "-h", ":8080", "-d", "memory"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFilePath(t *testing.T) {
	t.Run("short flag", func(t *testing.T) {
		assert.Equal(t, "/etc/socialid.yaml", ConfigFilePath([]string{"-c", "/etc/socialid.yaml"}, ""))
	})

	t.Run("long flag wins over env", func(t *testing.T) {
		t.Setenv("SOCIALID_TEST_CONFIG", "/from/env.json")
		assert.Equal(t, "/from/flag.json", ConfigFilePath([]string{"-config", "/from/flag.json"}, "SOCIALID_TEST_CONFIG"))
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("SOCIALID_TEST_CONFIG", "/from/env.json")
		assert.Equal(t, "/from/env.json", ConfigFilePath([]string{"-x", "1"}, "SOCIALID_TEST_CONFIG"))
	})

	t.Run("nothing set", func(t *testing.T) {
		assert.Empty(t, ConfigFilePath(nil, ""))
	})

	t.Run("last flag wins", func(t *testing.T) {
		assert.Equal(t, "/2.json", ConfigFilePath([]string{"-c", "/1.json", "-config", "/2.json"}, ""))
	})
}
