package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected func() Config
		wantErr  bool
	}{
		{
			name:     "empty file",
			yaml:     "\n",
			expected: Default,
		},
		{
			name: "partial file keeps defaults",
			yaml: "database_url: redis://localhost:6379/0\ntracing:\n  enabled: true\n",
			expected: func() Config {
				cfg := Default()
				cfg.DatabaseURL = "redis://localhost:6379/0"
				cfg.Tracing.Enabled = true

				return cfg
			},
		},
		{
			name: "full file",
			yaml: `server:
  port: 8080
database_url: postgres://localhost/procflow
log_level: debug
tracing:
  enabled: true
  service_name: editor
`,
			expected: func() Config {
				return Config{
					Server:      ServerConfig{Port: 8080},
					DatabaseURL: "postgres://localhost/procflow",
					LogLevel:    "debug",
					Tracing:     TracingConfig{Enabled: true, ServiceName: "editor"},
				}
			},
		},
		{name: "unknown field", yaml: "listen: 1\n", wantErr: true},
		{name: "invalid port", yaml: "server:\n  port: 70000\n", wantErr: true},
		{name: "malformed yaml", yaml: "server: [\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected(), cfg)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
