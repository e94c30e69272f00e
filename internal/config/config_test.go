package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	content := `workers: 3
out_dir: out
analyzers: [state-machine]
log_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, []string{"state-machine"}, cfg.Analyzers)
	assert.Equal(t, "json", cfg.LogFormat)
	// Untouched keys keep their defaults
	assert.Equal(t, "product-map.md", cfg.MapFile)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("workers: [1"), 0644))
	_, err := LoadFile(badYAML)
	assert.Error(t, err)

	badValue := filepath.Join(dir, "zero.yaml")
	require.NoError(t, os.WriteFile(badValue, []byte("workers: 0"), 0644))
	_, err = LoadFile(badValue)
	assert.ErrorContains(t, err, "workers must be between 1 and 256")
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "no environment variables keeps defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "valid overrides",
			envVars: map[string]string{
				"PROBE_WORKERS":    "2",
				"PROBE_OUT_DIR":    "/tmp/findings",
				"PROBE_ANALYZERS":  " entity-model , ,state-machine",
				"PROBE_LOG_LEVEL":  "debug",
				"PROBE_LOG_FORMAT": "json",
				"PROBE_PROBE_DIR":  "probes",
				"PROBE_PROBES":     "ra-auth-patterns",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "probes", cfg.ProbeDir)
				assert.Equal(t, []string{"ra-auth-patterns"}, cfg.Probes)
				assert.Equal(t, 2, cfg.Workers)
				assert.Equal(t, "/tmp/findings", cfg.OutDir)
				assert.Equal(t, []string{"entity-model", "state-machine"}, cfg.Analyzers)
				assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
				assert.Equal(t, "json", cfg.LogFormat)
			},
		},
		{
			name:    "non-numeric workers",
			envVars: map[string]string{"PROBE_WORKERS": "many"},
			wantErr: true,
		},
		{
			name:    "workers out of range",
			envVars: map[string]string{"PROBE_WORKERS": "1000"},
			wantErr: true,
		},
		{
			name:    "unknown log format",
			envVars: map[string]string{"PROBE_LOG_FORMAT": "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"PROBE_WORKERS", "PROBE_OUT_DIR", "PROBE_MAP_FILE",
				"PROBE_ANALYZERS", "PROBE_PROBES", "PROBE_PROBE_DIR", "PROBE_LOG_LEVEL", "PROBE_LOG_FORMAT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := Default()
			err := cfg.ApplyEnv()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.OutDir = "  "
	assert.ErrorContains(t, cfg.Validate(), "out_dir")
}

func TestString(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "Workers: 8")
	assert.Contains(t, s, "LogFormat: text")
}
