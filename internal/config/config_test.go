package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLoader isolates a Loader from the real environment and filesystem.
func testLoader(t *testing.T, env map[string]string) (Loader, string, string) {
	t.Helper()
	userDir := t.TempDir()
	workDir := t.TempDir()
	return Loader{
		Getenv:  func(k string) string { return env[k] },
		UserDir: func() (string, error) { return userDir, nil },
		WorkDir: func() (string, error) { return workDir, nil },
	}, userDir, workDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaults(t *testing.T) {
	l, _, _ := testLoader(t, nil)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDB, cfg.DB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 0, cfg.QuotaBytes)
	assert.Empty(t, cfg.Files)
}

func TestProjectOverridesUser(t *testing.T) {
	l, userDir, workDir := testLoader(t, nil)
	writeFile(t, filepath.Join(userDir, "timetable", FileName), "db = \"user.db\"\nlog_level = \"debug\"\n")
	writeFile(t, filepath.Join(workDir, FileName), "db = \"project.db\"\n")

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "project.db", cfg.DB)
	assert.Equal(t, "debug", cfg.LogLevel, "keys missing from the project file keep the user value")
	assert.Len(t, cfg.Files, 2)
}

func TestEnvOverridesFiles(t *testing.T) {
	l, _, workDir := testLoader(t, map[string]string{
		EnvDB:        "env.db",
		EnvLogFormat: "json",
		EnvQuota:     "4096",
	})
	writeFile(t, filepath.Join(workDir, FileName), "db = \"project.db\"\nquota_bytes = 10\n")

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DB)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4096, cfg.QuotaBytes)
}

func TestExplicitFile(t *testing.T) {
	l, _, workDir := testLoader(t, nil)
	writeFile(t, filepath.Join(workDir, FileName), "db = \"project.db\"\n")
	explicit := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, explicit, "db = \"custom.db\"\n")

	l.File = explicit
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.DB)
	assert.Equal(t, []string{explicit}, cfg.Files)
}

func TestExplicitFileMissing(t *testing.T) {
	l, _, _ := testLoader(t, nil)
	l.File = filepath.Join(t.TempDir(), "missing.toml")
	_, err := l.Load()
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{"unknown key", "colour = \"red\"\n", nil, "unknown key"},
		{"bad toml", "db = \n", nil, "config file"},
		{"bad level", "log_level = \"loud\"\n", nil, "unknown log level"},
		{"bad format", "log_format = \"xml\"\n", nil, "unknown log format"},
		{"negative quota", "quota_bytes = -1\n", nil, "quota_bytes"},
		{"empty db", "db = \"\"\n", nil, "db must not be empty"},
		{"bad quota env", "", map[string]string{EnvQuota: "lots"}, EnvQuota},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, workDir := testLoader(t, tt.env)
			if tt.file != "" {
				writeFile(t, filepath.Join(workDir, FileName), tt.file)
			}
			_, err := l.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
