package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	STM struct {
		MaxAttempts int           `koanf:"max_attempts"`
		BackoffBase time.Duration `koanf:"backoff_base"`
	} `koanf:"stm"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stmkit.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}
}

func TestLoader_KeepsTargetDefaults(t *testing.T) {
	path := writeFile(t, "log:\n  level: debug\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	cfg.STM.MaxAttempts = 7
	cfg.STM.BackoffBase = 50 * time.Microsecond
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.STM.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", cfg.STM.MaxAttempts)
	}
	if cfg.STM.BackoffBase != 50*time.Microsecond {
		t.Errorf("BackoffBase = %v, want 50µs", cfg.STM.BackoffBase)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_File(t *testing.T) {
	path := writeFile(t, `
stm:
  max_attempts: 3
  backoff_base: 2ms
log:
  level: debug
`)
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.STM.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.STM.MaxAttempts)
	}
	if cfg.STM.BackoffBase != 2*time.Millisecond {
		t.Errorf("BackoffBase = %v, want 2ms", cfg.STM.BackoffBase)
	}
	if got := l.GetString("log.level"); got != "debug" {
		t.Errorf("GetString(log.level) = %q, want debug", got)
	}
	if l.FilePath() != path {
		t.Errorf("FilePath() = %q, want %q", l.FilePath(), path)
	}
}

func TestLoader_FileNotFound(t *testing.T) {
	l := NewLoader(WithConfigFile("/nonexistent/stmkit.yaml"))
	var cfg testConfig
	if err := l.Load(&cfg); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoader_Priority(t *testing.T) {
	path := writeFile(t, `
stm:
  max_attempts: 3
log:
  level: debug
`)
	t.Setenv("STMKIT_STM_MAX_ATTEMPTS", "9")
	t.Setenv("STMKIT_LOG_LEVEL", "warn")

	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"log.level": "error"}),
	)
	var cfg testConfig
	cfg.STM.MaxAttempts = 1
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.STM.MaxAttempts != 9 {
		t.Errorf("MaxAttempts = %d, want 9 (env over file over default)", cfg.STM.MaxAttempts)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, want error (override over env)", cfg.Log.Level)
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader()
	tests := []struct {
		in, want string
	}{
		{"STMKIT_STM_MAX_ATTEMPTS", "stm.max_attempts"},
		{"STMKIT_LOG_LEVEL", "log.level"},
		{"STMKIT_TELEMETRY_OTLP_ENDPOINT", "telemetry.otlp_endpoint"},
	}
	for _, tt := range tests {
		if got := l.envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG_LEVEL", "warn")
	l := NewLoader(WithEnvPrefix("MYAPP_"))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoader_LoadAgain(t *testing.T) {
	path := writeFile(t, "log:\n  level: info\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("log:\n  level: error\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q after reload, want error", cfg.Log.Level)
	}
	if len(l.All()) == 0 {
		t.Error("All() is empty after Load()")
	}
	if got := l.GetInt("stm.max_attempts"); got != 0 {
		t.Errorf("GetInt(stm.max_attempts) = %d, want 0", got)
	}
}
