package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cadence/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CADENCE_NTFY_TOPIC", "")
	t.Setenv("CADENCE_OUTPUT_DIR", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "Music", "cadence"); cfg.Paths.OutputDir != want {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "cadence"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if want := filepath.Join(cfg.Paths.StateDir, "work"); cfg.Conversion.WorkDir != want {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Conversion.WorkDir, want)
	}
	if cfg.Conversion.DefaultFormat != "m4a" {
		t.Fatalf("expected m4a default format, got %q", cfg.Conversion.DefaultFormat)
	}
	if cfg.BitrateFor("m4a") != "256k" || cfg.BitrateFor("mp3") != "128k" || cfg.BitrateFor("opus") != "128k" {
		t.Fatalf("unexpected default bitrates: %+v", cfg.Conversion)
	}
	if cfg.WakeLock.Provider != "login1" {
		t.Fatalf("expected login1 wake lock provider, got %q", cfg.WakeLock.Provider)
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected notifications disabled by default, got %q", cfg.Notifications.NtfyTopic)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CADENCE_NTFY_TOPIC", "")
	t.Setenv("CADENCE_OUTPUT_DIR", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
output_dir = "~/converted"
state_dir = "~/state"

[conversion]
default_format = "OPUS"
opus_bitrate = "96K"

[wake_lock]
provider = "none"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q to be used, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "converted") {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "cadence", "logs") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
	if cfg.Conversion.DefaultFormat != "opus" {
		t.Fatalf("expected normalized opus format, got %q", cfg.Conversion.DefaultFormat)
	}
	if cfg.BitrateFor("opus") != "96k" {
		t.Fatalf("expected normalized opus bitrate, got %q", cfg.BitrateFor("opus"))
	}
	if cfg.WakeLock.Provider != "none" {
		t.Fatalf("expected none provider, got %q", cfg.WakeLock.Provider)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestLoadAppliesEnvFileAndOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CADENCE_OUTPUT_DIR", "")
	// Pre-register so t.Setenv restores the variable after godotenv sets it.
	t.Setenv("CADENCE_NTFY_TOPIC", "")
	if err := os.Unsetenv("CADENCE_NTFY_TOPIC"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}

	dir := t.TempDir()
	envPath := filepath.Join(dir, "cadence.env")
	if err := os.WriteFile(envPath, []byte("CADENCE_NTFY_TOPIC=https://ntfy.example/topic\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	configPath := filepath.Join(dir, "config.toml")
	content := "[paths]\nenv_file = \"" + filepath.ToSlash(envPath) + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/topic" {
		t.Fatalf("expected ntfy topic from env file, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"format", "[conversion]\ndefault_format = \"flac\"\n", "conversion.default_format"},
		{"bitrate", "[conversion]\nmp3_bitrate = \"fast\"\n", "conversion.mp3_bitrate"},
		{"wake lock", "[wake_lock]\nprovider = \"caffeinate\"\n", "wake_lock.provider"},
		{"log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"retention", "[logging]\nretention_days = -1\n", "logging.retention_days"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Conversion.DefaultFormat != "m4a" {
		t.Fatalf("unexpected sample default format %q", decoded.Conversion.DefaultFormat)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Conversion.WorkDir = filepath.Join(base, "work")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Conversion.WorkDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist (err=%v)", dir, err)
		}
	}
}
