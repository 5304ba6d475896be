package schedconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("num_workers: 16\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := Default(8)
	cfg, err := Load(path, base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumWorkers != 16 {
		t.Errorf("NumWorkers = %d, want 16", cfg.NumWorkers)
	}
	if cfg.ColoringConstantK != DefaultColoringConstantK {
		t.Errorf("ColoringConstantK = %d, want unchanged default %d", cfg.ColoringConstantK, DefaultColoringConstantK)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want unchanged default %q", cfg.LogLevel, "info")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Default(4))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LPLIB_NPROC", "12")
	t.Setenv("LPLIB_LOG_LEVEL", "debug")

	cfg := ApplyEnv(Default(4))
	if cfg.NumWorkers != 12 {
		t.Errorf("NumWorkers = %d, want 12", cfg.NumWorkers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestApplyEnvIgnoresInvalidNproc(t *testing.T) {
	t.Setenv("LPLIB_NPROC", "not-a-number")
	cfg := ApplyEnv(Default(4))
	if cfg.NumWorkers != 4 {
		t.Errorf("NumWorkers = %d, want unchanged 4", cfg.NumWorkers)
	}
}
