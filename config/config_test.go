package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.NumberOfWorkers != 1 {
		t.Errorf("NumberOfWorkers = %d, want 1", cfg.NumberOfWorkers)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relic.yaml")
	contents := `
maxRequestBodyBytes: 1048576
strictHeaders: true
sanitizeErrorMessages: true
numberOfWorkers: 4
hostBasedRouting: true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxRequestBodyBytes != 1048576 {
		t.Errorf("MaxRequestBodyBytes = %d", cfg.MaxRequestBodyBytes)
	}
	if !cfg.StrictHeaders || !cfg.SanitizeErrorMessages || !cfg.HostBasedRouting {
		t.Errorf("boolean fields not parsed correctly: %+v", cfg)
	}
	if cfg.NumberOfWorkers != 4 {
		t.Errorf("NumberOfWorkers = %d, want 4", cfg.NumberOfWorkers)
	}
}

func TestLoadAppliesDefaultWorkerCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relic.yaml")
	if err := os.WriteFile(path, []byte("strictHeaders: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NumberOfWorkers != 1 {
		t.Errorf("NumberOfWorkers = %d, want default 1", cfg.NumberOfWorkers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsNegativeBodyLimit(t *testing.T) {
	cfg := Default()
	cfg.MaxRequestBodyBytes = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for negative body limit")
	}
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	cfg := Default()
	cfg.NumberOfWorkers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero workers")
	}
}
