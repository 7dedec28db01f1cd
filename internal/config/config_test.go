package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Formula.LK != 2.0 || cfg.Formula.C1SameCircuit != 1.93 || cfg.Formula.C2DiffCircuit != 2.29 {
		t.Fatalf("unexpected formula defaults: %+v", cfg.Formula)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "linecheck.toml")
	data := []byte(`
[circuits]
group_1 = [1, 2, 3]
group_2 = [4, 5, 6]

[paths]
input_dir = "/data/exports"

[formula]
lk = 2.5
weather_celsius = 15
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, info, err := LoadConfigWithInfo(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !info.Loaded {
		t.Fatalf("expected loaded=true")
	}
	if cfg.Formula.LK != 2.5 {
		t.Fatalf("lk=%v, want 2.5", cfg.Formula.LK)
	}
	if len(cfg.Circuits.Group1) != 3 || cfg.Circuits.Group1[0] != 1 {
		t.Fatalf("group_1=%v", cfg.Circuits.Group1)
	}
	if cfg.Formula.WeatherCelsius != 15 {
		t.Fatalf("weather_celsius=%d, want 15", cfg.Formula.WeatherCelsius)
	}
	// 未配置的字段保持默认值
	if cfg.Formula.C2DiffCircuit != 2.29 {
		t.Fatalf("c2 default lost: %v", cfg.Formula.C2DiffCircuit)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "linecheck.yaml")
	data := []byte("sheets:\n  phase_earth_wire: Result_EW\nhistory:\n  db_path: runs.db\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Sheets.PhaseEarthWire != "Result_EW" {
		t.Fatalf("phase_earth_wire=%q", cfg.Sheets.PhaseEarthWire)
	}
	if cfg.Sheets.PhasePhase != "Result_Dist_Ph-Ph (10ºC)" {
		t.Fatalf("phase_phase default lost: %q", cfg.Sheets.PhasePhase)
	}
}

func TestLoadConfig_RejectsOverlappingCircuits(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.toml")
	data := []byte("[circuits]\ngroup_1 = [41, 42]\ngroup_2 = [42, 44]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for overlapping circuit groups")
	}
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	if got := ResolvePath("/data", "out.xlsx"); got != filepath.Join("/data", "out.xlsx") {
		t.Fatalf("relative: %q", got)
	}
	if got := ResolvePath("/data", "/abs/out.xlsx"); got != "/abs/out.xlsx" {
		t.Fatalf("absolute: %q", got)
	}
}

func TestInputDirOr(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if _, err := cfg.InputDirOr(""); err == nil {
		t.Fatalf("expected error without any input directory")
	}
	cfg.Paths.InputDir = "/data/exports"
	if got, err := cfg.InputDirOr(""); err != nil || got != "/data/exports" {
		t.Fatalf("fallback: got %q, %v", got, err)
	}
	if got, err := cfg.InputDirOr("/cli/dir"); err != nil || got != "/cli/dir" {
		t.Fatalf("argument should win: got %q, %v", got, err)
	}
}
