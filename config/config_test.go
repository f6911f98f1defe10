package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Output.EmitHex {
		t.Error("Expected EmitHex=true")
	}
	if cfg.Output.EmitListing {
		t.Error("Expected EmitListing=false")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected Level=info, got %s", cfg.Log.Level)
	}
	if !cfg.Log.Color {
		t.Error("Expected Color=true")
	}

	if cfg.Assembler.MaxIncludeDepth != 64 {
		t.Errorf("Expected MaxIncludeDepth=64, got %d", cfg.Assembler.MaxIncludeDepth)
	}
	if cfg.Assembler.UnresolvedShortIsErr {
		t.Error("Expected UnresolvedShortIsErr=false")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "hasm16" && path != "config.toml" {
			t.Errorf("Expected path in hasm16 directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Output.EmitListing = true
	cfg.Log.Level = "debug"
	cfg.Log.Color = false
	cfg.Assembler.MaxIncludeDepth = 8
	cfg.Assembler.UnresolvedShortIsErr = true

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !loaded.Output.EmitListing {
		t.Error("Expected EmitListing=true")
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("Expected Level=debug, got %s", loaded.Log.Level)
	}
	if loaded.Log.Color {
		t.Error("Expected Color=false")
	}
	if loaded.Assembler.MaxIncludeDepth != 8 {
		t.Errorf("Expected MaxIncludeDepth=8, got %d", loaded.Assembler.MaxIncludeDepth)
	}
	if !loaded.Assembler.UnresolvedShortIsErr {
		t.Error("Expected UnresolvedShortIsErr=true")
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if !cfg.Output.EmitHex {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[assembler]
max_include_depth = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
