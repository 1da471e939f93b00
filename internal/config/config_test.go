package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Prompt != "> " {
		t.Fatalf("expected default prompt, got %q", cfg.Prompt)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := "prompt: \"nsh$ \"\nhistory_size: 10\ndisable_banner: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Prompt != "nsh$ " || cfg.HistorySize != 10 || !cfg.DisableBanner {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_DefaultFilenameInCwd(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	content := "prompt: \"custom> \"\n"
	if err := os.WriteFile(filepath.Join(dir, ".nshrc.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Prompt != "custom> " {
		t.Fatalf("expected overridden prompt, got %q", cfg.Prompt)
	}
}
