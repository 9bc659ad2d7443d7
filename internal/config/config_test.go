package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("PDF_SECTIONS_DB_PATH", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("PDF_SECTIONS_SAMPLE_PAGES", "")
	t.Setenv("PDF_SECTIONS_SAMPLE_CHARS", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if filepath.Base(cfg.DBPath) != "pdf-sections.db" {
		t.Errorf("Unexpected default DB path: %s", cfg.DBPath)
	}
	if cfg.OpenAIModel != defaultModel {
		t.Errorf("Expected model %s, got %s", defaultModel, cfg.OpenAIModel)
	}
	if cfg.SamplePages != 10 || cfg.SampleChars != 1000 {
		t.Errorf("Unexpected sample defaults: %d pages, %d chars", cfg.SamplePages, cfg.SampleChars)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PDF_SECTIONS_DB_PATH", "/tmp/x.db")
	t.Setenv("PDF_SECTIONS_EXPORT_DIR", "/tmp/out")
	t.Setenv("PDF_SECTIONS_SAMPLE_PAGES", "4")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.DBPath != "/tmp/x.db" || cfg.ExportDir != "/tmp/out" || cfg.SamplePages != 4 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
}

func TestFromEnv_LogConfig(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "file")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE_PATH", "/tmp/pdf-sections.log")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Log.Output != "file" || cfg.Log.Level != "debug" || cfg.Log.FilePath != "/tmp/pdf-sections.log" {
		t.Errorf("Unexpected log config: %+v", cfg.Log)
	}
}

func TestFromEnv_InvalidInt(t *testing.T) {
	for _, value := range []string{"abc", "0", "-3"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("PDF_SECTIONS_SAMPLE_CHARS", value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("Expected error for PDF_SECTIONS_SAMPLE_CHARS=%q", value)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PDF_SECTIONS_EXPORT_DIR=/from/dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	// Registered so the value loaded from .env is cleared after the test.
	t.Setenv("PDF_SECTIONS_EXPORT_DIR", "")
	os.Unsetenv("PDF_SECTIONS_EXPORT_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ExportDir != "/from/dotenv" {
		t.Errorf("Expected export dir from .env, got %q", cfg.ExportDir)
	}
}

func TestLoad_MissingDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load(); err != nil {
		t.Fatalf("Missing .env should not fail: %v", err)
	}
}
