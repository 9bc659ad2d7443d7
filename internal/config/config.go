// Package config reads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
)

const (
	defaultSamplePages = 10
	defaultSampleChars = 1000
	defaultModel       = "gpt-5-mini"
)

// Config holds everything the server needs at startup.
type Config struct {
	DBPath      string
	ExportDir   string
	OpenAIKey   string
	OpenAIModel string
	ZoteroKey   string
	ZoteroLib   string
	SamplePages int
	SampleChars int
	// Log is read from LOG_OUTPUT, LOG_LEVEL and LOG_FILE_PATH.
	Log logger.LogConfig
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:      os.Getenv("PDF_SECTIONS_DB_PATH"),
		ExportDir:   os.Getenv("PDF_SECTIONS_EXPORT_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		ZoteroKey:   os.Getenv("ZOTERO_API_KEY"),
		ZoteroLib:   os.Getenv("ZOTERO_LIBRARY_ID"),
		Log: logger.LogConfig{
			Output:   os.Getenv("LOG_OUTPUT"),
			Level:    os.Getenv("LOG_LEVEL"),
			FilePath: os.Getenv("LOG_FILE_PATH"),
		},
	}

	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, ".pdf-sections-mcp", "pdf-sections.db")
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = defaultModel
	}

	var err error
	if cfg.SamplePages, err = positiveInt("PDF_SECTIONS_SAMPLE_PAGES", defaultSamplePages); err != nil {
		return nil, err
	}
	if cfg.SampleChars, err = positiveInt("PDF_SECTIONS_SAMPLE_CHARS", defaultSampleChars); err != nil {
		return nil, err
	}

	return cfg, nil
}

func positiveInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
