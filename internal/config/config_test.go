package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mathtutor")
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Addr)
	}
	if cfg.WebDir != "web" {
		t.Errorf("expected default web dir, got %s", cfg.WebDir)
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("expected default OCR language, got %s", cfg.OCRLanguage)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mathtutor")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ADDR", ":9999")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("expected addr override, got %s", cfg.Addr)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("expected model override, got %s", cfg.OpenAIModel)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OPENAI_API_KEY", "test-key")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/mathtutor")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("expected error when OPENAI_API_KEY is missing")
	}
}
