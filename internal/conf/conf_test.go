package conf

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EVOLUTION_API_URL", "http://localhost:8080")
	t.Setenv("EVOLUTION_API_KEY", "evo-key")
	t.Setenv("EVOLUTION_INSTANCE_NAME", "bot")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadFromEnv_ValidConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PROMPTS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if cfg.Prompts == nil || cfg.Prompts.Assistant.SystemPrompt == "" {
		t.Error("prompts defaults not applied")
	}
}

func TestLoadFromEnv_InvalidPromptsFileFailsValidation(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("assistant: [not: a mapping"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("PROMPTS_CONFIG_PATH", path)

	cfg := LoadFromEnv()

	// A broken prompts file must never leave the config without templates.
	if cfg.Prompts == nil {
		t.Fatal("cfg.Prompts is nil")
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for malformed prompts file")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.Field != "PROMPTS_CONFIG_PATH" {
		t.Errorf("error field = %q", cfgErr.Field)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	cfg := LoadFromEnv()
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing OPENAI_API_KEY")
	}
}
