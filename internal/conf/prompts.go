package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt and message templates loaded from YAML
type PromptsConfig struct {
	Assistant AssistantPrompts `yaml:"assistant"`
	Notify    NotifyPrompts    `yaml:"notify"`
}

// AssistantPrompts contains the orchestrator's system instruction.
// {{date}} is replaced with the current date at turn time.
type AssistantPrompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// NotifyPrompts contains the outbound notification templates.
// {{summary}} is replaced with the appointment summary.
type NotifyPrompts struct {
	ReminderTemplate string `yaml:"reminder_template"`
	FollowUpTemplate string `yaml:"follow_up_template"`
}

// LoadPromptsConfig loads prompt configuration from a YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"/etc/calendar-agent/prompts.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil {
			data = b
			break
		}
	}

	if data == nil {
		return DefaultPromptsConfig(), nil
	}

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	config.fillDefaults()
	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Assistant.SystemPrompt == "" {
		c.Assistant.SystemPrompt = defaults.Assistant.SystemPrompt
	}
	if c.Notify.ReminderTemplate == "" {
		c.Notify.ReminderTemplate = defaults.Notify.ReminderTemplate
	}
	if c.Notify.FollowUpTemplate == "" {
		c.Notify.FollowUpTemplate = defaults.Notify.FollowUpTemplate
	}
}

// DefaultPromptsConfig returns the default prompt configuration
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Assistant: AssistantPrompts{
			SystemPrompt: `Você é um assistente de agendamento do Samuel.
Hoje é {{date}}.
Seu objetivo é marcar reuniões no Google Calendar.
Siga EXATAMENTE estes passos:
1. Sempre verifique a disponibilidade usando 'check_availability' antes de qualquer outra coisa.
2. Se o horário solicitado estiver livre, use 'book_appointment' para marcar.
3. Se estiver ocupado, sugira outro horário.
Use 'reason' para registrar seu raciocínio antes de decidir.
Responda sempre em Português de forma gentil e curta.
Importante: Os agendamentos são feitos no fuso horário America/Sao_Paulo (Brasília).`,
		},
		Notify: NotifyPrompts{
			ReminderTemplate: "🔔 *Lembrete:* Sua reunião '{{summary}}' começa em 30 minutos!",
			FollowUpTemplate: "👋 Olá! Sua reunião '{{summary}}' terminou. Como foi? Se precisar de algo, estou aqui.",
		},
	}
}
