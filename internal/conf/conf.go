package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// OpenAI configuration
	OpenAI OpenAIConfig

	// Evolution API (WhatsApp) configuration
	Evolution EvolutionConfig

	// Google Calendar configuration
	Google GoogleConfig

	// History store configuration
	History HistoryConfig

	// Notification scheduler configuration
	Notify NotifyConfig

	// Server configuration
	Server ServerConfig

	// Timezone all bookings and notification checks happen in
	Timezone string

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// Debug mode
	Debug bool

	// promptsErr holds a prompts.yaml load failure until Validate reports it
	promptsErr error
}

// OpenAIConfig contains completion provider configuration
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// EvolutionConfig contains Evolution API configuration
type EvolutionConfig struct {
	APIURL   string
	APIKey   string
	Instance string
}

// GoogleConfig contains Google Calendar configuration
type GoogleConfig struct {
	CredentialsPath string
	TokenPath       string
	CalendarID      string
}

// HistoryConfig contains history store configuration
type HistoryConfig struct {
	DBPath string
	Limit  int // messages replayed into model context
}

// NotifyConfig contains notification scheduler configuration
type NotifyConfig struct {
	Interval time.Duration
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	ListenAddr string
	AdminAddr  string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("HISTORY_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".calendar-agent", "history.db")
	}

	historyLimit := 10
	if val := os.Getenv("HISTORY_LIMIT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			historyLimit = parsed
		}
	}

	notifyInterval := 60 * time.Second
	if val := os.Getenv("NOTIFY_INTERVAL_SECONDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			notifyInterval = time.Duration(parsed) * time.Second
		}
	}

	timezone := os.Getenv("TIMEZONE")
	if timezone == "" {
		timezone = "America/Sao_Paulo"
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8000"
	}

	adminAddr := os.Getenv("ADMIN_ADDR")
	if adminAddr == "" {
		adminAddr = "127.0.0.1:8787"
	}

	credentialsPath := os.Getenv("GOOGLE_CREDENTIALS_PATH")
	if credentialsPath == "" {
		credentialsPath = "credentials.json"
	}

	tokenPath := os.Getenv("GOOGLE_TOKEN_PATH")
	if tokenPath == "" {
		tokenPath = "token.json"
	}

	prompts, promptsErr := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))
	if prompts == nil {
		prompts = DefaultPromptsConfig()
	}

	return &Config{
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   os.Getenv("OPENAI_MODEL"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Evolution: EvolutionConfig{
			APIURL:   os.Getenv("EVOLUTION_API_URL"),
			APIKey:   os.Getenv("EVOLUTION_API_KEY"),
			Instance: os.Getenv("EVOLUTION_INSTANCE_NAME"),
		},
		Google: GoogleConfig{
			CredentialsPath: credentialsPath,
			TokenPath:       tokenPath,
			CalendarID:      os.Getenv("GOOGLE_CALENDAR_ID"),
		},
		History: HistoryConfig{
			DBPath: dbPath,
			Limit:  historyLimit,
		},
		Notify: NotifyConfig{
			Interval: notifyInterval,
		},
		Server: ServerConfig{
			ListenAddr: listenAddr,
			AdminAddr:  adminAddr,
		},
		Timezone:   timezone,
		Prompts:    prompts,
		Debug:      os.Getenv("DEBUG") == "true",
		promptsErr: promptsErr,
	}
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "required"}
	}
	if c.Evolution.APIURL == "" || c.Evolution.APIKey == "" || c.Evolution.Instance == "" {
		return &ConfigError{Field: "EVOLUTION_API_URL/EVOLUTION_API_KEY/EVOLUTION_INSTANCE_NAME", Message: "required"}
	}
	if _, err := c.Location(); err != nil {
		return &ConfigError{Field: "TIMEZONE", Message: "unknown timezone " + c.Timezone}
	}
	if c.promptsErr != nil {
		return &ConfigError{Field: "PROMPTS_CONFIG_PATH", Message: c.promptsErr.Error()}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
