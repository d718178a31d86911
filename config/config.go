// Package config provides application configuration from environment
// variables, an optional .env file, and optional layered YAML files.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/provider"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. API keys are environment-only
// and never read from YAML files.
type Config struct {
	DefaultProvider string  `yaml:"default_provider"`
	DefaultModel    string  `yaml:"default_model"`
	MaxHistory      int     `yaml:"max_history"`
	Temperature     float64 `yaml:"temperature"`
	ConversationDir string  `yaml:"conversation_dir"`
	Port            string  `yaml:"port"`

	OllamaBaseURL string `yaml:"ollama_base_url"`
	OpenAIAPIBase string `yaml:"openai_api_base"`

	OpenAIAPIKey      string `yaml:"-"`
	HuggingFaceAPIKey string `yaml:"-"`
	AnthropicAPIKey   string `yaml:"-"`
	GeminiAPIKey      string `yaml:"-"`
}

// LoadConfig builds the configuration in three layers: environment variables
// (with a .env file loaded first if present), then the user-level YAML file,
// then the project-level YAML file, each layer overriding the one before for
// the fields it sets. YAML files therefore win over environment variables:
// the environment supplies machine-wide defaults and credentials, while a
// checked-in .palaver/config.yaml pins per-project settings. API keys are
// exempt, being environment-only.
func LoadConfig() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		DefaultProvider: getEnv("DEFAULT_PROVIDER", "ollama"),
		DefaultModel:    getEnv("DEFAULT_MODEL", "llama3"),
		MaxHistory:      getEnvInt("MAX_HISTORY_LENGTH", 10),
		Temperature:     getEnvFloat("TEMPERATURE", 0.7),
		ConversationDir: getEnv("CONVERSATION_DIR", filepath.Join(".palaver", "conversations")),
		Port:            getEnv("PORT", "8080"),

		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OpenAIAPIBase: getEnv("OPENAI_API_BASE", ""),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
	}

	// User-level config first, project-level overriding it.
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".palaver", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			if err := loadFromFile(userPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectPath := filepath.Join(wd, ".palaver", "config.yaml")
	if _, err := os.Stat(projectPath); err == nil {
		if err := loadFromFile(projectPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the fields present in the YAML, which gives
	// the simple layered merge we want.
	return yaml.Unmarshal(data, cfg)
}

// ProviderSettings maps the configuration onto the provider factory inputs.
func (c *Config) ProviderSettings() provider.Settings {
	return provider.Settings{
		OllamaBaseURL:     c.OllamaBaseURL,
		OpenAIAPIKey:      c.OpenAIAPIKey,
		OpenAIBaseURL:     c.OpenAIAPIBase,
		HuggingFaceAPIKey: c.HuggingFaceAPIKey,
		AnthropicAPIKey:   c.AnthropicAPIKey,
		GeminiAPIKey:      c.GeminiAPIKey,
		Temperature:       c.Temperature,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
