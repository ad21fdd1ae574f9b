package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"

	DefaultHFBaseURL   = "https://api-inference.huggingface.co"
	DefaultHFModel     = "microsoft/DialoGPT-large"
	DefaultGeminiModel = "gemini-1.5-flash-latest"
)

// Config holds process configuration. YAML keys mirror the env names.
type Config struct {
	DatabaseURL       string `yaml:"databaseURL"`
	DBName            string `yaml:"dbName"`
	HTTPPort          string `yaml:"httpPort"`
	LogLevel          string `yaml:"logLevel"`
	InferenceProvider string `yaml:"inferenceProvider"`
	HFAPIKey          string `yaml:"hfAPIKey"`
	HFBaseURL         string `yaml:"hfBaseURL"`
	HFModel           string `yaml:"hfModel"`
	GeminiAPIKey      string `yaml:"geminiAPIKey"`
	GeminiModel       string `yaml:"geminiModel"`
}

// InferenceAPIKey returns the credential of the selected inference provider.
func (c Config) InferenceAPIKey() string {
	if c.InferenceProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.HFAPIKey
}

func defaults() Config {
	return Config{
		DatabaseURL:       "bitsafe.db",
		DBName:            "bitsafe",
		HTTPPort:          "8001",
		LogLevel:          "info",
		InferenceProvider: ProviderHuggingFace,
		HFBaseURL:         DefaultHFBaseURL,
		HFModel:           DefaultHFModel,
		GeminiModel:       DefaultGeminiModel,
	}
}

// Load builds the config from defaults, an optional YAML file at path and the
// environment (a .env file is loaded first when present). Env wins over YAML.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.InferenceProvider = strings.ToLower(strings.TrimSpace(getEnv("INFERENCE_PROVIDER", cfg.InferenceProvider)))
	cfg.HFAPIKey = getEnv("HF_API_KEY", cfg.HFAPIKey)
	cfg.HFBaseURL = getEnv("HF_BASE_URL", cfg.HFBaseURL)
	cfg.HFModel = getEnv("HF_MODEL", cfg.HFModel)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if cfg.DBName == "" {
		return errors.New("config: DB_NAME is required")
	}
	if cfg.HTTPPort == "" {
		return errors.New("config: HTTP_PORT is required")
	}
	switch cfg.InferenceProvider {
	case ProviderHuggingFace, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown INFERENCE_PROVIDER %q", cfg.InferenceProvider)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
