package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Librarian LibrarianConfig
	Ai        AIConfig
}

type AppConfig struct {
	DataDir     string `validate:"required"`
	Environment string
	LogFilePath string `validate:"required"`
}

type LibrarianConfig struct {
	Topic              string `validate:"required"`
	DebounceSeconds    int    `validate:"gte=0"`
	MaxSummaryChars    int    `validate:"gt=0"`
	TargetSummaryChars int    `validate:"gt=0"`
	TraceCap           int    `validate:"gt=0"`
}

type AIConfig struct {
	Provider      string `validate:"required,oneof=ollama openai"`
	Model         string `validate:"required"`
	OllamaBaseURL string
	OpenAIKey     string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			DataDir:     getEnv("DATA_DIR", "./data"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "librarian.log"),
		},
		Librarian: LibrarianConfig{
			Topic:              getEnv("LIBRARIAN_TOPIC", "fragment.saved"),
			DebounceSeconds:    getEnvAsInt("LIBRARIAN_DEBOUNCE_SECONDS", 2),
			MaxSummaryChars:    getEnvAsInt("SUMMARY_MAX_CHARS", 4000),
			TargetSummaryChars: getEnvAsInt("SUMMARY_TARGET_CHARS", 3000),
			TraceCap:           getEnvAsInt("LIBRARIAN_TRACE_CAP", 50),
		},
		Ai: AIConfig{
			Provider:      getEnv("LLM_PROVIDER", "ollama"),
			Model:         getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
