package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// RoleParams holds the sampling parameters for one LLM role. The answer
// role always has explicit values; the summarizer and judge roles default
// to the answer role's model unless overridden.
type RoleParams struct {
	Model       string  `validate:"required"`
	Temperature float64 `validate:"gte=0,lte=2"`
	MaxTokens   int     `validate:"gt=0"`
	Timeout     time.Duration
}

// Config holds all configuration for the application.
type Config struct {
	Addr string `validate:"required"`

	// Assistant addressing.
	AssistantUsername  string `validate:"required"`
	AssistantShorthand string `validate:"required"`

	// Ollama backend.
	LLMHost string `validate:"required"`
	LLMPort string `validate:"required"`

	// Per-role generation parameters.
	Answer     RoleParams
	Summarizer RoleParams
	Judge      RoleParams

	// Number of trailing history messages included as pipeline context.
	ContextHistorySize int `validate:"gt=0"`

	// Optional directory of prompt template overrides.
	PromptsDir string
}

// BackendURL returns the base URL of the Ollama-compatible backend.
func (c *Config) BackendURL() string {
	return fmt.Sprintf("http://%s:%s", c.LLMHost, c.LLMPort)
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	answer := RoleParams{
		Model:       getEnv("LLM_MODEL", "llama3"),
		Temperature: getEnvFloat("LLM_TEMPERATURE", 0.5),
		MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 150),
		Timeout:     getEnvDuration("LLM_TIMEOUT", 60*time.Second),
	}

	cfg := &Config{
		Addr:               getEnv("ADDR", ":8000"),
		AssistantUsername:  getEnv("AKASHVANI_USERNAME", "Akashvani"),
		AssistantShorthand: getEnv("AKASHVANI_SHORTHAND", "@av"),
		LLMHost:            getEnv("LLM_HOST", "localhost"),
		LLMPort:            getEnv("LLM_PORT", "11434"),
		Answer:             answer,
		Summarizer: RoleParams{
			Model:       getEnv("SUMMARIZER_MODEL", answer.Model),
			Temperature: getEnvFloat("SUMMARIZER_TEMPERATURE", 0.3),
			MaxTokens:   getEnvInt("SUMMARIZER_MAX_TOKENS", answer.MaxTokens),
			Timeout:     getEnvDuration("SUMMARIZER_TIMEOUT", 30*time.Second),
		},
		Judge: RoleParams{
			Model:       getEnv("JUDGE_MODEL", answer.Model),
			Temperature: getEnvFloat("JUDGE_TEMPERATURE", 0.1),
			MaxTokens:   getEnvInt("JUDGE_MAX_TOKENS", 200),
			Timeout:     getEnvDuration("JUDGE_TIMEOUT", 20*time.Second),
		},
		ContextHistorySize: getEnvInt("LLM_CONTEXT_HISTORY_SIZE", 10),
		PromptsDir:         os.Getenv("PROMPTS_DIR"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
