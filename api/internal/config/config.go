package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	DefaultLLM   string

	DefaultLanguage     string
	IllustrationBaseURL string
	PromptDir           string
	MaxImageBytes       int64

	DatabaseURL      string
	CacheMaxAge      time.Duration
	WebhookURL       string
	TelegramBotToken string

	R2Endpoint      string
	R2AccessKey     string
	R2SecretKey     string
	R2Bucket        string
	R2PublicBaseURL string
}

// MustEnv aborts the process when k is unset. Binaries call it for the
// secrets they actually need.
func MustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt64(k string, def int64) int64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
		log.Printf("config: bad %s=%q, using %d", k, v, def)
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("config: bad %s=%q, using %s", k, v, def)
	}
	return def
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		DefaultLLM:   getEnv("DEFAULT_LLM", "gemini"),

		DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "English"),
		IllustrationBaseURL: getEnv("ILLUSTRATION_BASE_URL", "https://image.pollinations.ai/prompt/"),
		PromptDir:           getEnv("PROMPT_DIR", ""),
		MaxImageBytes:       getInt64("MAX_IMAGE_BYTES", 15<<20),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		CacheMaxAge:      getDuration("CACHE_MAX_AGE", 30*24*time.Hour),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		R2Endpoint:      getEnv("R2_ENDPOINT", ""),
		R2AccessKey:     getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey:     getEnv("R2_SECRET_KEY", ""),
		R2Bucket:        getEnv("R2_BUCKET_NAME", ""),
		R2PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
	}
}

// HasR2 reports whether every R2 setting needed by the S3 photo store is present.
func (c *Config) HasR2() bool {
	return c.R2Endpoint != "" && c.R2AccessKey != "" && c.R2SecretKey != "" && c.R2Bucket != ""
}
