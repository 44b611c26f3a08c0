package llms

import "time"

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

type Config struct {
	Provider Provider      `env:"LLM_PROVIDER,default=gemini" validate:"required,oneof=gemini openai ollama"`
	Model    string        `env:"LLM_MODEL,default=gemini-2.0-flash" validate:"required"`
	Timeout  time.Duration `env:"LLM_TIMEOUT,default=60s"`
	CacheTTL time.Duration `env:"LLM_CACHE_TTL,default=1h"`

	// Provider specific configurations
	GeminiAPIKey      string `env:"GEMINI_API_KEY,default="`
	GeminiBaseURL     string `env:"GEMINI_BASE_URL,default="`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY,default="`
	OllamaBaseURL     string `env:"OLLAMA_BASE_URL,default=http://localhost:11434"`
	OllamaContextSize int    `env:"OLLAMA_CONTEXT_SIZE,default=32768"` // context window size in tokens
}
