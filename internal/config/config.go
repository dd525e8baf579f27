package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Provider names accepted in provider.name
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

const groqKeyPrefix = "GROQ_API_KEY"

// DefaultModels is the model each provider uses when none is configured for it.
var DefaultModels = map[string]string{
	ProviderGroq:   "llama-3.1-8b-instant",
	ProviderGemini: "gemini-1.5-flash",
	ProviderOllama: "llama3.1",
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Provider   ProviderConfig   `yaml:"provider"`
	Generation CompletionConfig `yaml:"generation"`
	Extraction CompletionConfig `yaml:"extraction"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `yaml:"mysql"`
	Redis RedisConfig `yaml:"redis"`
}

type MySQLConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	PoolSize   int           `yaml:"pool_size"`
	ListKey    string        `yaml:"list_key"`
	MaxEntries int64         `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

// ProviderConfig selects and configures the completion provider.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
	Groq    GroqConfig    `yaml:"groq"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Ollama  OllamaConfig  `yaml:"ollama"`
}

type GroqConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKeys []string `yaml:"api_keys"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// CompletionConfig holds the fixed model parameters for one kind of call.
type CompletionConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// envOverrides lists the environment variables that win over the YAML file.
type envOverrides struct {
	Provider        string        `envconfig:"RELAY_PROVIDER"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT"`
	GroqBaseURL     string        `envconfig:"GROQ_BASE_URL"`
	GeminiAPIKey    string        `envconfig:"GEMINI_API_KEY"`
	OllamaHost      string        `envconfig:"OLLAMA_HOST"`
	Port            int           `envconfig:"PORT"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	MySQLPassword   string        `envconfig:"MYSQL_PASSWORD"`
	OTLPEndpoint    string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	GenerationModel string        `envconfig:"GENERATION_MODEL"`
	ExtractionModel string        `envconfig:"EXTRACTION_MODEL"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3001,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 620 * time.Second,
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				Host:            "localhost",
				Port:            3306,
				Database:        "love_story",
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: time.Hour,
			},
			Redis: RedisConfig{
				Host:       "localhost",
				Port:       6379,
				PoolSize:   10,
				ListKey:    "turns:recent",
				MaxEntries: 1000,
				TTL:        24 * time.Hour,
			},
		},
		Provider: ProviderConfig{
			Name:    ProviderGroq,
			Timeout: 600 * time.Second,
			Groq:    GroqConfig{BaseURL: "https://api.groq.com/openai/v1"},
			Ollama:  OllamaConfig{BaseURL: "http://localhost:11434"},
		},
		Generation: CompletionConfig{
			Model:       DefaultModels[ProviderGroq],
			Temperature: 0.8,
			MaxTokens:   1024,
		},
		Extraction: CompletionConfig{
			Model:       DefaultModels[ProviderGroq],
			Temperature: 0.1,
		},
		Tracing: TracingConfig{
			ServiceName: "love-story-relay",
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads configuration from a YAML file on top of Default, then applies
// .env and environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg, os.Environ()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config, environ []string) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.Provider != "" {
		cfg.Provider.Name = env.Provider
	}
	if env.ProviderTimeout > 0 {
		cfg.Provider.Timeout = env.ProviderTimeout
	}
	if env.GroqBaseURL != "" {
		cfg.Provider.Groq.BaseURL = env.GroqBaseURL
	}
	if env.GeminiAPIKey != "" {
		cfg.Provider.Gemini.APIKey = env.GeminiAPIKey
	}
	if env.OllamaHost != "" {
		cfg.Provider.Ollama.BaseURL = env.OllamaHost
	}
	if env.Port > 0 {
		cfg.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.RedisPassword != "" {
		cfg.Database.Redis.Password = env.RedisPassword
	}
	if env.MySQLPassword != "" {
		cfg.Database.MySQL.Password = env.MySQLPassword
	}
	if env.OTLPEndpoint != "" {
		cfg.Tracing.Endpoint = env.OTLPEndpoint
	}

	if keys := groqKeysFromEnv(environ); len(keys) > 0 {
		cfg.Provider.Groq.APIKeys = keys
	}

	cfg.applyProviderModels()
	if env.GenerationModel != "" {
		cfg.Generation.Model = env.GenerationModel
	}
	if env.ExtractionModel != "" {
		cfg.Extraction.Model = env.ExtractionModel
	}

	return nil
}

// applyProviderModels swaps the Groq default model for the selected provider's
// default. Models set explicitly to anything else are left alone.
func (c *Config) applyProviderModels() {
	model, ok := DefaultModels[c.Provider.Name]
	if !ok {
		return
	}
	groqModel := DefaultModels[ProviderGroq]
	for _, params := range []*CompletionConfig{&c.Generation, &c.Extraction} {
		if params.Model == "" || params.Model == groqModel {
			params.Model = model
		}
	}
}

// groqKeysFromEnv collects GROQ_API_KEY and every GROQ_API_KEY_* variable,
// sorted by variable name so rotation order is stable.
func groqKeysFromEnv(environ []string) []string {
	found := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if name == groqKeyPrefix || strings.HasPrefix(name, groqKeyPrefix+"_") {
			found[name] = value
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, found[name])
	}
	return keys
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderGroq, ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("unsupported provider: %q", c.Provider.Name)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.Provider.Timeout)
	}
	if c.Generation.Model == "" || c.Extraction.Model == "" {
		return errors.New("generation and extraction models are required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// HasCredentials reports whether the selected provider has what it needs to authenticate.
func (c *Config) HasCredentials() bool {
	switch c.Provider.Name {
	case ProviderGroq:
		return len(c.Provider.Groq.APIKeys) > 0
	case ProviderGemini:
		return c.Provider.Gemini.APIKey != ""
	default:
		return true
	}
}
