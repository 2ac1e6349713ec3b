package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LLM providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
	ProviderNone       = "none"
)

// History store types.
const (
	StoreMemory     = "memory"
	StorePostgreSQL = "postgresql"
	StoreNone       = "none"
)

const (
	defaultLibraryBaseURL    = "https://api.library.cdisc.org/api"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "mistralai/mistral-small-3.1-24b-instruct:free"
	defaultGeminiModel       = "gemini-2.5-flash-preview-09-2025"
)

// Config is the process-wide configuration. It is loaded once at startup and
// passed explicitly to every constructor.
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	LLM     LLMConfig     `mapstructure:"llm"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
	Web     WebConfig     `mapstructure:"web"`
}

// LibraryConfig configures the CDISC Library API client.
type LibraryConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the language-model completion provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Referer     string        `mapstructure:"referer"`
	Title       string        `mapstructure:"title"`
}

// HistoryConfig selects where processed queries are recorded.
type HistoryConfig struct {
	Store            string `mapstructure:"store"`
	ConnectionString string `mapstructure:"connection_string"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type WebConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads .env, then the optional YAML file (configFile, or
// codelist-genius.yaml in ./ or ./configs), then CG_* environment variables.
// The original variable names (CDISC_API_KEY, OPENROUTER_API_KEY,
// GEMINI_API_KEY, GOOGLE_API_KEY, DB_CONN_STRING) are honoured too.
func Load(configFile string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("codelist-genius")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("CG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("library.api_key", "CG_LIBRARY_API_KEY", "CDISC_API_KEY")
	_ = v.BindEnv("history.connection_string", "CG_HISTORY_CONNECTION_STRING", "DB_CONN_STRING")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyProviderDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("library.base_url", defaultLibraryBaseURL)
	v.SetDefault("library.api_key", "")
	v.SetDefault("library.timeout", 30*time.Second)

	v.SetDefault("llm.provider", ProviderOpenRouter)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.referer", "https://localhost")
	v.SetDefault("llm.title", "CDISC AI Assistant")

	v.SetDefault("history.store", StoreMemory)
	v.SetDefault("history.connection_string", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("web.addr", ":5001")
}

// applyProviderDefaults fills model, base URL and API key from the
// provider-specific defaults and environment variables.
func applyProviderDefaults(cfg *Config) {
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.History.Store = strings.ToLower(strings.TrimSpace(cfg.History.Store))

	switch cfg.LLM.Provider {
	case ProviderOpenRouter:
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = defaultOpenRouterModel
		}
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = defaultOpenRouterBaseURL
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
	case ProviderGemini:
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = defaultGeminiModel
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = geminiAPIKey()
		}
	}
}

// geminiAPIKey looks for GEMINI_API_KEY first, then falls back to GOOGLE_API_KEY.
func geminiAPIKey() string {
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		return apiKey
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// Validate checks enumerations and cross-field requirements.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderGemini, ProviderMock, ProviderNone:
	default:
		return fmt.Errorf("unknown llm.provider %q (want openrouter, gemini, mock or none)", c.LLM.Provider)
	}

	switch c.History.Store {
	case StoreMemory, StoreNone:
	case StorePostgreSQL:
		if c.History.ConnectionString == "" {
			return fmt.Errorf("history.store=postgresql requires history.connection_string or DB_CONN_STRING")
		}
	default:
		return fmt.Errorf("unknown history.store %q (want memory, postgresql or none)", c.History.Store)
	}

	if c.Library.BaseURL == "" {
		return fmt.Errorf("library.base_url must not be empty")
	}
	return nil
}

// RequireLibraryKey returns an error when no CDISC Library API key is set.
func (c *Config) RequireLibraryKey() error {
	if c.Library.APIKey == "" {
		return fmt.Errorf("CDISC API key is required. Provide it with --api-key or set CDISC_API_KEY in your .env file")
	}
	return nil
}

// loadEnvFile loads the first .env found in the working directory or the
// project root. A missing file is not an error.
func loadEnvFile() {
	paths := []string{".env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
