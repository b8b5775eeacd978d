package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const defaultConfigFile = "agrilink.toml"

type Config struct {
	ListenAddr      string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	PhotoBackend          string
	PhotoPath             string
	AzureConnectionString string
	AzureContainer        string

	Provider        string
	PreferSDK       bool
	ProviderTimeout time.Duration
	RetryBackoff    time.Duration
	PuterBaseURL    string
	PuterAPIKey     string
	PuterModel      string
	ClaudeAPIKey    string
	ClaudeModel     string
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string

	Pricing Pricing
}

// Pricing is the default price table in INR per ton, keyed by crop type.
type Pricing struct {
	Default float64            `toml:"default"`
	Crops   map[string]float64 `toml:"crops"`
}

// fileConfig mirrors the optional TOML file. Environment variables override
// every value it sets.
type fileConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	LogLevel        string   `toml:"log_level"`
	LogFormat       string   `toml:"log_format"`
	LogFile         string   `toml:"log_file"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`

	Database struct {
		Driver string `toml:"driver"`
		Path   string `toml:"path"`
		URL    string `toml:"url"`
	} `toml:"database"`

	Photos struct {
		Backend        string `toml:"backend"`
		Path           string `toml:"path"`
		AzureContainer string `toml:"azure_container"`
	} `toml:"photos"`

	Provider struct {
		Name      string `toml:"name"`
		PreferSDK bool   `toml:"prefer_sdk"`
		Timeout   string `toml:"timeout"`
		Backoff   string `toml:"retry_backoff"`
		PuterURL  string `toml:"puter_base_url"`
		Model     string `toml:"model"`
	} `toml:"provider"`

	Pricing Pricing `toml:"pricing"`
}

// Load reads the optional TOML file named by AGRILINK_CONFIG (or
// agrilink.toml in the working directory when present), applies environment
// overrides and validates the result. Secrets are only read from the
// environment.
func Load() (*Config, error) {
	var fc fileConfig
	path, explicit := os.LookupEnv("AGRILINK_CONFIG")
	if !explicit {
		path = defaultConfigFile
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:            getEnv("LISTEN_ADDR", or(fc.ListenAddr, ":8080")),
		LogLevel:              getEnv("LOG_LEVEL", or(fc.LogLevel, "info")),
		LogFormat:             getEnv("LOG_FORMAT", or(fc.LogFormat, "json")),
		LogFile:               getEnv("LOG_FILE", fc.LogFile),
		DBDriver:              getEnv("DB_DRIVER", or(fc.Database.Driver, "sqlite")),
		DBPath:                getEnv("DB_PATH", or(fc.Database.Path, "/data/agrilink.db")),
		DatabaseURL:           getEnv("DATABASE_URL", fc.Database.URL),
		PhotoBackend:          getEnv("PHOTO_BACKEND", or(fc.Photos.Backend, "local")),
		PhotoPath:             getEnv("PHOTO_LOCAL_PATH", or(fc.Photos.Path, "/data/photos")),
		AzureConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
		AzureContainer:        getEnv("AZURE_STORAGE_CONTAINER", or(fc.Photos.AzureContainer, "listing-photos")),
		Provider:              getEnv("PROVIDER", or(fc.Provider.Name, "puter")),
		PuterBaseURL:          getEnv("PUTER_BASE_URL", or(fc.Provider.PuterURL, "https://api.puter.com")),
		PuterAPIKey:           getEnv("PUTER_API_KEY", ""),
		PuterModel:            getEnv("PUTER_MODEL", or(fc.Provider.Model, "gpt-4o")),
		ClaudeAPIKey:          getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:           getEnv("CLAUDE_MODEL", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		CORSOrigins:           fc.CORSOrigins,
		Pricing:               fc.Pricing,
	}

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitList(v)
	}

	var err error
	if cfg.PreferSDK, err = parseBool("PREFER_SDK", fc.Provider.PreferSDK); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", or(fc.ShutdownTimeout, "10s")); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = parseDuration("PROVIDER_TIMEOUT", or(fc.Provider.Timeout, "60s")); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = parseDuration("RETRY_BACKOFF", or(fc.Provider.Backoff, "0s")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	switch c.PhotoBackend {
	case "local":
	case "azure":
		if c.AzureConnectionString == "" {
			return errors.New("AZURE_STORAGE_CONNECTION_STRING is required when PHOTO_BACKEND=azure")
		}
	default:
		return fmt.Errorf("unknown PHOTO_BACKEND %q", c.PhotoBackend)
	}

	switch c.Provider {
	case "puter", "claude", "gemini", "openai":
	default:
		return fmt.Errorf("unknown PROVIDER %q", c.Provider)
	}

	for crop, price := range c.Pricing.Crops {
		if price <= 0 {
			return fmt.Errorf("pricing for %q must be positive", crop)
		}
	}
	if c.Pricing.Default < 0 {
		return errors.New("pricing default must not be negative")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func or(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}

func parseDuration(key, defaultVal string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultVal))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseBool(key string, defaultVal bool) (bool, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
