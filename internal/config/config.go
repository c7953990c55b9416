package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neboloop/surfer/internal/ai"
	"github.com/neboloop/surfer/internal/browser"
	"github.com/neboloop/surfer/internal/defaults"
)

// Defaults applied when a key is missing or empty.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 5000
	DefaultTask            = "facebook ceo"
	DefaultTemperature     = 1.2
	DefaultMaxSteps        = 25
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxHistory      = 100
)

type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	LLM struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Browser struct {
		ExecutablePath string        `yaml:"executable_path"`
		UserDataDir    string        `yaml:"user_data_dir"`
		Headless       string        `yaml:"headless"`
		NoSandbox      string        `yaml:"no_sandbox"`
		ActionTimeout  time.Duration `yaml:"action_timeout"`
	} `yaml:"browser"`

	Agent struct {
		DefaultTask     string        `yaml:"default_task"`
		MaxSteps        int           `yaml:"max_steps"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		Notify          string        `yaml:"notify"`
	} `yaml:"agent"`

	Chat struct {
		MaxHistory   int    `yaml:"max_history"`
		SystemPrompt string `yaml:"system_prompt"`
	} `yaml:"chat"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return c, c.Validate()
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ai.ProviderGemini
	}
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.Model == "" {
		c.LLM.Model = ai.DefaultModels[c.LLM.Provider]
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = DefaultTemperature
	}
	if c.Agent.DefaultTask == "" {
		c.Agent.DefaultTask = DefaultTask
	}
	if c.Agent.MaxSteps <= 0 {
		c.Agent.MaxSteps = DefaultMaxSteps
	}
	if c.Agent.ShutdownTimeout <= 0 {
		c.Agent.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Chat.MaxHistory == 0 {
		c.Chat.MaxHistory = DefaultMaxHistory
	}
	if c.Database.Path == "" {
		if p, err := defaults.DatabasePath(); err == nil {
			c.Database.Path = p
		}
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, ok := ai.DefaultModels[c.LLM.Provider]; !ok {
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature %.2f out of range [0, 2]", c.LLM.Temperature)
	}
	if c.Database.Path == "" {
		return errors.New("database path is not set")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIKey returns the configured key, falling back to the provider's
// conventional environment variable.
func (c Config) APIKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	switch c.LLM.Provider {
	case ai.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ai.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ai.ProviderOllama:
		return ""
	default:
		return os.Getenv("GOOGLE_API_KEY")
	}
}

// BrowserConfig converts the browser section for the browser package.
func (c Config) BrowserConfig() browser.Config {
	return browser.Config{
		ExecutablePath: c.Browser.ExecutablePath,
		UserDataDir:    c.Browser.UserDataDir,
		Headless:       parseBool(c.Browser.Headless, false),
		NoSandbox:      parseBool(c.Browser.NoSandbox, false),
		ActionTimeout:  c.Browser.ActionTimeout,
	}
}

// NotifyEnabled reports whether finished agent runs raise a desktop notification.
func (c Config) NotifyEnabled() bool {
	return parseBool(c.Agent.Notify, false)
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}
