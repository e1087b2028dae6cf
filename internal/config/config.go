// Package config loads shellmind configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Retry budget bounds. Values outside the range are clamped on load.
const (
	DefaultMaxRetries = 3
	MinMaxRetries     = 1
	MaxMaxRetries     = 10
)

// Config holds all shellmind configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Agent loop settings
	Agent AgentConfig `yaml:"agent"`

	// Tool execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// Session persistence
	Session SessionConfig `yaml:"session"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the model backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// AgentConfig configures the control loop.
type AgentConfig struct {
	// MaxRetries bounds the diagnose-and-retry cycle, clamped to [1,10].
	MaxRetries int `yaml:"max_retries"`

	// ExecutionMode is "sequential" or "parallel". Parallel currently
	// degrades to sequential scheduling.
	ExecutionMode string `yaml:"execution_mode"`

	// AutoApproveModerate skips the approval gate for moderate-risk
	// commands. Dangerous commands always require approval.
	AutoApproveModerate bool `yaml:"auto_approve_moderate"`

	// SkipDiagnosis disables the LLM error-analysis step between a
	// failed tool call and the next thinking step.
	SkipDiagnosis bool `yaml:"skip_diagnosis"`

	// PromptsDir holds the YAML prompt templates.
	PromptsDir string `yaml:"prompts_dir"`
}

// ExecutionConfig configures tool execution.
type ExecutionConfig struct {
	// DefaultTimeout for a single tool call.
	DefaultTimeout string `yaml:"default_timeout"`

	// WorkingDirectory for shell commands.
	WorkingDirectory string `yaml:"working_directory"`
}

// SessionConfig configures the transcript store.
type SessionConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Debug bool   `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Timeout: "10m",
		},
		Agent: AgentConfig{
			MaxRetries:    DefaultMaxRetries,
			ExecutionMode: "sequential",
			PromptsDir:    defaultPath("prompts"),
		},
		Execution: ExecutionConfig{
			DefaultTimeout:   "60s",
			WorkingDirectory: ".",
		},
		Session: SessionConfig{
			DatabasePath: defaultPath("sessions.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".shellmind", name)
	}
	return filepath.Join(home, ".shellmind", name)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultPath("config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields
// defaults. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			cfg.clamp()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.clamp()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. An
// explicitly configured provider only ever takes the key from its own
// env var; detection across all key vars (anthropic outranks openai
// outranks gemini) runs only when no provider is configured.
func (c *Config) applyEnvOverrides() {
	if provider := os.Getenv("SHELLMIND_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if c.LLM.Provider != "" {
		if key := os.Getenv(keyEnvVar(c.LLM.Provider)); key != "" {
			c.LLM.APIKey = key
		}
	} else {
		for _, p := range []string{"anthropic", "openai", "gemini"} {
			if key := os.Getenv(keyEnvVar(p)); key != "" {
				c.LLM.Provider = p
				c.LLM.APIKey = key
				break
			}
		}
	}
	if model := os.Getenv("SHELLMIND_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if db := os.Getenv("SHELLMIND_DB"); db != "" {
		c.Session.DatabasePath = db
	}
}

// keyEnvVar maps a provider name to its API key env var. Unknown
// providers map to "", which os.Getenv resolves to empty.
func keyEnvVar(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	}
	return ""
}

// clamp normalizes out-of-range values instead of rejecting them.
func (c *Config) clamp() {
	if c.Agent.MaxRetries < MinMaxRetries {
		c.Agent.MaxRetries = DefaultMaxRetries
	}
	if c.Agent.MaxRetries > MaxMaxRetries {
		c.Agent.MaxRetries = MaxMaxRetries
	}
	switch c.Agent.ExecutionMode {
	case "sequential", "parallel":
	default:
		c.Agent.ExecutionMode = "sequential"
	}
}

// LLMTimeout parses the LLM timeout, falling back to 10 minutes.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// ToolTimeout parses the tool execution timeout, falling back to 60s.
func (c *Config) ToolTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}
