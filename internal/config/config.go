// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger" yaml:"logger"`
	Browser       BrowserConfig       `mapstructure:"browser" yaml:"browser"`
	Network       NetworkConfig       `mapstructure:"network" yaml:"network"`
	Agent         AgentConfig         `mapstructure:"agent" yaml:"agent"`
	LLM           LLMRouterConfig     `mapstructure:"llm" yaml:"llm"`
	DomainContext DomainContextConfig `mapstructure:"domain_context" yaml:"domain_context"`
	Output        OutputConfig        `mapstructure:"output" yaml:"output"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserDataDir     string         `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// NetworkConfig tunes the network behavior of the application.
type NetworkConfig struct {
	Timeout           time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	NavigationTimeout time.Duration     `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration     `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	Headers           map[string]string `mapstructure:"headers" yaml:"headers"`
}

// AgentConfig holds settings for the navigation agent's step loop.
type AgentConfig struct {
	MaxSteps          int           `mapstructure:"max_steps" yaml:"max_steps"`
	MaxActionsPerStep int           `mapstructure:"max_actions_per_step" yaml:"max_actions_per_step"`
	MaxFailures       int           `mapstructure:"max_failures" yaml:"max_failures"`
	StepTimeout       time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
}

// DomainContextConfig tunes the per-domain rolling context subsystem.
type DomainContextConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	StorePath         string        `mapstructure:"store_path" yaml:"store_path"`
	RefreshSteps      int           `mapstructure:"refresh_steps" yaml:"refresh_steps"`
	MinStepsForUpdate int           `mapstructure:"min_steps_for_update" yaml:"min_steps_for_update"`
	MaxHistoryItems   int           `mapstructure:"max_history_items" yaml:"max_history_items"`
	MaxLength         int           `mapstructure:"max_length" yaml:"max_length"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// OutputConfig controls where run artifacts land.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	SaveHistory bool   `mapstructure:"save_history" yaml:"save_history"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderOpenAI     LLMProvider = "openai"
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderOllama     LLMProvider = "ollama"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP              float32       `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ariadne")
	v.SetDefault("logger.log_file", "ariadne.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)

	// -- Network --
	v.SetDefault("network.timeout", "30s")
	v.SetDefault("network.navigation_timeout", "90s")
	v.SetDefault("network.post_load_wait", "2s")

	// -- Agent --
	v.SetDefault("agent.max_steps", 30)
	v.SetDefault("agent.max_actions_per_step", 3)
	v.SetDefault("agent.max_failures", 10)
	v.SetDefault("agent.step_timeout", "180s")

	// -- LLM --
	v.SetDefault("llm.default_fast_model", "fast")
	v.SetDefault("llm.default_powerful_model", "powerful")

	// -- Domain context --
	v.SetDefault("domain_context.enabled", true)
	v.SetDefault("domain_context.store_path", "domain_contexts.json")
	v.SetDefault("domain_context.refresh_steps", 10)
	v.SetDefault("domain_context.min_steps_for_update", 3)
	v.SetDefault("domain_context.max_history_items", 15)
	v.SetDefault("domain_context.max_length", 2000)
	v.SetDefault("domain_context.cache_ttl", "1h")

	// -- Output --
	v.SetDefault("output.dir", "runs")
	v.SetDefault("output.save_history", true)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be a positive integer")
	}
	if c.Agent.MaxActionsPerStep <= 0 {
		return fmt.Errorf("agent.max_actions_per_step must be a positive integer")
	}
	if err := c.DomainContext.Validate(); err != nil {
		return fmt.Errorf("domain_context configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the domain context settings.
func (d *DomainContextConfig) Validate() error {
	if !d.Enabled {
		return nil
	}
	if d.RefreshSteps <= 0 {
		return fmt.Errorf("refresh_steps must be greater than 0")
	}
	if d.MinStepsForUpdate <= 0 {
		return fmt.Errorf("min_steps_for_update must be greater than 0")
	}
	if d.MinStepsForUpdate > d.RefreshSteps {
		return fmt.Errorf("min_steps_for_update cannot exceed refresh_steps")
	}
	if d.MaxHistoryItems <= 0 {
		return fmt.Errorf("max_history_items must be greater than 0")
	}
	if d.MaxLength <= 0 {
		return fmt.Errorf("max_length must be greater than 0")
	}
	return nil
}
