// Package config loads runtime configuration from config.yaml and
// SITELENS_-prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/app"
	"github.com/sitelens/sitelens/internal/server"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Security   SecurityConfig   `yaml:"security" mapstructure:"security"`
	Browser    BrowserConfig    `yaml:"browser" mapstructure:"browser"`
	Lighthouse LighthouseConfig `yaml:"lighthouse" mapstructure:"lighthouse"`
	Axe        AxeConfig        `yaml:"axe" mapstructure:"axe"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// SecurityConfig configures the synchronous prober.
type SecurityConfig struct {
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// BrowserConfig configures headless Chrome launches.
type BrowserConfig struct {
	ExecPath          string `yaml:"exec_path" mapstructure:"exec_path"`
	LaunchTimeoutSecs int    `yaml:"launch_timeout_secs" mapstructure:"launch_timeout_secs"`
}

// LighthouseConfig configures the performance/SEO analyzer.
type LighthouseConfig struct {
	BinPath        string `yaml:"bin_path" mapstructure:"bin_path"`
	RunTimeoutSecs int    `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
}

// AxeConfig configures the accessibility rule engine.
type AxeConfig struct {
	ScriptPath string `yaml:"script_path" mapstructure:"script_path"`
	ScriptURL  string `yaml:"script_url" mapstructure:"script_url"`
}

// AnthropicConfig holds suggestion generator settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig configures the zap backend.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml (optional) and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SITELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("security.fetch_timeout_secs", 7)
	v.SetDefault("browser.launch_timeout_secs", 30)
	v.SetDefault("lighthouse.bin_path", "lighthouse")
	v.SetDefault("lighthouse.run_timeout_secs", 180)
	v.SetDefault("axe.script_url", "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 512)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// AppConfig maps the loaded configuration onto the component configs the
// orchestrator consumes.
func (c *Config) AppConfig() *app.Config {
	appCfg := app.DefaultConfig()
	if c.Security.FetchTimeoutSecs > 0 {
		appCfg.Security.FetchTimeout = time.Duration(c.Security.FetchTimeoutSecs) * time.Second
	}
	if c.Browser.ExecPath != "" {
		appCfg.Browser.ExecPath = c.Browser.ExecPath
	}
	if c.Browser.LaunchTimeoutSecs > 0 {
		appCfg.Browser.LaunchTimeout = time.Duration(c.Browser.LaunchTimeoutSecs) * time.Second
	}
	if c.Lighthouse.BinPath != "" {
		appCfg.Lighthouse.BinPath = c.Lighthouse.BinPath
	}
	if c.Lighthouse.RunTimeoutSecs > 0 {
		appCfg.Lighthouse.RunTimeout = time.Duration(c.Lighthouse.RunTimeoutSecs) * time.Second
	}
	if c.Axe.ScriptPath != "" {
		appCfg.Axe.ScriptPath = c.Axe.ScriptPath
	}
	if c.Axe.ScriptURL != "" {
		appCfg.Axe.ScriptURL = c.Axe.ScriptURL
	}
	appCfg.Suggest.APIKey = c.Anthropic.Key
	if c.Anthropic.Model != "" {
		appCfg.Suggest.Model = c.Anthropic.Model
	}
	if c.Anthropic.MaxTokens > 0 {
		appCfg.Suggest.MaxTokens = c.Anthropic.MaxTokens
	}
	return appCfg
}

// ServerConfigFor maps the loaded configuration onto the HTTP server config.
func (c *Config) ServerConfigFor() server.Config {
	cfg := server.DefaultConfig()
	if c.Server.Addr != "" {
		cfg.ListenAddr = c.Server.Addr
	}
	if len(c.Server.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = c.Server.AllowedOrigins
	}
	return cfg
}

// InitLogger installs the global zap logger per LogConfig.
func InitLogger(cfg LogConfig) error {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return eris.Wrap(err, "config: parse log level")
		}
		zapCfg.Level = level
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
