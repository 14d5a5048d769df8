package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderAgent  = "agent"
	ProviderOpenAI = "openai"
)

// Endpoint is one remote agent endpoint and its credentials.
type Endpoint struct {
	URL    string `mapstructure:"url"`
	UserID string `mapstructure:"user_id"`
	APIKey string `mapstructure:"api_key"`
}

type Server struct {
	Addr        string `mapstructure:"addr"`
	MaxSessions int    `mapstructure:"max_sessions"`

	// Token, when set, is the bearer token every session route requires.
	Token string `mapstructure:"token"`
}

type Regenerate struct {
	Remote bool `mapstructure:"remote"`
}

// Config stores all configuration of the application.
type Config struct {
	Summarize    Endpoint      `mapstructure:"summarize"`
	Generate     Endpoint      `mapstructure:"generate"`
	Provider     string        `mapstructure:"provider"`
	OpenAIAPIKey string        `mapstructure:"openai_api_key"`
	OpenAIURL    string        `mapstructure:"openai_base_url"`
	ModelName    string        `mapstructure:"model_name"`
	ProxyTarget  string        `mapstructure:"proxy_target"`
	OutputDir    string        `mapstructure:"output_dir"`
	Regenerate   Regenerate    `mapstructure:"regenerate"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Server       Server        `mapstructure:"server"`
	TellmURL     string        `mapstructure:"tellm_url"`
	LogLevel     string        `mapstructure:"log_level"`
}

// envKeys binds every key to its EDPGEN_ variable, so values can come from
// the environment even when no config file sets them.
var envKeys = []string{
	"summarize.url", "summarize.user_id", "summarize.api_key",
	"generate.url", "generate.user_id", "generate.api_key",
	"provider", "openai_base_url", "model_name", "proxy_target", "output_dir",
	"regenerate.remote", "timeout", "server.addr", "server.max_sessions", "server.token",
	"tellm_url", "log_level",
}

// LoadConfig reads configuration from a config file, a .env file and
// environment variables, in increasing precedence. configPath may name a
// file or a directory; empty searches the working directory and ~/.edpgen.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("provider", ProviderAgent)
	v.SetDefault("model_name", "gpt-4o-mini")
	v.SetDefault("output_dir", ".")
	v.SetDefault("regenerate.remote", false)
	v.SetDefault("timeout", 2*time.Minute)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_sessions", 1024)
	v.SetDefault("log_level", "info")

	if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configPath != "" {
			v.AddConfigPath(configPath)
		}
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".edpgen"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("EDPGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("openai_api_key", "EDPGEN_OPENAI_API_KEY", "OPENAI_API_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks settings that do not depend on which command runs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAgent, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid provider %q: want %s or %s", c.Provider, ProviderAgent, ProviderOpenAI)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive, got %d", c.Server.MaxSessions)
	}
	return nil
}

// ValidateClients checks that the selected provider has credentials.
func (c *Config) ValidateClients() error {
	if c.Provider == ProviderOpenAI {
		if c.OpenAIAPIKey == "" {
			return errors.New("openai_api_key is required for the openai provider")
		}
		return nil
	}
	if c.Summarize.URL == "" {
		return errors.New("summarize.url is required")
	}
	if c.Generate.URL == "" {
		return errors.New("generate.url is required")
	}
	return nil
}
