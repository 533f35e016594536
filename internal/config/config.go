package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned by Set for keys that are not part of Global.
var ErrUnknownKey = errors.New("unknown config key")

// Global configuration structure.
type Global struct {
	// Prose generation
	AIMode   string `mapstructure:"ai_mode" yaml:"ai_mode" validate:"oneof=auto mock live"`
	Provider string `mapstructure:"provider" yaml:"provider" validate:"oneof=openai openrouter ollama"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	// Model is empty to use the provider default.
	Model             string  `mapstructure:"model" yaml:"model,omitempty"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	InsightsMaxTokens int     `mapstructure:"insights_max_tokens" yaml:"insights_max_tokens" validate:"gte=0"`
	ExplainMaxTokens  int     `mapstructure:"explain_max_tokens" yaml:"explain_max_tokens" validate:"gte=0"`
	PromptTokenLimit  int     `mapstructure:"prompt_token_limit" yaml:"prompt_token_limit" validate:"gte=0"`

	// HTTP
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=0"`
	OllamaHost     string `mapstructure:"ollama_host" yaml:"ollama_host" validate:"omitempty,url"`

	// Loading
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows" validate:"gte=0"`

	// HTTP service
	ServerAddr  string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"gte=0"`
}

var defaults = map[string]any{
	"ai_mode":             "auto",
	"provider":            "openai",
	"api_key":             "",
	"model":               "",
	"temperature":         0.0,
	"insights_max_tokens": 400,
	"explain_max_tokens":  300,
	"prompt_token_limit":  3000,
	"http_timeout_sec":    60,
	"ollama_host":         "http://127.0.0.1:11434",
	"max_rows":            100000,
	"server_addr":         ":8080",
	"max_upload_mb":       32,
}

// Keys lists the supported configuration keys in sorted order.
func Keys() []string {
	return []string{
		"ai_mode", "api_key", "explain_max_tokens", "http_timeout_sec", "insights_max_tokens",
		"max_rows", "max_upload_mb", "model", "ollama_host", "prompt_token_limit", "provider",
		"server_addr", "temperature",
	}
}

// Default returns the built-in configuration.
func Default() *Global {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Path returns cfgFile, or ~/.datasage/config.yaml when it is empty.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datasage", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datasage/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASAGE")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := Path("")
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.AIMode = strings.ToLower(strings.TrimSpace(c.AIMode))
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New()

// Validate checks field constraints and reports the first offending keys.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Set assigns a string value to the named key, converting it to the field type.
// c is left unchanged when the value does not validate.
func (c *Global) Set(key, value string) error {
	next := *c
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer: %w", key, err)
		}
		*dst = n
		return nil
	}
	var err error
	switch key {
	case "ai_mode":
		next.AIMode = strings.ToLower(value)
	case "provider":
		next.Provider = strings.ToLower(value)
	case "api_key":
		next.APIKey = value
	case "model":
		next.Model = value
	case "temperature":
		f, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return fmt.Errorf("%s: expected a number: %w", key, perr)
		}
		next.Temperature = f
	case "insights_max_tokens":
		err = atoi(&next.InsightsMaxTokens)
	case "explain_max_tokens":
		err = atoi(&next.ExplainMaxTokens)
	case "prompt_token_limit":
		err = atoi(&next.PromptTokenLimit)
	case "http_timeout_sec":
		err = atoi(&next.HTTPTimeoutSec)
	case "ollama_host":
		next.OllamaHost = value
	case "max_rows":
		err = atoi(&next.MaxRows)
	case "server_addr":
		next.ServerAddr = value
	case "max_upload_mb":
		err = atoi(&next.MaxUploadMB)
	default:
		return fmt.Errorf("%w: %q (known: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Redacted returns a copy safe for printing.
func (c *Global) Redacted() *Global {
	out := *c
	if n := len(out.APIKey); n > 0 {
		if n > 8 {
			out.APIKey = out.APIKey[:4] + strings.Repeat("*", n-8) + out.APIKey[n-4:]
		} else {
			out.APIKey = strings.Repeat("*", n)
		}
	}
	return &out
}
