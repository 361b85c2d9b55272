// Package config layers defaults, an optional config file, a .env file,
// CHURNSCOUT_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AppName   = "churnscout"
	envPrefix = "CHURNSCOUT"
)

// Config is the resolved client configuration.
type Config struct {
	Endpoint       string        `mapstructure:"endpoint"`
	RequestField   string        `mapstructure:"request_field"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	WelcomeMessage string        `mapstructure:"welcome_message"`
	HistoryPath    string        `mapstructure:"history_path"`
	ExportDir      string        `mapstructure:"export_dir"`
	LogFile        string        `mapstructure:"log_file"`
	LogLevel       string        `mapstructure:"log_level"`
	NoAltScreen    bool          `mapstructure:"no_alt_screen"`
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// ConfigFile, when set, must exist. Otherwise churnscout.{yaml,toml,json}
	// is searched in the working directory and the user config directory.
	ConfigFile string
	// EnvFile defaults to ".env"; a missing file is ignored.
	EnvFile string
	// Overrides win over every other layer, keyed like the config file.
	Overrides map[string]any
}

// keys lists every recognised configuration key.
var keys = []string{
	"endpoint",
	"request_field",
	"http_timeout",
	"welcome_message",
	"history_path",
	"export_dir",
	"log_file",
	"log_level",
	"no_alt_screen",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "http://localhost:8000/api/query")
	v.SetDefault("request_field", "user_query")
	v.SetDefault("http_timeout", "2m")
	v.SetDefault("welcome_message", "")
	v.SetDefault("history_path", filepath.Join(".", "churnscout-history.json"))
	v.SetDefault("export_dir", ".")
	v.SetDefault("log_file", DefaultLogFile())
	v.SetDefault("log_level", "info")
	v.SetDefault("no_alt_screen", false)
}

// DefaultLogFile is the log location used when none is configured.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName, AppName+".log")
}

// Load resolves the configuration.
func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	for key, value := range opts.Overrides {
		if !slices.Contains(keys, key) {
			return Config{}, fmt.Errorf("config: unknown override key %q", key)
		}
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("config: endpoint is empty")
	}
	switch c.RequestField {
	case "user_query", "message":
	default:
		return fmt.Errorf("config: request_field must be user_query or message, got %q", c.RequestField)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}
