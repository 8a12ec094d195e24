package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GAMEHELP_ENDPOINT
const EnvPrefix = "GAMEHELP"

// Config holds the client settings
type Config struct {
	Endpoint      string `mapstructure:"endpoint"`
	APIKey        string `mapstructure:"api_key"`
	DataDir       string `mapstructure:"data_dir"`
	Storage       string `mapstructure:"storage"`
	LogFile       string `mapstructure:"log_file"`
	Spoiler       string `mapstructure:"spoiler"`
	MatchCount    *int   `mapstructure:"match_count"`
	DocFilter     string `mapstructure:"doc_filter"`
	DeveloperMode *bool  `mapstructure:"developer_mode"`
	Games         []Game `mapstructure:"games"`
}

var configKeys = []string{
	"endpoint", "api_key", "data_dir", "storage", "log_file",
	"spoiler", "match_count", "doc_filter", "developer_mode",
}

// DefaultDataDir returns ~/.gamehelp
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".gamehelp"), nil
}

// LoadDotEnv loads .env from the working directory if there is one
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			LogWarn("Failed to load .env file: %v", err)
		}
		return
	}
	LogDebug("Loaded environment from .env")
}

// LoadConfig reads configuration from defaults, an optional config file and
// GAMEHELP_* environment variables. An explicit path must exist; otherwise
// config.yaml is looked up in the data directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("spoiler", fmt.Sprint(int(DefaultSpoiler)))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if envDir := os.Getenv(EnvPrefix + "_DATA_DIR"); envDir != "" {
			v.AddConfigPath(envDir)
		}
		v.AddConfigPath(dataDir)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &ParseError{Source: "config", Key: path, Err: err}
		}
		LogDebug("No config file found, using defaults and environment")
	} else {
		LogDebug("Using config file %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ParseError{Source: "config", Key: v.ConfigFileUsed(), Err: err}
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	if c.Storage == "" {
		c.Storage = filepath.Join(c.DataDir, "state.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "gamehelp.log")
	}
}

// Validate reports settings that would make an ask impossible
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("no answer service endpoint configured (set endpoint in config.yaml or %s_ENDPOINT)", EnvPrefix)
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", c.Endpoint)
	}
	if _, err := c.SpoilerLevel(); err != nil {
		return err
	}
	if c.MatchCount != nil && *c.MatchCount < 1 {
		return fmt.Errorf("match_count must be positive, got %d", *c.MatchCount)
	}
	return nil
}

// SpoilerLevel returns the configured starting spoiler level
func (c *Config) SpoilerLevel() (SpoilerLevel, error) {
	if strings.TrimSpace(c.Spoiler) == "" {
		return DefaultSpoiler, nil
	}
	return ParseSpoiler(c.Spoiler)
}

// ControllerOptions derives the per-launch request settings
func (c *Config) ControllerOptions() (ControllerOptions, error) {
	level, err := c.SpoilerLevel()
	if err != nil {
		return ControllerOptions{}, err
	}
	return ControllerOptions{
		Spoiler:       level,
		MatchCount:    c.MatchCount,
		DocFilter:     ParseDocFilter(c.DocFilter),
		DeveloperMode: c.DeveloperMode,
	}, nil
}
