package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"ngrev/internal/paths"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Config represents the complete ngrev configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging"`
	View    ViewConfig    `json:"view" mapstructure:"view" toml:"view"`
	Channel ChannelConfig `json:"channel" mapstructure:"channel" toml:"channel"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache" toml:"cache"`
	Search  SearchConfig  `json:"search" mapstructure:"search" toml:"search"`
	Watch   WatchConfig   `json:"watch" mapstructure:"watch" toml:"watch"`
}

// LoggingConfig contains logging configuration.
// Subsystem levels override Level when set.
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format" toml:"format"`
	Level      string `json:"level" mapstructure:"level" toml:"level"`
	Engine     string `json:"engine,omitempty" mapstructure:"engine" toml:"engine,omitempty"`
	Worker     string `json:"worker,omitempty" mapstructure:"worker" toml:"worker,omitempty"`
	Client     string `json:"client,omitempty" mapstructure:"client" toml:"client,omitempty"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize" toml:"maxSize,omitempty"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups" toml:"maxBackups"`
}

// ViewConfig holds the initial application-view filters
type ViewConfig struct {
	ShowLibs    bool `json:"showLibs" mapstructure:"showLibs" toml:"showLibs"`
	ModulesOnly bool `json:"modulesOnly" mapstructure:"modulesOnly" toml:"modulesOnly"`
}

// ChannelConfig configures the worker channel
type ChannelConfig struct {
	Address                string `json:"address" mapstructure:"address" toml:"address"`
	RequestTimeoutMs       int    `json:"requestTimeoutMs" mapstructure:"requestTimeoutMs" toml:"requestTimeoutMs"`
	CompressThresholdBytes int    `json:"compressThresholdBytes" mapstructure:"compressThresholdBytes" toml:"compressThresholdBytes"`
}

// CacheConfig contains client cache configuration
type CacheConfig struct {
	MetadataEntries int `json:"metadataEntries" mapstructure:"metadataEntries" toml:"metadataEntries"`
}

// SearchConfig contains symbol search configuration
type SearchConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled" toml:"enabled"`
	CacheDir string `json:"cacheDir,omitempty" mapstructure:"cacheDir" toml:"cacheDir,omitempty"`
}

// WatchConfig configures project reloads on file changes
type WatchConfig struct {
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs" toml:"debounceMs"`
	PollIntervalMs int      `json:"pollIntervalMs" mapstructure:"pollIntervalMs" toml:"pollIntervalMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns" toml:"ignorePatterns"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxBackups: 3,
		},
		View: ViewConfig{
			ShowLibs:    false,
			ModulesOnly: false,
		},
		Channel: ChannelConfig{
			Address:                "127.0.0.1:7777",
			RequestTimeoutMs:       30000,
			CompressThresholdBytes: 64 * 1024,
		},
		Cache: CacheConfig{
			MetadataEntries: 512,
		},
		Search: SearchConfig{
			Enabled: true,
		},
		Watch: WatchConfig{
			DebounceMs:     500,
			PollIntervalMs: 1000,
			IgnorePatterns: []string{
				"**/*.log",
				"**/*.tmp",
				"node_modules/**",
				"dist/**",
				".git/**",
				".ngrev/**",
			},
		},
	}
}

// setDefaults mirrors DefaultConfig into viper so partial files keep defaults
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("view.showLibs", d.View.ShowLibs)
	v.SetDefault("view.modulesOnly", d.View.ModulesOnly)
	v.SetDefault("channel.address", d.Channel.Address)
	v.SetDefault("channel.requestTimeoutMs", d.Channel.RequestTimeoutMs)
	v.SetDefault("channel.compressThresholdBytes", d.Channel.CompressThresholdBytes)
	v.SetDefault("cache.metadataEntries", d.Cache.MetadataEntries)
	v.SetDefault("search.enabled", d.Search.Enabled)
	v.SetDefault("watch.debounceMs", d.Watch.DebounceMs)
	v.SetDefault("watch.pollIntervalMs", d.Watch.PollIntervalMs)
	v.SetDefault("watch.ignorePatterns", d.Watch.IgnorePatterns)
}

// LoadConfig loads configuration from <projectRoot>/.ngrev/config.{json,toml,yaml}.
// Environment variables prefixed with NGREV_ override file values
// (NGREV_CHANNEL_ADDRESS, NGREV_LOGGING_LEVEL, ...).
func LoadConfig(projectRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(paths.ProjectSettingsDir(projectRoot))

	v.SetEnvPrefix("NGREV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to <projectRoot>/.ngrev/config.toml
func (c *Config) Save(projectRoot string) (string, error) {
	dir := paths.ProjectSettingsDir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}

	configPath := filepath.Join(dir, "config.toml")
	return configPath, os.WriteFile(configPath, buf.Bytes(), 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Channel.RequestTimeoutMs < 0 {
		return &ConfigError{Field: "channel.requestTimeoutMs", Message: "must not be negative"}
	}
	if c.Cache.MetadataEntries <= 0 {
		return &ConfigError{Field: "cache.metadataEntries", Message: "must be positive"}
	}
	if c.Watch.DebounceMs < 0 {
		return &ConfigError{Field: "watch.debounceMs", Message: "must not be negative"}
	}
	if c.Watch.PollIntervalMs <= 0 {
		return &ConfigError{Field: "watch.pollIntervalMs", Message: "must be positive"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
