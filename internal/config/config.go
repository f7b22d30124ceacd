// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/sheetsplit/internal/split"
)

// EnvPrefix prefixes every environment override, e.g. SHEETSPLIT_SPLIT_OUTPUT.
const EnvPrefix = "SHEETSPLIT"

// Config holds the application configuration.
type Config struct {
	Split struct {
		Output  string `mapstructure:"output"`
		Bucket  string `mapstructure:"bucket"`
		Unnamed string `mapstructure:"unnamed"`
	} `mapstructure:"split"`
	Serve struct {
		Addr        string `mapstructure:"addr"`
		MaxUploadMB int64  `mapstructure:"max_upload_mb"`
	} `mapstructure:"serve"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Output struct {
		Color bool `mapstructure:"color"`
	} `mapstructure:"output"`
}

// defaults lists every known key with its default value.
var defaults = map[string]any{
	"split.output":        "split-result.xlsx",
	"split.bucket":        split.DefaultBucket,
	"split.unnamed":       split.DefaultPlaceholder,
	"serve.addr":          ":8080",
	"serve.max_upload_mb": 32,
	"log.level":           "info",
	"log.format":          "text",
	"output.color":        true,
}

var configFile string

// SetFile points Load at an explicit config file instead of
// ~/.sheetsplit/config.yaml.
func SetFile(path string) {
	configFile = path
}

// Load reads the configuration from the config file and environment variables.
func Load() (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
	}

	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	// Environment variable overrides
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default file is fine; a broken or explicitly named one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SplitOptions returns the naming options for the split engine.
func (c *Config) SplitOptions() split.Options {
	return split.Options{Bucket: c.Split.Bucket, Placeholder: c.Split.Unnamed}
}

// MaxUploadBytes returns the HTTP upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.Serve.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return c.Serve.MaxUploadMB << 20
}

// Keys returns every known configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a known key and persists the config file.
func Set(key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("unknown config key %q — known keys: %s", key, strings.Join(Keys(), ", "))
	}
	viper.Set(key, value)
	return SaveConfig()
}

// Get returns the effective value of key as a string.
func Get(key string) string {
	return viper.GetString(key)
}

// SaveConfig writes the current settings to the config file.
func SaveConfig() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// ResetConfig deletes the config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for k, v := range defaults {
		viper.Set(k, v)
	}
	return nil
}

// ConfigPath returns the path of the active config file.
func ConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig renders the effective configuration for humans.
func ShowConfig() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	section := ""
	for _, k := range Keys() {
		group, name, _ := strings.Cut(k, ".")
		if group != section {
			if section != "" {
				sb.WriteString("\n")
			}
			sb.WriteString(group + "\n")
			section = group
		}
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", name+":", viper.GetString(k)))
	}
	return sb.String()
}

// ToMap returns every known key with its effective value.
func ToMap() map[string]string {
	out := make(map[string]string, len(defaults))
	for _, k := range Keys() {
		out[k] = viper.GetString(k)
	}
	return out
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetsplit"
	}
	return filepath.Join(home, ".sheetsplit")
}
