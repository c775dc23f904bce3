package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ReadConfig builds the configuration from defaults, an optional JSON config
// file, and environment variables. Environment variables win over the file,
// the file wins over defaults.
func ReadConfig(configPath string) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("history_limit", 1000)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"host", "port", "log_level", "log_file", "history_limit"} {
		v.MustBindEnv(key)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// MustReadConfig reads the configuration or panics if there's an error.
func MustReadConfig(configPath string) Config {
	cfg, err := ReadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return cfg
}
