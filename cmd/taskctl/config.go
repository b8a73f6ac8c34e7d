package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// cliConfig holds taskctl settings. Values come from flags, TASKCTL_*
// environment variables and ~/.taskctl/config.yaml, in that order.
type cliConfig struct {
	Server      string `mapstructure:"server"`
	SessionFile string `mapstructure:"session_file"`
	LogLevel    string `mapstructure:"log_level"`
}

// configDir returns ~/.taskctl, or .taskctl when there is no home directory.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskctl"
	}
	return filepath.Join(home, ".taskctl")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("server", "http://localhost:3000")
	v.SetDefault("session_file", filepath.Join(configDir(), "session.yaml"))
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("TASKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the config file when present and unmarshals v.
func loadConfig(v *viper.Viper, path string) (*cliConfig, error) {
	if path == "" {
		path = filepath.Join(configDir(), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
