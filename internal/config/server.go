package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds the settings of the HTTP service
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	OutputDir      string `mapstructure:"output_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	LogLevel       string `mapstructure:"log_level"`
	Development    bool   `mapstructure:"development"`
}

// LoadServerConfig resolves the server settings from defaults, an optional
// config file and GOSLICE_* environment variables. PORT, when set, overrides
// the port of the listen address.
func LoadServerConfig(path string) (*ServerConfig, error) {
	v := viper.New()
	v.SetDefault("addr", ":5000")
	v.SetDefault("output_dir", "gcode")
	v.SetDefault("max_upload_bytes", 64<<20)
	v.SetDefault("log_level", "info")
	v.SetDefault("development", false)

	v.SetEnvPrefix("GOSLICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind PORT: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read server config: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode server config: %w", err)
	}

	if port := v.GetString("port"); port != "" {
		host := cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		cfg.Addr = host + ":" + port
	}

	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output_dir must not be empty")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max_upload_bytes must be greater than 0")
	}

	return &cfg, nil
}
