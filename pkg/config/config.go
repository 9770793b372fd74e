package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		ListenAddr       string `mapstructure:"listen_addr"`
		ShutdownTimeoutS int    `mapstructure:"shutdown_timeout_s"`
	} `mapstructure:"server"`

	Broker struct {
		Workers   int `mapstructure:"workers"` // 0 = dispatcher default
		QueueSize int `mapstructure:"queue_size"`
	} `mapstructure:"broker"`
}

// Load reads configs/config.yaml relative to the working directory. A
// missing file is fine, defaults cover every knob.
func Load() (*Config, error) {
	return LoadFrom("configs")
}

func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.shutdown_timeout_s", 10)
	v.SetDefault("broker.workers", 0)
	v.SetDefault("broker.queue_size", 10000)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
