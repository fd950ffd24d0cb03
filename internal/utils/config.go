package utils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig holds defaults read from a YAML file. Flags given on the command
// line win over anything set here.
type FileConfig struct {
	Threads   int               `yaml:"threads"`
	Headers   map[string]string `yaml:"headers"`
	Timeout   time.Duration     `yaml:"timeout"`
	Retries   *int              `yaml:"retries"`
	RetryWait time.Duration     `yaml:"retry_wait"`
	Insecure  bool              `yaml:"insecure"`
	UserAgent string            `yaml:"user_agent"`
	Proxy     string            `yaml:"proxy"`
}

func LoadConfig(filePath string) (*FileConfig, error) {
	log := GetLogger("config")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading config file: %w", ErrIO, err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: error parsing config file: %w", ErrParse, err)
	}
	if cfg.Threads < 0 {
		return nil, fmt.Errorf("%w: threads must be positive, got %d", ErrParse, cfg.Threads)
	}
	if cfg.Retries != nil && *cfg.Retries < 0 {
		return nil, fmt.Errorf("%w: retries must not be negative, got %d", ErrParse, *cfg.Retries)
	}
	log.Debug().Str("path", filePath).Int("headers", len(cfg.Headers)).Msg("Config file loaded")
	return &cfg, nil
}
