package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Addr        string        `env:"ADDR" envDefault:":1337"`
	RPCEndpoint string        `env:"ETH_RPC_URL"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"text"`
	RPCTimeout  time.Duration `env:"RPC_TIMEOUT" envDefault:"15s"`
	RPCRetries  uint          `env:"RPC_RETRIES" envDefault:"3"`
}

func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.RPCEndpoint == "" {
		return nil, ErrMissingRPCEndpoint
	}
	if cfg.RPCTimeout <= 0 {
		return nil, ErrInvalidRPCTimeout
	}
	if cfg.RPCRetries == 0 {
		cfg.RPCRetries = 1
	}

	return &cfg, nil
}
