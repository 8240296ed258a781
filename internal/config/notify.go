package config

import "github.com/caarlos0/env/v11"

type NotifyConfig struct {
	Enabled     bool   `env:"NOTIFY_ENABLED" envDefault:"false"`
	TargetsPath string `env:"NOTIFY_TARGETS_PATH"`
	TargetsJSON string `env:"NOTIFY_TARGETS_JSON"`
	Workers     int    `env:"NOTIFY_WORKERS" envDefault:"2"`
	RetryMax    int    `env:"NOTIFY_RETRY_MAX" envDefault:"3"`
	RetryBaseMS int    `env:"NOTIFY_RETRY_BASE_MS" envDefault:"500"`
}

func LoadNotify() (NotifyConfig, error) {
	var cfg NotifyConfig
	err := env.Parse(&cfg)
	return cfg, err
}
