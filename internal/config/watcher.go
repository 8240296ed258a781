package config

import "github.com/caarlos0/env/v11"

type WatcherConfig struct {
	WSURL       string `env:"WATCH_WS_URL" envDefault:"ws://localhost:8080/api/ws"`
	APIURL      string `env:"WATCH_API_URL" envDefault:"http://localhost:8080"`
	PlayerToken string `env:"WATCH_PLAYER_TOKEN,required,notEmpty"`
}

func LoadWatcher() (WatcherConfig, error) {
	var cfg WatcherConfig
	err := env.Parse(&cfg)
	return cfg, err
}
