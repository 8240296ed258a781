package config

import (
	"github.com/caarlos0/env/v11"
)

type EngineConfig struct {
	HouseEdge       float64 `env:"HOUSE_EDGE" envDefault:"0.01"`
	MinWager        string  `env:"MIN_WAGER" envDefault:"0.01"`
	MaxWager        string  `env:"MAX_WAGER" envDefault:"10000"`
	LockTimeoutMS   int     `env:"LOCK_TIMEOUT_MS" envDefault:"2000"`
	LockTTLMS       int     `env:"LOCK_TTL_MS" envDefault:"10000"`
	GamesConfigPath string  `env:"GAMES_CONFIG_PATH"`

	// Filled from the games file, keyed by difficulty.
	TowerSkulls map[string]int `env:"-"`
}

func LoadEngine() (EngineConfig, error) {
	var cfg EngineConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if cfg.GamesConfigPath == "" {
		return cfg, nil
	}
	games, err := LoadGames(cfg.GamesConfigPath)
	if err != nil {
		return cfg, err
	}
	return games.Apply(cfg), nil
}
