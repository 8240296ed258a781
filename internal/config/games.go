package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GamesConfig is the optional rules file. Unset fields keep the env values.
type GamesConfig struct {
	HouseEdge *float64       `yaml:"house_edge"`
	MinWager  string         `yaml:"min_wager"`
	MaxWager  string         `yaml:"max_wager"`
	Towers    map[string]int `yaml:"towers"`
}

func LoadGames(path string) (GamesConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return GamesConfig{}, fmt.Errorf("read games config %q: %w", path, err)
	}
	var cfg GamesConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return GamesConfig{}, fmt.Errorf("parse games config %q: %w", path, err)
	}
	return cfg, nil
}

func (g GamesConfig) Apply(cfg EngineConfig) EngineConfig {
	if g.HouseEdge != nil {
		cfg.HouseEdge = *g.HouseEdge
	}
	if v := strings.TrimSpace(g.MinWager); v != "" {
		cfg.MinWager = v
	}
	if v := strings.TrimSpace(g.MaxWager); v != "" {
		cfg.MaxWager = v
	}
	if len(g.Towers) > 0 {
		cfg.TowerSkulls = make(map[string]int, len(g.Towers))
		for k, v := range g.Towers {
			cfg.TowerSkulls[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return cfg
}
