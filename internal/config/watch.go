package config

import "github.com/caarlos0/env/v11"

type WatchConfig struct {
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:8080"`

	// Models seats the game to watch, same format as TOURNAMENT_MODELS.
	Models string `env:"WATCH_MODELS,required,notEmpty"`

	// Secret overrides the random secret word when set.
	Secret string `env:"WATCH_SECRET"`
}

func LoadWatch() (WatchConfig, error) {
	var cfg WatchConfig
	err := env.Parse(&cfg)
	return cfg, err
}
