package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PostgresDSN is optional: without it results are kept in memory only.
	PostgresDSN string `env:"POSTGRES_DSN"`

	MinPlayers         int `env:"MIN_PLAYERS" envDefault:"3"`
	MaxPlayers         int `env:"MAX_PLAYERS" envDefault:"10"`
	MaxConcurrentGames int `env:"MAX_CONCURRENT_GAMES" envDefault:"8"`

	OllamaURL string `env:"OLLAMA_URL"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
