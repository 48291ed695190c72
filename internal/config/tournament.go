package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
)

type TournamentConfig struct {
	Games int `env:"TOURNAMENT_GAMES" envDefault:"10"`

	// Models lists the seats as "provider/model" pairs, comma separated,
	// for example "openai/gpt-4o,mistral/mistral-small,openai/gpt-4o-mini".
	Models string `env:"TOURNAMENT_MODELS,required,notEmpty"`

	Rounds    int    `env:"DISCUSSION_ROUNDS" envDefault:"2"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"results"`
	Verbose   bool   `env:"VERBOSE" envDefault:"false"`

	PostgresDSN string `env:"POSTGRES_DSN"`
	OllamaURL   string `env:"OLLAMA_URL"`
}

func LoadTournament() (TournamentConfig, error) {
	var cfg TournamentConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// ParseModelList turns a "provider/model,provider/model" string into
// seat specs, preserving order. Whitespace around entries is ignored.
func ParseModelList(s string) ([]game.ModelSpec, error) {
	var specs []game.ModelSpec
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		provider, model, ok := strings.Cut(entry, "/")
		if !ok || provider == "" || model == "" {
			return nil, fmt.Errorf("model entry %q must be provider/model", entry)
		}
		specs = append(specs, game.ModelSpec{Provider: provider, Model: model})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("model list %q has no entries", s)
	}
	return specs, nil
}
