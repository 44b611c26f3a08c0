package config

import (
	"fmt"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib/log"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/llms"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/providers/rickandmorty"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/summary"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	Log          log.Config          `env:""`
	RickAndMorty rickandmorty.Config `env:""`
	Search       search.Config       `env:""`
	LLM          llms.Config         `env:""`
	Summary      summary.Config      `env:""`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFile loads variables from path into the environment.
// A missing file is not an error, since every setting has a default.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadWithEnvFile is the usual entrypoint for commands: it reads the env file
// when present and then decodes the environment.
func LoadWithEnvFile(path string, logger *zerolog.Logger) (*Config, error) {
	if err := LoadEnvFile(path); err != nil {
		logger.Debug().Err(err).Msg("Could not load env file, using process environment")
	}

	return Load()
}
