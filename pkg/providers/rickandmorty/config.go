package rickandmorty

import "time"

type Config struct {
	BaseURL  string        `env:"RICKANDMORTY_BASE_URL,default=https://rickandmortyapi.com/api" validate:"required,url"`
	Timeout  time.Duration `env:"RICKANDMORTY_TIMEOUT,default=10s" validate:"gt=0"`
	CacheTTL time.Duration `env:"RICKANDMORTY_CACHE_TTL,default=10m"`
}
