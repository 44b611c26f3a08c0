package search

type Config struct {
	DefaultQuery string `env:"SEARCH_DEFAULT_QUERY,default=morty" validate:"required"`
}
