package summary

type Config struct {
	Language string `env:"SUMMARY_LANGUAGE,default=Spanish" validate:"required"`
	// Episodes is how many of the character's first episodes are used as context.
	Episodes int `env:"SUMMARY_EPISODES,default=3" validate:"gte=1,lte=10"`
	// Related is how many co-appearing characters are named in the prompt.
	Related int `env:"SUMMARY_RELATED,default=3" validate:"gte=0,lte=10"`
}
