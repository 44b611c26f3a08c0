package rickandmorty

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when the API answers 404.
// For searches this means "no matches", for lookups "no such resource".
var ErrNotFound = fmt.Errorf("rick and morty api: %w", search.ErrNotFound)

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zerolog.Logger
	characters *lib.Cache[*Character]
	episodes   *lib.Cache[*Episode]
}

func NewClient(config *Config, logger *zerolog.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://rickandmortyapi.com/api"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	l := logger.With().Str("client", "rickandmorty").Logger()

	return &Client{
		httpClient: &http.Client{
			Transport: lib.DefaultHTTPClient.Transport,
			Timeout:   config.Timeout,
		},
		baseURL:    baseURL,
		logger:     &l,
		characters: lib.NewCache[*Character](config.CacheTTL, &l),
		episodes:   lib.NewCache[*Episode](config.CacheTTL, &l),
	}
}

// SearchCharacters lists characters whose name contains name.
// Docs: https://rickandmortyapi.com/documentation/#filter-characters
func (c *Client) SearchCharacters(ctx context.Context, name string, page int) (*CharactersPage, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("page", strconv.Itoa(page))

	u := fmt.Sprintf("%s/character/?%s", c.baseURL, query.Encode())

	result, err := get[CharactersPage](ctx, c, u)
	if err != nil {
		return nil, fmt.Errorf("search characters: %w", err)
	}

	return result, nil
}

// Character fetches a single character by id.
func (c *Client) Character(ctx context.Context, id int) (*Character, error) {
	return c.CharacterByURL(ctx, fmt.Sprintf("%s/character/%d", c.baseURL, id))
}

// CharacterByURL fetches a character from a resource URL as found in episodes.
func (c *Client) CharacterByURL(ctx context.Context, resourceURL string) (*Character, error) {
	character, err := c.characters.GetOrLoad(resourceURL, func() (*Character, error) {
		return get[Character](ctx, c, resourceURL)
	})
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}

	return character, nil
}

// EpisodeByURL fetches an episode from a resource URL as found in characters.
func (c *Client) EpisodeByURL(ctx context.Context, resourceURL string) (*Episode, error) {
	episode, err := c.episodes.GetOrLoad(resourceURL, func() (*Episode, error) {
		return get[Episode](ctx, c, resourceURL)
	})
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}

	return episode, nil
}

func get[T any](ctx context.Context, c *Client, resourceURL string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", resourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", lib.UserAgentString)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", resourceURL).Msg("Requesting resource")

	result, err := lib.DecodeJSONFromRequest[T](c.httpClient, req)
	if err != nil {
		var statusErr *lib.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}
