package rickandmorty

import (
	"context"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
)

// CharacterFetcher exposes the character search endpoint to search.Controller.
type CharacterFetcher struct {
	client *Client
}

var _ search.Fetcher[Character] = (*CharacterFetcher)(nil)

func NewCharacterFetcher(client *Client) *CharacterFetcher {
	return &CharacterFetcher{client: client}
}

func (f *CharacterFetcher) FetchPage(ctx context.Context, query string, page int) (*search.Page[Character], error) {
	result, err := f.client.SearchCharacters(ctx, query, page)
	if err != nil {
		return nil, err
	}

	return &search.Page[Character]{
		Items: result.Results,
		Next:  result.NextURL(),
	}, nil
}
