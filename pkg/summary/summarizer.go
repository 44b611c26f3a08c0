package summary

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/providers/rickandmorty"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/sync/errgroup"
)

//go:embed summarize-character.md
var summarizeCharacterPrompt string

type completionModel interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

type characterSource interface {
	EpisodeByURL(ctx context.Context, url string) (*rickandmorty.Episode, error)
	CharacterByURL(ctx context.Context, url string) (*rickandmorty.Character, error)
}

// Summarizer asks a language model for a short write-up about a character,
// using the episodes it appears in and who it appears with as context.
type Summarizer struct {
	model  completionModel
	source characterSource
	config *Config
	logger *zerolog.Logger
}

func NewSummarizer(model completionModel, source characterSource, config *Config, logger *zerolog.Logger) *Summarizer {
	return &Summarizer{
		model:  model,
		source: source,
		config: config,
		logger: logger,
	}
}

// Context is the material the prompt is built from.
type Context struct {
	Episodes []*rickandmorty.Episode
	Related  []string
}

func (s *Summarizer) Summarize(ctx context.Context, character *rickandmorty.Character) (string, error) {
	summaryCtx, err := s.GatherContext(ctx, character)
	if err != nil {
		return "", fmt.Errorf("gather context: %w", err)
	}

	prompt, err := s.BuildPrompt(character, summaryCtx)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	out, err := s.model.Call(ctx, prompt)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("character_id", character.ID).
			Str("prompt", prompt).
			Msg("Error generating character summary")
		return "", fmt.Errorf("generate completion: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// GatherContext fetches the first episodes of the character and the names
// of other characters appearing in them.
func (s *Summarizer) GatherContext(ctx context.Context, character *rickandmorty.Character) (*Context, error) {
	episodeURLs := firstN(character.Episode, s.config.Episodes)
	episodes := make([]*rickandmorty.Episode, len(episodeURLs))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range episodeURLs {
		g.Go(func() error {
			episode, err := s.source.EpisodeByURL(gctx, u)
			if err != nil {
				return fmt.Errorf("fetch episode %s: %w", u, err)
			}
			episodes[i] = episode
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	relatedURLs := relatedCharacterURLs(character, episodes, s.config.Related)
	related := make([]string, len(relatedURLs))

	g, gctx = errgroup.WithContext(ctx)
	for i, u := range relatedURLs {
		g.Go(func() error {
			c, err := s.source.CharacterByURL(gctx, u)
			if err != nil {
				return fmt.Errorf("fetch related character %s: %w", u, err)
			}
			related[i] = c.Name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("character_id", character.ID).
		Int("episodes", len(episodes)).
		Strs("related", related).
		Msg("Gathered summary context")

	return &Context{Episodes: episodes, Related: related}, nil
}

func (s *Summarizer) BuildPrompt(character *rickandmorty.Character, summaryCtx *Context) (string, error) {
	template := prompts.NewPromptTemplate(summarizeCharacterPrompt, []string{
		"name",
		"species",
		"status",
		"episodes",
		"related",
		"language",
	})

	episodes := make([]string, 0, len(summaryCtx.Episodes))
	for _, e := range summaryCtx.Episodes {
		episodes = append(episodes, fmt.Sprintf("%s - %s", e.Code(), e.Name))
	}

	return template.Format(map[string]any{
		"name":     character.Name,
		"species":  character.Species,
		"status":   character.Status,
		"episodes": joinOrNone(episodes),
		"related":  joinOrNone(summaryCtx.Related),
		"language": s.config.Language,
	})
}

// relatedCharacterURLs collects up to limit distinct characters from the
// episodes, in order of appearance, excluding the character itself.
func relatedCharacterURLs(character *rickandmorty.Character, episodes []*rickandmorty.Episode, limit int) []string {
	self := "/" + strconv.Itoa(character.ID)
	seen := make(map[string]bool)
	out := make([]string, 0, limit)

	for _, e := range episodes {
		for _, u := range e.Characters {
			if len(out) == limit {
				return out
			}
			if u == character.URL || strings.HasSuffix(u, self) || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}

	return out
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

// IsConnectionError reports whether err was caused by the network rather
// than by the model or the API answering with an error.
func IsConnectionError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// UserMessage converts a summary error into a short message for display.
func UserMessage(err error) string {
	if IsConnectionError(err) {
		return "⚠️ Connection error. Check your internet."
	}
	return "⚠️ Could not get an answer from the model."
}
