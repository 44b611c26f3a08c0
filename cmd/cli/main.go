package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"

	appconfig "github.com/Vichigato-yt/pocketmortysprueba/pkg/config"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib/log"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/llms"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/markdown"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/providers/rickandmorty"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/summary"
)

const usage = `Usage: cli <command> [flags]

Commands:
  search   -q <name> [-pages N]               list matching characters as JSON lines
  detail   -id <id> [-id <id>...]              fetch characters concurrently as JSON lines
  summary  -id <id> [-raw] [-width N]          print the AI summary of a character

Logs are discarded unless LOG_FILE is set (LOG_FILE=/dev/stderr works).
`

type SearchConfig struct {
	Query       string
	Pages       int `validate:"gte=0"`
	EnvFilePath string
}

type DetailConfig struct {
	IDs            []int `validate:"required,min=1,dive,gt=0"`
	MaxConcurrency int   `validate:"gt=0"`
	EnvFilePath    string
}

type SummaryConfig struct {
	ID          int `validate:"gt=0"`
	Raw         bool
	Width       int `validate:"gte=20"`
	EnvFilePath string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "search":
		err = runSearch(ctx, os.Args[2:], os.Stdout)
	case "detail":
		err = runDetail(ctx, os.Args[2:], os.Stdout)
	case "summary":
		err = runSummary(ctx, os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSearch(ctx context.Context, args []string, out io.Writer) error {
	var config SearchConfig

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	fs.StringVar(&config.Query, "q", "", "Character name to search for (empty uses SEARCH_DEFAULT_QUERY)")
	fs.IntVar(&config.Pages, "pages", 1, "Maximum number of pages to load (0 = all)")
	fs.StringVar(&config.EnvFilePath, "env-file", ".env", "Path to .env file")
	_ = fs.Parse(args)

	if err := lib.ValidateStruct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	cfg, logger, err := setup(config.EnvFilePath)
	if err != nil {
		return err
	}

	client := rickandmorty.NewClient(&cfg.RickAndMorty, logger)
	controller := search.NewController[rickandmorty.Character](logger, rickandmorty.NewCharacterFetcher(client), &cfg.Search)
	defer controller.Close()

	return searchAll(ctx, controller, config.Query, config.Pages, json.NewEncoder(out))
}

// searchAll drives controller page by page, encoding each new item once.
// maxPages <= 0 loads every page.
func searchAll(ctx context.Context, controller *search.Controller[rickandmorty.Character], query string, maxPages int, enc *json.Encoder) error {
	controller.SetQuery(query)

	printed := 0
	for {
		snap, err := controller.Wait(ctx)
		if err != nil {
			return fmt.Errorf("wait for page: %w", err)
		}

		switch snap.State.Status {
		case search.StatusNotFound:
			return fmt.Errorf("no characters match %q: %w", snap.Query, search.ErrNotFound)
		case search.StatusFailed:
			return fmt.Errorf("fetch page %d: %w", snap.Page, snap.State.Err)
		}

		for _, c := range snap.Items[printed:] {
			if err := enc.Encode(c); err != nil {
				return fmt.Errorf("encode character: %w", err)
			}
		}
		printed = len(snap.Items)

		if maxPages > 0 && snap.Page >= maxPages {
			return nil
		}
		if !controller.LoadMore() {
			return nil
		}
	}
}

type detailResult struct {
	ID        int                     `json:"id"`
	Character *rickandmorty.Character `json:"character,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

func runDetail(ctx context.Context, args []string, out io.Writer) error {
	var config DetailConfig

	fs := flag.NewFlagSet("detail", flag.ExitOnError)
	fs.Var((*intSlice)(&config.IDs), "id", "Character ID to fetch (can be specified multiple times)")
	fs.IntVar(&config.MaxConcurrency, "max-concurrency", 5, "Maximum number of concurrent requests")
	fs.StringVar(&config.EnvFilePath, "env-file", ".env", "Path to .env file")
	_ = fs.Parse(args)

	if err := lib.ValidateStruct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	cfg, logger, err := setup(config.EnvFilePath)
	if err != nil {
		return err
	}

	client := rickandmorty.NewClient(&cfg.RickAndMorty, logger)
	results, err := fetchDetails(ctx, logger, client, config.IDs, config.MaxConcurrency)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d characters could not be fetched", failed, len(results))
	}
	return nil
}

type characterReader interface {
	Character(ctx context.Context, id int) (*rickandmorty.Character, error)
}

// fetchDetails reads ids through a bounded pool. Results keep the order of ids.
func fetchDetails(ctx context.Context, logger *zerolog.Logger, client characterReader, ids []int, maxConcurrency int) ([]detailResult, error) {
	pool := pond.NewResultPool[detailResult](maxConcurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, id := range ids {
		group.Submit(func() detailResult {
			character, err := client.Character(ctx, id)
			if err != nil {
				logger.Error().Err(err).Int("character_id", id).Msg("Error fetching character")
				return detailResult{ID: id, Error: err.Error()}
			}
			return detailResult{ID: id, Character: character}
		})
	}

	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("fetch characters: %w", err)
	}

	logger.Info().
		Int("requested", len(ids)).
		Int("max_concurrency", maxConcurrency).
		Msg("Fetched characters")

	return results, nil
}

func runSummary(ctx context.Context, args []string, out io.Writer) error {
	var config SummaryConfig

	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	fs.IntVar(&config.ID, "id", 0, "Character ID to summarize")
	fs.BoolVar(&config.Raw, "raw", false, "Print the Markdown returned by the model without rendering it")
	fs.IntVar(&config.Width, "width", 80, "Wrap width for rendered output")
	fs.StringVar(&config.EnvFilePath, "env-file", ".env", "Path to .env file")
	_ = fs.Parse(args)

	if err := lib.ValidateStruct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	cfg, logger, err := setup(config.EnvFilePath)
	if err != nil {
		return err
	}

	model, err := llms.NewCachedModelFromConfig(ctx, &cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("create completion model: %w", err)
	}

	client := rickandmorty.NewClient(&cfg.RickAndMorty, logger)
	character, err := client.Character(ctx, config.ID)
	if err != nil {
		if errors.Is(err, rickandmorty.ErrNotFound) {
			return fmt.Errorf("character %d does not exist", config.ID)
		}
		return fmt.Errorf("get character: %w", err)
	}

	summarizer := summary.NewSummarizer(model, client, &cfg.Summary, logger)
	text, err := summarizer.Summarize(ctx, character)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(summary.UserMessage(err)), err)
	}

	if !config.Raw {
		text = markdown.Render(text, config.Width)
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func setup(envFile string) (*appconfig.Config, *zerolog.Logger, error) {
	bootstrap := zerolog.Nop()
	cfg, err := appconfig.LoadWithEnvFile(envFile, &bootstrap)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := log.NewQuietLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

// intSlice implements flag.Value for int slices
type intSlice []int

func (s *intSlice) String() string {
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (s *intSlice) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", part, err)
		}
		*s = append(*s, v)
	}
	return nil
}
