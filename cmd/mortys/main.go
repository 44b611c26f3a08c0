package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/config"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib/log"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/llms"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/providers/rickandmorty"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/summary"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/tui"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to .env file")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	bootstrap := zerolog.Nop()
	cfg, err := config.LoadWithEnvFile(envFile, &bootstrap)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the UI, logs only go to LOG_FILE.
	logger, err := log.NewQuietLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx := context.Background()
	client := rickandmorty.NewClient(&cfg.RickAndMorty, logger)

	controller := search.NewController[rickandmorty.Character](logger, rickandmorty.NewCharacterFetcher(client), &cfg.Search)
	defer controller.Close()

	var summarizer *summary.Summarizer
	model, err := llms.NewCachedModelFromConfig(ctx, &cfg.LLM, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Language model unavailable, summaries disabled")
	} else {
		summarizer = summary.NewSummarizer(model, client, &cfg.Summary, logger)
	}

	m := tui.NewModel(controller, client, optionalSummarizer(summarizer), logger)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}

	return nil
}

// optionalSummarizer keeps a nil *Summarizer from becoming a non-nil interface.
func optionalSummarizer(s *summary.Summarizer) tui.CharacterSummarizer {
	if s == nil {
		return nil
	}
	return s
}
