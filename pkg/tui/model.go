// Package tui is the terminal front end: a searchable, paginated character
// list backed by search.Controller and a detail view with an AI summary.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/providers/rickandmorty"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
)

// CharacterLoader reads a single character for the detail view.
type CharacterLoader interface {
	Character(ctx context.Context, id int) (*rickandmorty.Character, error)
}

// CharacterSummarizer produces the AI write-up shown in the detail view.
type CharacterSummarizer interface {
	Summarize(ctx context.Context, character *rickandmorty.Character) (string, error)
}

type viewMode int

const (
	listView viewMode = iota
	detailView
)

type controllerChangedMsg struct{}

type characterLoadedMsg struct {
	id        int
	character *rickandmorty.Character
	err       error
}

type summaryLoadedMsg struct {
	id   int
	text string
	err  error
}

type detailState struct {
	id        int
	character *rickandmorty.Character
	loading   bool
	err       error
	cancel    context.CancelFunc

	summary        string
	summaryLoading bool
	summaryErr     error
}

type Model struct {
	controller *search.Controller[rickandmorty.Character]
	characters CharacterLoader
	summarizer CharacterSummarizer
	logger     *zerolog.Logger

	keys    keyMap
	styles  styles
	help    help.Model
	spinner spinner.Model
	query   textinput.Model
	filter  textinput.Model

	mode      viewMode
	filtering bool
	snapshot  search.Snapshot[rickandmorty.Character]
	selected  int
	detail    detailState

	width  int
	height int
}

// NewModel wires the list to controller. summarizer may be nil when no
// language model is configured.
func NewModel(
	controller *search.Controller[rickandmorty.Character],
	characters CharacterLoader,
	summarizer CharacterSummarizer,
	logger *zerolog.Logger,
) *Model {
	query := textinput.New()
	query.Placeholder = "Search character..."
	query.Prompt = "🔍 "
	query.SetValue(controller.Snapshot().Query)
	query.Focus()

	filter := textinput.New()
	filter.Placeholder = "Filter loaded characters..."
	filter.Prompt = "⚗ "

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Model{
		controller: controller,
		characters: characters,
		summarizer: summarizer,
		logger:     logger,
		keys:       defaultKeyMap(),
		styles:     newStyles(),
		help:       help.New(),
		spinner:    s,
		query:      query,
		filter:     filter,
		snapshot:   controller.Snapshot(),
		height:     24,
	}
}

func (m *Model) Init() tea.Cmd {
	m.controller.SetQuery(m.query.Value())
	m.snapshot = m.controller.Snapshot()

	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForChange())
}

// waitForChange turns the controller's change signal into a tea.Msg.
func (m *Model) waitForChange() tea.Cmd {
	changes := m.controller.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return controllerChangedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case controllerChangedMsg:
		m.syncSnapshot()
		return m, m.waitForChange()

	case characterLoadedMsg:
		m.handleCharacterLoaded(msg)
		return m, nil

	case summaryLoadedMsg:
		m.handleSummaryLoaded(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.closeDetail()
			return m, tea.Quit
		}
		if m.mode == detailView {
			return m, m.updateDetail(msg)
		}
		return m, m.updateList(msg)
	}

	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return nil

	case key.Matches(msg, m.keys.Down):
		visible := m.visibleItems()
		if m.selected < len(visible)-1 {
			m.selected++
			return nil
		}
		// Scrolling past the end asks for the next page.
		if !m.filtering {
			m.loadMore()
		}
		return nil

	case key.Matches(msg, m.keys.LoadMore):
		m.loadMore()
		return nil

	case key.Matches(msg, m.keys.Retry):
		if m.controller.Retry() {
			m.syncSnapshot()
		}
		return nil

	case key.Matches(msg, m.keys.Filter):
		m.toggleFilter()
		return nil

	case key.Matches(msg, m.keys.Open):
		visible := m.visibleItems()
		if len(visible) == 0 {
			return nil
		}
		return m.openDetail(visible[m.selected])
	}

	if m.filtering {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.clampSelection()
		return cmd
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() != before {
		m.controller.SetQuery(m.query.Value())
		m.selected = 0
		m.syncSnapshot()
	}
	return cmd
}

func (m *Model) updateDetail(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeDetail()
		m.mode = listView
		return nil

	case key.Matches(msg, m.keys.Retry):
		if m.detail.err != nil {
			return m.openDetail(rickandmorty.Character{ID: m.detail.id})
		}
		return nil

	case key.Matches(msg, m.keys.Summary):
		return m.requestSummary()
	}

	return nil
}

func (m *Model) loadMore() {
	if m.controller.LoadMore() {
		m.syncSnapshot()
	}
}

func (m *Model) toggleFilter() {
	m.filtering = !m.filtering
	if m.filtering {
		m.query.Blur()
		m.filter.Focus()
	} else {
		m.filter.Blur()
		m.filter.SetValue("")
		m.query.Focus()
	}
	m.clampSelection()
}

func (m *Model) syncSnapshot() {
	m.snapshot = m.controller.Snapshot()
	m.clampSelection()
}

func (m *Model) clampSelection() {
	n := len(m.visibleItems())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// visibleItems applies the local fuzzy filter to the loaded characters.
func (m *Model) visibleItems() []rickandmorty.Character {
	needle := m.filter.Value()
	if !m.filtering || needle == "" {
		return m.snapshot.Items
	}

	out := make([]rickandmorty.Character, 0, len(m.snapshot.Items))
	for _, c := range m.snapshot.Items {
		if fuzzy.MatchNormalizedFold(needle, c.Name) || fuzzy.MatchNormalizedFold(needle, c.Species) {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) openDetail(c rickandmorty.Character) tea.Cmd {
	m.closeDetail()

	ctx, cancel := context.WithCancel(context.Background())
	m.mode = detailView
	m.detail = detailState{id: c.ID, loading: true, cancel: cancel}

	id := c.ID
	characters := m.characters
	return func() tea.Msg {
		character, err := characters.Character(ctx, id)
		return characterLoadedMsg{id: id, character: character, err: err}
	}
}

// closeDetail cancels any request owned by the detail view.
func (m *Model) closeDetail() {
	if m.detail.cancel != nil {
		m.detail.cancel()
	}
	m.detail = detailState{}
}

func (m *Model) handleCharacterLoaded(msg characterLoadedMsg) {
	if m.mode != detailView || msg.id != m.detail.id || errors.Is(msg.err, context.Canceled) {
		return
	}

	m.detail.loading = false
	if msg.err != nil {
		m.logger.Warn().Err(msg.err).Int("character_id", msg.id).Msg("Failed to load character")
		m.detail.err = msg.err
		return
	}

	m.detail.err = nil
	m.detail.character = msg.character
}

func (m *Model) requestSummary() tea.Cmd {
	character := m.detail.character
	if character == nil || m.detail.summaryLoading || m.detail.summary != "" {
		return nil
	}

	if m.summarizer == nil {
		m.detail.summaryErr = errSummaryUnavailable
		return nil
	}

	m.detail.summaryLoading = true
	m.detail.summaryErr = nil

	// The detail context also bounds the summary: leaving the view cancels it.
	ctx := context.Background()
	if m.detail.cancel != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		parentCancel := m.detail.cancel
		m.detail.cancel = func() {
			cancel()
			parentCancel()
		}
	}

	summarizer := m.summarizer
	return func() tea.Msg {
		text, err := summarizer.Summarize(ctx, character)
		return summaryLoadedMsg{id: character.ID, text: text, err: err}
	}
}

func (m *Model) handleSummaryLoaded(msg summaryLoadedMsg) {
	if m.mode != detailView || msg.id != m.detail.id || errors.Is(msg.err, context.Canceled) {
		return
	}

	m.detail.summaryLoading = false
	if msg.err != nil {
		m.logger.Error().Err(msg.err).Int("character_id", msg.id).Msg("Failed to summarize character")
		m.detail.summaryErr = msg.err
		return
	}

	m.detail.summary = msg.text
}

var errSummaryUnavailable = errors.New("no language model configured")
