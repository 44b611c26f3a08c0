package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/markdown"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/providers/rickandmorty"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/summary"
)

const title = "Morty Selector Index"

func (m *Model) View() string {
	if m.mode == detailView {
		return m.detailView()
	}
	return m.listView()
}

func (m *Model) listView() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.query.View())
	b.WriteString("\n")
	if m.filtering {
		b.WriteString(m.styles.FilterTag.Render(m.filter.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.listBody())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.listHelp()))

	return b.String()
}

func (m *Model) listBody() string {
	s := m.snapshot
	state := s.State

	switch {
	case state.IsLoading() && len(s.Items) == 0:
		return fmt.Sprintf("%s Opening portal to %q...\n", m.spinner.View(), s.Query)

	case state.Status == search.StatusNotFound:
		return m.styles.Panel.Render(
			m.styles.NotFound.Render("404")+"\n"+
				"Character not found! Try another universe.\n"+
				m.styles.Dim.Render("ctrl+r to try again"),
		) + "\n"

	case state.Status == search.StatusFailed && len(s.Items) == 0:
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", state.Err)) + "\n" +
			m.styles.Dim.Render("ctrl+r to retry") + "\n"

	case state.Status == search.StatusIdle:
		return m.styles.Dim.Render("Type a name to start searching.") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.rows())
	b.WriteString(m.listFooter())
	return b.String()
}

func (m *Model) rows() string {
	items := m.visibleItems()
	if len(items) == 0 {
		if m.filtering {
			return m.styles.Dim.Render("No loaded character matches the filter.") + "\n"
		}
		return m.styles.Dim.Render("No characters.") + "\n"
	}

	start, end := m.window(len(items))

	var b strings.Builder
	for i := start; i < end; i++ {
		c := items[i]
		line := fmt.Sprintf("%s · %s · %s", c.Name, c.Species, c.Status)
		if i == m.selected {
			b.WriteString(m.styles.Selected.Render("▸ " + line))
		} else {
			b.WriteString(m.styles.Item.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// window returns the visible slice of rows keeping the selection on screen.
func (m *Model) window(n int) (int, int) {
	rows := m.height - 10
	if rows < 3 {
		rows = 3
	}
	if n <= rows {
		return 0, n
	}

	start := m.selected - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

func (m *Model) listFooter() string {
	s := m.snapshot
	var footer string

	switch {
	case s.State.Status == search.StatusLoading:
		footer = fmt.Sprintf("%s Loading more characters...", m.spinner.View())
	case s.State.Status == search.StatusFailed:
		footer = m.styles.Error.Render(fmt.Sprintf("Error: %v", s.State.Err)) + " " +
			m.styles.Dim.Render("(ctrl+r to retry)")
	case s.HasMore():
		footer = m.styles.Dim.Render(fmt.Sprintf("%d characters loaded. ctrl+l or ↓ at the end to load more.", len(s.Items)))
	default:
		footer = m.styles.Dim.Render("No more characters.")
	}

	return m.styles.Footer.Render(footer) + "\n"
}

func (m *Model) detailView() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")

	d := m.detail
	switch {
	case d.loading:
		b.WriteString(fmt.Sprintf("%s Loading character #%d...\n", m.spinner.View(), d.id))
	case d.err != nil:
		b.WriteString(m.styles.Error.Render(fmt.Sprintf("Could not load character #%d: %v", d.id, d.err)))
		b.WriteString("\n")
	case d.character != nil:
		b.WriteString(m.characterCard(d.character))
		b.WriteString(m.summarySection())
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.detailHelp()))

	return b.String()
}

func (m *Model) characterCard(c *rickandmorty.Character) string {
	field := func(label, value string) string {
		if value == "" {
			value = "unknown"
		}
		return m.styles.Label.Render(label+":") + " " + value
	}

	lines := []string{
		m.styles.Name.Render(c.Name),
		field("Status", c.Status),
		field("Species", c.Species),
		field("Gender", c.Gender),
		field("Origin", c.Origin.DisplayName()),
		field("Location", c.Location.DisplayName()),
		field("Episodes", fmt.Sprint(len(c.Episode))),
	}
	if c.Type != "" {
		lines = append(lines, field("Type", c.Type))
	}

	return m.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}

func (m *Model) summarySection() string {
	d := m.detail
	header := m.styles.Section.Render("Character Analysis") + "\n"

	switch {
	case d.summaryLoading:
		return header + fmt.Sprintf("%s Consulting the Citadel...\n", m.spinner.View())
	case errors.Is(d.summaryErr, errSummaryUnavailable):
		return header + m.styles.Dim.Render("AI summary unavailable: no language model configured.") + "\n"
	case d.summaryErr != nil:
		return header + m.styles.Error.Render(summary.UserMessage(d.summaryErr)) + "\n"
	case d.summary != "":
		return header + markdown.Render(d.summary, m.contentWidth()) + "\n"
	default:
		return header + m.styles.Dim.Render("Press s to ask the AI about this character.") + "\n"
	}
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width - 2
}
