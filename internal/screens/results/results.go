package results

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/chatcompare/internal/router"
	"github.com/abhisek/chatcompare/internal/run"
	"github.com/abhisek/chatcompare/internal/screen"
	"github.com/abhisek/chatcompare/internal/ui/layout"
	"github.com/abhisek/chatcompare/internal/ui/theme"
)

// ResultsScreen shows one card per model for a finished run.
type ResultsScreen struct {
	summary *run.Summary
	warning string
	offset  int
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New creates a ResultsScreen. warning is shown above the cards when set.
func New(summary *run.Summary, warning string) *ResultsScreen {
	return &ResultsScreen{summary: summary, warning: warning}
}

func (s *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultsScreen) Title() string {
	if s.summary != nil && s.summary.ID > 0 {
		return fmt.Sprintf("Run #%d", s.summary.ID)
	}
	return "Results"
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Edit prompt"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "esc", "enter":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			s.offset++
		case "home", "g":
			s.offset = 0
		}
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	if s.summary == nil {
		return ""
	}
	lines := RenderLines(s.summary, s.warning, min(width-4, 120))
	s.offset = min(s.offset, max(len(lines)-height, 0))
	return lipgloss.NewStyle().PaddingLeft(2).Render(
		strings.Join(layout.Clip(lines, s.offset, height), "\n"))
}

// RenderLines renders the totals line followed by a card per model, in
// request order. The history screen reuses it for expanded rows.
func RenderLines(sum *run.Summary, warning string, width int) []string {
	var lines []string
	lines = append(lines, "")

	total := fmt.Sprintf("%d/%d models succeeded   tokens %d in / %d out   ",
		sum.Results.Succeeded(), len(sum.Results), sum.PromptTokens, sum.CompletionTokens)
	lines = append(lines, theme.Body.Render(total)+theme.Cost.Render(FormatCost(sum.Cost)))
	if warning != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Accent).Render(warning))
	}
	lines = append(lines, "")

	for _, r := range sum.Results {
		card := RenderCard(r, width)
		lines = append(lines, strings.Split(card, "\n")...)
	}
	return lines
}

// RenderCard renders a single model's outcome in a bordered card.
func RenderCard(r run.Result, width int) string {
	inner := max(width-4, 10)

	var body strings.Builder
	if r.Outcome.IsSuccess() {
		body.WriteString(theme.Completion.Render("● "+r.Model) + "\n")
		body.WriteString(strings.Join(layout.Wrap(r.Outcome.Text(), inner), "\n") + "\n")
		body.WriteString(theme.Hint.Render(fmt.Sprintf("tokens %d in / %d out   ",
			r.Outcome.PromptTokens(), r.Outcome.CompletionTokens())))
		body.WriteString(theme.Cost.Render(FormatCost(r.Outcome.Cost())))
	} else {
		body.WriteString(theme.Failure.Render("✗ "+r.Model) + "\n")
		body.WriteString(lipgloss.NewStyle().Foreground(theme.Error).
			Render(strings.Join(layout.Wrap("Error: "+r.Outcome.Err(), inner), "\n")))
	}

	return theme.Card.Width(width).Render(body.String())
}

// FormatCost renders a USD amount with enough precision for small calls.
func FormatCost(c float64) string {
	if c == 0 {
		return "$0"
	}
	if c < 0.01 {
		return fmt.Sprintf("$%.6f", c)
	}
	return fmt.Sprintf("$%.4f", c)
}
