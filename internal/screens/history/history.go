package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/chatcompare/internal/router"
	"github.com/abhisek/chatcompare/internal/run"
	"github.com/abhisek/chatcompare/internal/screen"
	"github.com/abhisek/chatcompare/internal/screens/results"
	"github.com/abhisek/chatcompare/internal/ui/layout"
	"github.com/abhisek/chatcompare/internal/ui/theme"
)

// Limit is how many runs the screen loads.
const Limit = 20

// Lister reads the most recent runs, newest first.
type Lister interface {
	ListRecent(ctx context.Context, limit int) ([]run.Record, error)
}

type historyLoadedMsg struct {
	Records []run.Record
	Err     error
}

// HistoryScreen lists past runs with expandable per-model results.
type HistoryScreen struct {
	lister   Lister
	records  []run.Record
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(lister Lister) *HistoryScreen {
	return &HistoryScreen{
		lister:   lister,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		records, err := s.lister.ListRecent(context.Background(), Limit)
		return historyLoadedMsg{Records: records, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.records = msg.Records
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.records)-1 {
				s.selected++
			}
		case "enter", "space", " ":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.records) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No runs yet. Start a comparison from the home screen.")
	}

	cw := min(width-4, 120)
	lines := []string{""}
	selectedLine := 0

	for i, rec := range s.records {
		if i == s.selected {
			selectedLine = len(lines)
		}
		lines = append(lines, s.renderRow(i, rec, cw))
		if s.expanded[i] {
			lines = append(lines, renderDetails(rec, cw)...)
		}
	}

	// Keep the selected row on screen.
	offset := max(selectedLine-height/2, 0)
	offset = min(offset, max(len(lines)-height, 0))
	return lipgloss.NewStyle().PaddingLeft(2).Render(
		strings.Join(layout.Clip(lines, offset, height), "\n"))
}

func (s *HistoryScreen) renderRow(i int, rec run.Record, width int) string {
	prefix := "  "
	style := theme.Unselected
	if i == s.selected {
		prefix = "▸ "
		style = theme.Selected
	}
	marker := "+"
	if s.expanded[i] {
		marker = "-"
	}

	head := fmt.Sprintf("%s%s #%d  %s  %d/%d ok  %d/%d tokens  ",
		prefix, marker, rec.ID, rec.CreatedAt.Local().Format("Jan 02 15:04"),
		rec.Results.Succeeded(), len(rec.Results), rec.PromptTokens, rec.CompletionTokens)
	cost := results.FormatCost(rec.Cost)
	prompt := layout.Truncate(oneLine(rec.UserPrompt),
		max(width-lipgloss.Width(head)-lipgloss.Width(cost)-2, 8))

	return style.Render(head) + theme.Cost.Render(cost) + "  " + theme.Hint.Render(prompt)
}

func renderDetails(rec run.Record, width int) []string {
	var lines []string
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	if rec.SystemPrompt != "" {
		for _, l := range layout.Wrap("System: "+rec.SystemPrompt, width-4) {
			lines = append(lines, "    "+dim.Render(l))
		}
	}
	for _, l := range layout.Wrap("User: "+rec.UserPrompt, width-4) {
		lines = append(lines, "    "+theme.Body.Render(l))
	}
	lines = append(lines, "    "+dim.Render(fmt.Sprintf(
		"temperature %g  top_p %g  max_tokens %d  frequency_penalty %g  presence_penalty %g",
		rec.Temperature, rec.TopP, rec.MaxTokens, rec.FrequencyPenalty, rec.PresencePenalty)))

	for _, r := range rec.Results {
		for _, l := range strings.Split(results.RenderCard(r, width-4), "\n") {
			lines = append(lines, "    "+l)
		}
	}
	return append(lines, "")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
