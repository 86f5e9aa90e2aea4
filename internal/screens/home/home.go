package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/chatcompare/internal/router"
	"github.com/abhisek/chatcompare/internal/screen"
	"github.com/abhisek/chatcompare/internal/screens/compose"
	"github.com/abhisek/chatcompare/internal/screens/history"
	"github.com/abhisek/chatcompare/internal/screens/results"
	"github.com/abhisek/chatcompare/internal/ui/components"
	"github.com/abhisek/chatcompare/internal/ui/theme"
)

// Options configures the home screen and the screens it opens.
type Options struct {
	Compose   compose.Options
	History   history.Lister
	Providers []string
}

type statsLoadedMsg struct {
	Runs int
	Cost float64
	Err  error
}

// HomeScreen is the entry menu.
type HomeScreen struct {
	opts   Options
	menu   components.Menu
	runs   int
	cost   float64
	loaded bool
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(opts Options) *HomeScreen {
	items := []components.MenuItem{
		{Label: "NEW COMPARISON", Description: "send one prompt to several models", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: compose.New(opts.Compose)}
			}
		}},
		{Label: "HISTORY", Description: fmt.Sprintf("last %d runs", history.Limit), Disabled: opts.History == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(opts.History)}
			}
		}},
		{Label: "QUIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		opts: opts,
		menu: components.NewMenu(items),
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	if h.opts.History == nil {
		return nil
	}
	lister := h.opts.History
	return func() tea.Msg {
		recs, err := lister.ListRecent(context.Background(), history.Limit)
		if err != nil {
			return statsLoadedMsg{Err: err}
		}
		var cost float64
		for _, r := range recs {
			cost += r.Cost
		}
		return statsLoadedMsg{Runs: len(recs), Cost: cost}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.Err == nil {
			h.runs = msg.Runs
			h.cost = msg.Cost
			h.loaded = true
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string

	sections = append(sections, theme.Title.Render("ChatCompare"))
	sections = append(sections, theme.Subtitle.Render("Compare chat model answers, token usage and cost side by side."))

	var status string
	if len(h.opts.Providers) == 0 {
		status = lipgloss.NewStyle().Foreground(theme.Accent).
			Render("No API key configured. You will be asked for one before running.")
	} else {
		status = theme.Body.Render("Providers: " + strings.Join(h.opts.Providers, ", "))
	}
	sections = append(sections, status)

	if h.loaded {
		sections = append(sections, theme.Hint.Render(fmt.Sprintf(
			"%d recent run(s), %s total", h.runs, results.FormatCost(h.cost))))
	}

	sections = append(sections, h.menu.View())

	content := strings.Join(sections, "\n\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Card.Padding(1, 4).Render(content))
}

func (h *HomeScreen) Title() string {
	return "Home"
}
