package app

import (
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/chatcompare/internal/router"
	"github.com/abhisek/chatcompare/internal/screen"
	"github.com/abhisek/chatcompare/internal/screens/compose"
	"github.com/abhisek/chatcompare/internal/screens/history"
	"github.com/abhisek/chatcompare/internal/screens/home"
	"github.com/abhisek/chatcompare/internal/screens/results"
	"github.com/abhisek/chatcompare/internal/ui/layout"
)

// Options wires the dashboard to the rest of the application.
type Options struct {
	Run       compose.RunFunc
	History   history.Lister
	Models    []string
	Providers []string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router    *router.Router
	providers []string
	spend     float64
	width     int
	height    int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(opts Options) AppModel {
	homeScreen := home.New(home.Options{
		Compose: compose.Options{
			Models:   opts.Models,
			NeedsKey: len(opts.Providers) == 0,
			Run:      opts.Run,
		},
		History:   opts.History,
		Providers: opts.Providers,
	})
	return AppModel{
		router:    router.New(homeScreen),
		providers: opts.Providers,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case compose.RunFinishedMsg:
		if msg.Summary != nil {
			m.spend += msg.Summary.Cost
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) status() string {
	providers := "no API key"
	if len(m.providers) > 0 {
		providers = strings.Join(m.providers, " · ")
	}
	return providers + "   " + results.FormatCost(m.spend) + " this session"
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current terminal size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(), m.width)
	footer := layout.RenderFooter(m.keyHints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) keyHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return append(p.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
