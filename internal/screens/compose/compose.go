package compose

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/chatcompare/internal/router"
	"github.com/abhisek/chatcompare/internal/run"
	"github.com/abhisek/chatcompare/internal/screen"
	"github.com/abhisek/chatcompare/internal/screens/results"
	"github.com/abhisek/chatcompare/internal/ui/components"
	"github.com/abhisek/chatcompare/internal/ui/layout"
	"github.com/abhisek/chatcompare/internal/ui/theme"
)

// RunFunc executes one comparison. apiKey is whatever was typed into the
// key field and is empty when the environment already has credentials.
type RunFunc func(ctx context.Context, req run.Request, apiKey string) (*run.Summary, error)

// Options configures a ComposeScreen.
type Options struct {
	Models   []string
	NeedsKey bool
	Run      RunFunc
}

// RunFinishedMsg carries the outcome of a comparison back to the screen.
type RunFinishedMsg struct {
	Summary *run.Summary
	Err     error
}

type field int

const (
	fieldKey field = iota
	fieldSystem
	fieldUser
	fieldModels
	fieldTemperature
	fieldTopP
	fieldMaxTokens
	fieldFrequency
	fieldPresence
	fieldRun
	fieldCount
)

// Slider ranges offered by the form.
const (
	maxTemperature = 2.0
	maxTopP        = 1.0
	maxTokensLimit = 4096
	penaltyBound   = 2.0
)

// ComposeScreen is the prompt form: prompts, model selection and parameters.
type ComposeScreen struct {
	opts Options

	apiKey components.TextInput
	system textarea.Model
	user   textarea.Model
	models components.MultiSelect

	temperature components.TextInput
	topP        components.TextInput
	maxTokens   components.TextInput
	frequency   components.TextInput
	presence    components.TextInput

	button  components.Button
	focus   field
	running bool
	status  string
}

var _ screen.Screen = (*ComposeScreen)(nil)
var _ screen.KeyHintProvider = (*ComposeScreen)(nil)

// New creates a ComposeScreen pre-filled with the default request.
func New(opts Options) *ComposeScreen {
	def := run.DefaultRequest()

	s := &ComposeScreen{
		opts:        opts,
		apiKey:      components.NewPasswordInput("sk-..."),
		system:      newPromptArea("You are a helpful assistant.", 2),
		user:        newPromptArea("Ask something...", 4),
		models:      components.NewMultiSelect(opts.Models, def.Models...),
		temperature: numberInput(def.Temperature),
		topP:        numberInput(def.TopP),
		maxTokens:   numberInput(float64(def.MaxTokens)),
		frequency:   numberInput(def.FrequencyPenalty),
		presence:    numberInput(def.PresencePenalty),
	}
	s.button = components.NewButton("Run comparison", false, s.submit)

	s.focus = fieldUser
	if opts.NeedsKey {
		s.focus = fieldKey
	}
	return s
}

func newPromptArea(placeholder string, height int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(height)
	return ta
}

func numberInput(v float64) components.TextInput {
	ti := components.NewTextInput("", true, 8)
	ti.SetValue(strconv.FormatFloat(v, 'g', -1, 64))
	return ti
}

func (s *ComposeScreen) Init() tea.Cmd {
	return s.applyFocus()
}

func (s *ComposeScreen) Title() string {
	return "New Comparison"
}

func (s *ComposeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Space", Description: "Toggle model"},
		{Key: "Ctrl+R", Description: "Run"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ComposeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case RunFinishedMsg:
		return s, s.finish(msg)

	case tea.KeyMsg:
		if s.running {
			return s, nil
		}
		switch msg.String() {
		case "tab":
			return s, s.moveFocus(1)
		case "shift+tab":
			return s, s.moveFocus(-1)
		case "ctrl+r":
			return s, s.submit()
		}
	}

	return s, s.updateFocused(msg)
}

func (s *ComposeScreen) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.focus {
	case fieldKey:
		s.apiKey, cmd = s.apiKey.Update(msg)
	case fieldSystem:
		s.system, cmd = s.system.Update(msg)
	case fieldUser:
		s.user, cmd = s.user.Update(msg)
	case fieldModels:
		s.models, cmd = s.models.Update(msg)
	case fieldTemperature:
		s.temperature, cmd = s.temperature.Update(msg)
	case fieldTopP:
		s.topP, cmd = s.topP.Update(msg)
	case fieldMaxTokens:
		s.maxTokens, cmd = s.maxTokens.Update(msg)
	case fieldFrequency:
		s.frequency, cmd = s.frequency.Update(msg)
	case fieldPresence:
		s.presence, cmd = s.presence.Update(msg)
	case fieldRun:
		s.button, cmd = s.button.Update(msg)
	}
	return cmd
}

func (s *ComposeScreen) moveFocus(delta int) tea.Cmd {
	next := s.focus
	for {
		next = field((int(next) + delta + int(fieldCount)) % int(fieldCount))
		if next != fieldKey || s.opts.NeedsKey {
			break
		}
	}
	s.focus = next
	return s.applyFocus()
}

func (s *ComposeScreen) applyFocus() tea.Cmd {
	s.apiKey.Blur()
	s.system.Blur()
	s.user.Blur()
	s.temperature.Blur()
	s.topP.Blur()
	s.maxTokens.Blur()
	s.frequency.Blur()
	s.presence.Blur()
	s.models.Focused = s.focus == fieldModels
	s.button.Active = s.focus == fieldRun

	switch s.focus {
	case fieldKey:
		return s.apiKey.Focus()
	case fieldSystem:
		return s.system.Focus()
	case fieldUser:
		return s.user.Focus()
	case fieldTemperature:
		return s.temperature.Focus()
	case fieldTopP:
		return s.topP.Focus()
	case fieldMaxTokens:
		return s.maxTokens.Focus()
	case fieldFrequency:
		return s.frequency.Focus()
	case fieldPresence:
		return s.presence.Focus()
	}
	return nil
}

// request builds a run request from the form, marking any parameter that
// fails to parse or falls outside its range.
func (s *ComposeScreen) request() (run.Request, error) {
	req := run.Request{
		SystemPrompt: s.system.Value(),
		UserPrompt:   s.user.Value(),
		Models:       s.models.Selected(),
	}

	var bad []string
	parse := func(name string, in *components.TextInput, lo, hi float64) float64 {
		v, err := in.FloatValue()
		if err != nil || v < lo || v > hi {
			in.SetInvalid(true)
			bad = append(bad, name)
			return 0
		}
		return v
	}
	req.Temperature = parse("temperature", &s.temperature, 0, maxTemperature)
	req.TopP = parse("top_p", &s.topP, 0, maxTopP)
	req.FrequencyPenalty = parse("frequency_penalty", &s.frequency, -penaltyBound, penaltyBound)
	req.PresencePenalty = parse("presence_penalty", &s.presence, -penaltyBound, penaltyBound)

	if n, err := s.maxTokens.IntValue(); err != nil || n < 1 || n > maxTokensLimit {
		s.maxTokens.SetInvalid(true)
		bad = append(bad, "max_tokens")
	} else {
		req.MaxTokens = n
	}

	if len(bad) > 0 {
		return req, fmt.Errorf("invalid %s", strings.Join(bad, ", "))
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		return req, errors.New("enter a user prompt")
	}
	if len(req.Models) == 0 {
		return req, errors.New("select at least one model")
	}
	return req, nil
}

func (s *ComposeScreen) submit() tea.Cmd {
	if s.running || s.opts.Run == nil {
		return nil
	}
	req, err := s.request()
	if err != nil {
		s.status = err.Error()
		return nil
	}

	s.running = true
	s.status = fmt.Sprintf("Running %d model(s)...", len(req.Models))
	key := strings.TrimSpace(s.apiKey.Value())
	runFn := s.opts.Run

	return func() tea.Msg {
		sum, err := runFn(context.Background(), req, key)
		return RunFinishedMsg{Summary: sum, Err: err}
	}
}

func (s *ComposeScreen) finish(msg RunFinishedMsg) tea.Cmd {
	s.running = false
	s.status = ""

	var persistErr *run.PersistError
	switch {
	case msg.Err == nil && msg.Summary != nil:
		return pushResults(results.New(msg.Summary, ""))
	case errors.As(msg.Err, &persistErr) && msg.Summary != nil:
		return pushResults(results.New(msg.Summary, "Results were not saved: "+persistErr.Err.Error()))
	case errors.Is(msg.Err, run.ErrNoCredentials):
		s.status = "No API key configured. Enter one above."
		s.opts.NeedsKey = true
		s.focus = fieldKey
		return s.applyFocus()
	case msg.Err != nil:
		s.status = msg.Err.Error()
	}
	return nil
}

func pushResults(sc screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: sc} }
}

func (s *ComposeScreen) View(width, height int) string {
	w := min(width-4, 100)
	s.system.SetWidth(w)
	s.user.SetWidth(w)

	var b strings.Builder
	b.WriteString("\n")

	if s.opts.NeedsKey {
		b.WriteString(s.label("API key", fieldKey) + "  " + s.apiKey.View() + "\n\n")
	}
	b.WriteString(s.label("System prompt", fieldSystem) + "\n")
	b.WriteString(s.system.View() + "\n\n")
	b.WriteString(s.label("User prompt", fieldUser) + "\n")
	b.WriteString(s.user.View() + "\n\n")

	modelCol := s.label("Models", fieldModels) + "\n" + s.models.View()
	paramCol := strings.Join([]string{
		s.label("Parameters", -1),
		s.param("Temperature", fieldTemperature, s.temperature),
		s.param("Top P", fieldTopP, s.topP),
		s.param("Max tokens", fieldMaxTokens, s.maxTokens),
		s.param("Frequency penalty", fieldFrequency, s.frequency),
		s.param("Presence penalty", fieldPresence, s.presence),
	}, "\n")
	colWidth := w / 2
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(colWidth).Render(modelCol),
		lipgloss.NewStyle().Width(colWidth).Render(paramCol),
	))
	b.WriteString("\n\n")

	b.WriteString(s.button.View())
	if s.status != "" {
		style := theme.Hint
		if !s.running {
			style = lipgloss.NewStyle().Foreground(theme.Error)
		}
		b.WriteString("  " + style.Render(s.status))
	}

	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

func (s *ComposeScreen) label(text string, f field) string {
	if s.focus == f {
		return theme.Selected.Render("▸ " + text)
	}
	return theme.Label.Render("  " + text)
}

func (s *ComposeScreen) param(name string, f field, in components.TextInput) string {
	return s.label(fmt.Sprintf("%-18s", name), f) + in.View()
}
