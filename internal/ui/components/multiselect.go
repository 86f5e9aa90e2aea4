package components

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/chatcompare/internal/ui/theme"
)

// MultiSelect is a checkbox list. Selection order follows option order.
type MultiSelect struct {
	Options  []string
	Cursor   int
	Focused  bool
	selected map[int]bool
}

// NewMultiSelect creates a checkbox list with the given options checked.
func NewMultiSelect(options []string, checked ...string) MultiSelect {
	m := MultiSelect{
		Options:  options,
		selected: make(map[int]bool),
	}
	for _, c := range checked {
		for i, opt := range options {
			if opt == c {
				m.selected[i] = true
			}
		}
	}
	return m
}

// Update moves the cursor and toggles options while focused.
func (m MultiSelect) Update(msg tea.Msg) (MultiSelect, tea.Cmd) {
	if !m.Focused {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "space", " ", "x":
		if len(m.Options) > 0 {
			m.selected[m.Cursor] = !m.selected[m.Cursor]
		}
	case "a":
		all := len(m.Selected()) == len(m.Options)
		for i := range m.Options {
			m.selected[i] = !all
		}
	}
	return m, nil
}

// Selected returns the checked options in display order.
func (m MultiSelect) Selected() []string {
	var out []string
	for i, opt := range m.Options {
		if m.selected[i] {
			out = append(out, opt)
		}
	}
	return out
}

// View renders the list, one option per line.
func (m MultiSelect) View() string {
	var s string
	for i, opt := range m.Options {
		box := "[ ] "
		if m.selected[i] {
			box = "[x] "
		}
		prefix := "  "
		if m.Focused && i == m.Cursor {
			prefix = "▸ "
			s += theme.Selected.Render(prefix+box+opt) + "\n"
			continue
		}
		if m.selected[i] {
			s += theme.Body.Render(prefix+box+opt) + "\n"
		} else {
			s += theme.Subtitle.Render(prefix+box+opt) + "\n"
		}
	}
	return s
}
