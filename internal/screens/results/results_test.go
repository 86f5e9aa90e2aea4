package results

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/chatcompare/internal/router"
	"github.com/abhisek/chatcompare/internal/run"
)

func testSummary() *run.Summary {
	return &run.Summary{
		ID:      12,
		RunUUID: "uuid-12",
		Results: run.Results{
			{Model: "gpt-4", Outcome: run.Succeeded("The answer is 42.", 100, 20, 0.0042)},
			{Model: "gpt-3.5-turbo", Outcome: run.Failed("rate limited")},
		},
		PromptTokens:     100,
		CompletionTokens: 20,
		Cost:             0.0042,
	}
}

func TestResultsScreen_Title(t *testing.T) {
	if got := New(testSummary(), "").Title(); got != "Run #12" {
		t.Errorf("Title = %q, want Run #12", got)
	}
	if got := New(&run.Summary{}, "").Title(); got != "Results" {
		t.Errorf("Title = %q, want Results", got)
	}
}

func TestResultsScreen_View(t *testing.T) {
	view := New(testSummary(), "").View(100, 40)
	for _, want := range []string{
		"1/2 models succeeded",
		"The answer is 42.",
		"gpt-4",
		"Error: rate limited",
		"$0.004200",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Index(view, "gpt-4") > strings.Index(view, "gpt-3.5-turbo") {
		t.Error("expected cards in request order")
	}
}

func TestResultsScreen_Warning(t *testing.T) {
	view := New(testSummary(), "Results were not saved").View(100, 40)
	if !strings.Contains(view, "Results were not saved") {
		t.Error("expected warning in view")
	}
}

func TestResultsScreen_ScrollClamped(t *testing.T) {
	s := New(testSummary(), "")
	for range 100 {
		s.Update(tea.KeyPressMsg{Code: 'j', Text: "j"})
	}
	s.View(100, 5)
	lines := RenderLines(testSummary(), "", 96)
	if s.offset != len(lines)-5 {
		t.Errorf("offset = %d, want %d", s.offset, len(lines)-5)
	}
	s.Update(tea.KeyPressMsg{Code: 'g', Text: "g"})
	if s.offset != 0 {
		t.Errorf("expected offset reset, got %d", s.offset)
	}
}

func TestResultsScreen_EscPops(t *testing.T) {
	_, cmd := New(testSummary(), "").Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("expected PopScreenMsg")
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{0.0015, "$0.001500"},
		{0.06, "$0.0600"},
		{1.23456, "$1.2346"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.in); got != tt.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
