package home

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/chatcompare/internal/router"
	"github.com/abhisek/chatcompare/internal/run"
	"github.com/abhisek/chatcompare/internal/screens/compose"
	"github.com/abhisek/chatcompare/internal/screens/history"
)

type fakeLister struct{ records []run.Record }

func (f fakeLister) ListRecent(context.Context, int) ([]run.Record, error) {
	return f.records, nil
}

func TestHomeScreen_MenuOpensScreens(t *testing.T) {
	h := New(Options{History: fakeLister{}})

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := push.Screen.(*compose.ComposeScreen); !ok {
		t.Fatalf("expected compose screen, got %T", push.Screen)
	}

	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd = h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok = cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := push.Screen.(*history.HistoryScreen); !ok {
		t.Fatalf("expected history screen, got %T", push.Screen)
	}
}

func TestHomeScreen_HistoryDisabledWithoutStore(t *testing.T) {
	h := New(Options{})
	if cmd := h.Init(); cmd != nil {
		t.Fatal("expected no stats load without a store")
	}
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if h.menu.Selected != 2 {
		t.Errorf("expected cursor to skip history, got %d", h.menu.Selected)
	}
}

func TestHomeScreen_Stats(t *testing.T) {
	h := New(Options{
		History:   fakeLister{records: []run.Record{{Cost: 0.01}, {Cost: 0.02}}},
		Providers: []string{"openai"},
	})
	h.Update(h.Init()())

	view := h.View(100, 30)
	if !strings.Contains(view, "2 recent run(s)") {
		t.Error("expected run count in view")
	}
	if !strings.Contains(view, "$0.0300") {
		t.Error("expected total cost in view")
	}
	if !strings.Contains(view, "Providers: openai") {
		t.Error("expected provider list in view")
	}
}

func TestHomeScreen_NoProviders(t *testing.T) {
	view := New(Options{}).View(100, 30)
	if !strings.Contains(view, "No API key configured") {
		t.Error("expected missing key notice")
	}
}
