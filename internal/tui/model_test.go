package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-talk/core/conversations"
)

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func typeText(m Model, text string) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(Model)
}

func TestEnterSubmitsTrimmedText(t *testing.T) {
	var submitted []string
	m := sized(t, NewModel(func(text string) { submitted = append(submitted, text) }, nil))
	m = typeText(m, "  Hallo  ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatalf("expected a submit command")
	}
	cmd()

	if len(submitted) != 1 || submitted[0] != "Hallo" {
		t.Fatalf("expected [Hallo], got %v", submitted)
	}
	if m.textarea.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", m.textarea.Value())
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	called := false
	m := sized(t, NewModel(func(string) { called = true }, nil))
	m = typeText(m, "   ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		cmd()
	}
	if called {
		t.Fatalf("blank input must not be submitted")
	}
}

func TestEscapeCancelsPlayback(t *testing.T) {
	cancelled := 0
	m := sized(t, NewModel(nil, func() { cancelled++ }))

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cancelled != 1 {
		t.Fatalf("expected one cancel, got %d", cancelled)
	}
}

func TestTabTogglesChat(t *testing.T) {
	m := sized(t, NewModel(nil, nil))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.open {
		t.Fatalf("expected chat to close")
	}
	if !strings.Contains(m.View(), "Chat geschlossen") {
		t.Fatalf("expected closed hint in view")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if !m.open || !m.textarea.Focused() {
		t.Fatalf("expected chat to reopen with focused input")
	}
}

func TestTranscriptAndTalkingAreRendered(t *testing.T) {
	m := sized(t, NewModel(nil, nil))

	updated, _ := m.Update(TranscriptMsg{Records: []conversations.Record{
		{Role: conversations.RoleUser, Text: "Wie spät ist es?", State: conversations.StateFinal},
		{Role: conversations.RoleBot, Text: "Es ist Mittag.", State: conversations.StateFinal},
	}})
	m = updated.(Model)
	updated, _ = m.Update(TalkingMsg{Talking: true})
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"Wie spät ist es?", "Es ist Mittag.", "spricht"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q", want)
		}
	}
}
