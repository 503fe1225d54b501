// Package tui is the terminal chat window: a transcript viewport above a
// single-line input.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-talk/core/conversations"
	"github.com/muesli/reflow/wordwrap"
)

const bubbleWidthRatio = 0.75

// TranscriptMsg replaces the shown transcript.
type TranscriptMsg struct{ Records []conversations.Record }

// TalkingMsg toggles the talking indicator.
type TalkingMsg struct{ Talking bool }

// StatusMsg sets the status line.
type StatusMsg struct{ Text string }

// SubmitFunc hands a user message to the conversation. It runs off the UI
// loop.
type SubmitFunc func(text string)

type Model struct {
	width  int
	height int
	ready  bool

	// open mirrors the widget's chat toggle; the input only has focus while
	// the chat is open.
	open bool

	records []conversations.Record
	talking bool
	status  string

	viewport viewport.Model
	textarea textarea.Model
	styles   Styles
	submit   SubmitFunc
	onCancel func()
}

func NewModel(submit SubmitFunc, onCancel func()) Model {
	ta := textarea.New()
	ta.Placeholder = "Nachricht eingeben..."
	ta.Focus()
	ta.CharLimit = 4096
	ta.SetWidth(80)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	if submit == nil {
		submit = func(string) {}
	}
	if onCancel == nil {
		onCancel = func() {}
	}

	return Model{
		open:     true,
		viewport: viewport.New(80, 20),
		textarea: ta,
		styles:   DefaultStyles(),
		submit:   submit,
		onCancel: onCancel,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.onCancel()
			return m, nil
		case tea.KeyTab:
			m.open = !m.open
			if m.open {
				cmds = append(cmds, m.textarea.Focus())
			} else {
				m.textarea.Blur()
			}
			return m, tea.Batch(cmds...)
		case tea.KeyEnter:
			if !m.open {
				return m, nil
			}
			text := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if text == "" {
				return m, nil
			}
			submit := m.submit
			return m, func() tea.Msg {
				submit(text)
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()

	case TranscriptMsg:
		m.records = msg.Records
		m.refresh()

	case TalkingMsg:
		m.talking = msg.Talking

	case StatusMsg:
		m.status = msg.Text
	}

	if m.open {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	headerHeight, footerHeight := 1, 3
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-headerHeight-footerHeight, 1)
	m.textarea.SetWidth(max(m.width, 10))
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	bubbleWidth := max(int(float64(width)*bubbleWidthRatio), 10)

	var b strings.Builder
	for _, record := range m.records {
		text := wordwrap.String(record.Text, bubbleWidth-2)

		var bubble string
		switch {
		case record.Role == conversations.RoleUser:
			bubble = lipgloss.PlaceHorizontal(width, lipgloss.Right, m.styles.User.Render(text))
		case record.State == conversations.StatePending:
			bubble = m.styles.Pending.Render(text)
		case record.State == conversations.StateError:
			bubble = m.styles.Error.Render(text)
		default:
			bubble = m.styles.Bot.Render(text)
		}
		b.WriteString(bubble)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Lade..."
	}

	header := m.styles.Header.Render("Chat")
	if m.talking {
		header += " " + m.styles.Talking.Render("● spricht")
	}

	footer := m.styles.Status.Render(m.status)
	if m.open {
		footer = lipgloss.JoinVertical(lipgloss.Left, footer, m.textarea.View())
	} else {
		footer = lipgloss.JoinVertical(lipgloss.Left, footer, m.styles.Status.Render("Chat geschlossen (Tab zum Öffnen)"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}
