package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-talk/core/conversations"
)

// Program wraps the bubbletea program so background components can push
// updates into the UI.
type Program struct {
	program *tea.Program
}

func NewProgram(model Model) *Program {
	return &Program{program: tea.NewProgram(model, tea.WithAltScreen())}
}

func (p *Program) Run() error {
	_, err := p.program.Run()
	return err
}

// ShowTranscript matches conversations.WithChangeCallback.
func (p *Program) ShowTranscript(records []conversations.Record) {
	p.program.Send(TranscriptMsg{Records: records})
}

func (p *Program) ShowTalking(talking bool) {
	p.program.Send(TalkingMsg{Talking: talking})
}

// ShowStatus serves as the avatar fallback indicator.
func (p *Program) ShowStatus(text string) {
	p.program.Send(StatusMsg{Text: text})
}
