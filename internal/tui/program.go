package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
)

// SessionStarter is the part of voice.Service the screens need.
type SessionStarter interface {
	Start(ctx context.Context, obs voice.Observer) (*voice.Session, error)
	Stop() error
}

// programObserver forwards session updates into a running program.
type programObserver struct {
	p *tea.Program
}

func (o programObserver) StatusChanged(s voice.Status) {
	o.p.Send(StatusMsg(s))
}

func (o programObserver) TranscriptChanged(lines []voice.TranscriptLine) {
	o.p.Send(TranscriptMsg(lines))
}

// Run starts a session and shows it until the user quits. The session is
// stopped before Run returns.
func Run(ctx context.Context, starter SessionStarter, opts ...tea.ProgramOption) error {
	stop := func() error {
		if err := starter.Stop(); err != nil && !errors.Is(err, voice.ErrNoSession) {
			return err
		}
		return nil
	}

	p := tea.NewProgram(NewModel(stop), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	startCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	started := make(chan struct{})
	go func() {
		defer close(started)
		if _, err := starter.Start(startCtx, programObserver{p: p}); err != nil {
			p.Send(StartFailedMsg{Err: err})
		}
	}()

	_, err := p.Run()
	// A session still opening is abandoned, then stopped below.
	cancel()
	<-started
	if stopErr := stop(); err == nil {
		err = stopErr
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}
