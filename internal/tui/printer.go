package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
)

// Printer writes status changes and new transcript lines as plain text. It
// implements voice.Observer.
type Printer struct {
	mu   sync.Mutex
	w    io.Writer
	last voice.TranscriptLine
}

var _ voice.Observer = (*Printer)(nil)

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// StatusChanged implements voice.Observer.
func (p *Printer) StatusChanged(s voice.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%s]\n", s.Detail())
}

// TranscriptChanged implements voice.Observer. Only the newest line is
// printed, and only once.
func (p *Printer) TranscriptChanged(lines []voice.TranscriptLine) {
	if len(lines) == 0 {
		return
	}
	newest := lines[len(lines)-1]

	p.mu.Lock()
	defer p.mu.Unlock()
	if newest.Speaker == p.last.Speaker && newest.Text == p.last.Text && newest.At.Equal(p.last.At) {
		return
	}
	p.last = newest
	fmt.Fprintln(p.w, newest.String())
}

// RunPlain starts a session reporting to a Printer on w and waits until the
// session ends or ctx is cancelled.
func RunPlain(ctx context.Context, starter SessionStarter, w io.Writer) error {
	session, err := starter.Start(ctx, NewPrinter(w))
	if err != nil {
		return err
	}

	select {
	case <-session.Done():
	case <-ctx.Done():
	}

	if err := starter.Stop(); err != nil && !errors.Is(err, voice.ErrNoSession) {
		return err
	}
	return nil
}
