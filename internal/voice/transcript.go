package voice

import (
	"strings"
	"sync"
	"time"
)

// DefaultTranscriptWindow is how many lines the transcript keeps.
const DefaultTranscriptWindow = 5

// Transcript is a bounded, ordered history of recent conversation lines.
// Lines beyond the window are dropped oldest first.
type Transcript struct {
	mu     sync.Mutex
	window int
	lines  []TranscriptLine
	now    func() time.Time
}

// NewTranscript creates a transcript keeping the last window lines.
func NewTranscript(window int) *Transcript {
	if window <= 0 {
		window = DefaultTranscriptWindow
	}
	return &Transcript{window: window, now: time.Now}
}

// Append adds a line and returns the resulting history. Blank text is ignored.
func (t *Transcript) Append(speaker Speaker, text string) []TranscriptLine {
	text = strings.TrimSpace(text)

	t.mu.Lock()
	defer t.mu.Unlock()

	if text != "" {
		t.lines = append(t.lines, TranscriptLine{Speaker: speaker, Text: text, At: t.now()})
		if over := len(t.lines) - t.window; over > 0 {
			t.lines = append(t.lines[:0], t.lines[over:]...)
		}
	}
	return t.snapshotLocked()
}

// Lines returns a copy of the current history.
func (t *Transcript) Lines() []TranscriptLine {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotLocked()
}

func (t *Transcript) snapshotLocked() []TranscriptLine {
	out := make([]TranscriptLine, len(t.lines))
	copy(out, t.lines)
	return out
}
