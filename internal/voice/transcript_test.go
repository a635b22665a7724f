package voice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Raikerian/go-lumina-kitchen/internal/voice"
)

func texts(lines []voice.TranscriptLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

func TestTranscript_Append(t *testing.T) {
	tests := map[string]struct {
		window int
		add    []string
		want   []string
	}{
		"keeps_order": {
			window: 5,
			add:    []string{"hello", "hi there"},
			want:   []string{"You: hello", "Chef: hi there"},
		},
		"drops_oldest_beyond_window": {
			window: 2,
			add:    []string{"a", "b", "c"},
			want:   []string{"Chef: b", "You: c"},
		},
		"ignores_blank_text": {
			window: 5,
			add:    []string{"  ", "salt?", ""},
			want:   []string{"Chef: salt?"},
		},
		"default_window": {
			window: 0,
			add:    []string{"1", "2", "3", "4", "5", "6", "7"},
			want:   []string{"You: 3", "Chef: 4", "You: 5", "Chef: 6", "You: 7"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := voice.NewTranscript(tt.window)
			var last []voice.TranscriptLine
			for i, text := range tt.add {
				speaker := voice.SpeakerUser
				if i%2 == 1 {
					speaker = voice.SpeakerAssistant
				}
				last = tr.Append(speaker, text)
			}
			assert.Equal(t, tt.want, texts(last))
			assert.Equal(t, tt.want, texts(tr.Lines()))
		})
	}
}

func TestTranscript_LinesIsACopy(t *testing.T) {
	tr := voice.NewTranscript(3)
	tr.Append(voice.SpeakerUser, "chop the onions")

	lines := tr.Lines()
	lines[0].Text = "changed"

	assert.Equal(t, "chop the onions", tr.Lines()[0].Text)
}
