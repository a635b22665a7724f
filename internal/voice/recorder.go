package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/pkg/audio"
)

// recorder keeps the assistant audio of one session and writes it to a WAV
// file when the session ends. A nil recorder records nothing.
type recorder struct {
	mu        sync.Mutex
	logger    *zap.Logger
	dir       string
	sessionID string
	rate      int
	samples   []int16
}

func newRecorder(dir, sessionID string, logger *zap.Logger) *recorder {
	if dir == "" {
		return nil
	}
	return &recorder{dir: dir, sessionID: sessionID, logger: logger}
}

func (r *recorder) append(buf audio.PlaybackBuffer) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rate = buf.SampleRate
	r.samples = append(r.samples, audio.FloatsToPCM16(buf.Samples)...)
}

// flush writes the recording and returns the file path.
func (r *recorder) flush() (string, error) {
	if r == nil {
		return "", nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("debug dir: %w", err)
	}

	filename := filepath.Join(r.dir,
		fmt.Sprintf("assistant_%s_%s.wav", r.sessionID, time.Now().Format("20060102_150405")))
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("create wav: %w", err)
	}
	defer file.Close()

	if err := audio.WriteWAV(file, r.samples, r.rate); err != nil {
		return "", fmt.Errorf("write wav: %w", err)
	}

	r.logger.Info("Saved debug WAV",
		zap.String("file", filename),
		zap.Int("samples", len(r.samples)),
		zap.Int("rate_hz", r.rate),
		zap.Float64("duration_sec", float64(len(r.samples))/float64(r.rate)))

	r.samples = nil
	return filename, nil
}
