// Package devices provides WAV-file backed implementations of the capture
// and playback device contracts, used for headless runs and tests. Real
// microphone and speaker access is a host concern behind the same interfaces.
package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/audio"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/capture"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/playback"
	"github.com/rs/zerolog/log"
)

// FileProvider opens file-backed audio contexts: a WAV file streamed as the
// microphone, and a WAV file written with the scheduled model audio.
type FileProvider struct {
	InputPath  string
	OutputPath string
	Realtime   bool // pace capture frames at the wall clock
}

func (p *FileProvider) OpenCapture(sampleRate, frameSize int) (capture.Source, error) {
	data, err := os.ReadFile(p.InputPath)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %v", audio.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("read capture input: %w", err)
	}

	samples, rate, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("decode capture input: %w", err)
	}
	if rate != sampleRate {
		return nil, fmt.Errorf("capture input is %d Hz, device context wants %d Hz", rate, sampleRate)
	}

	frames := make([]float32, len(samples))
	for i, s := range samples {
		frames[i] = float32(s) / 32768
	}

	src := &fileSource{
		frames: make(chan []float32, 4),
		stop:   make(chan struct{}),
	}
	go src.stream(frames, frameSize, sampleRate, p.Realtime)

	log.Info().
		Str("path", p.InputPath).
		Int("samples", len(samples)).
		Msg("Opened file capture source")
	return src, nil
}

func (p *FileProvider) OpenPlayback(sampleRate int) (playback.Output, error) {
	if dir := filepath.Dir(p.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create playback output directory: %w", err)
		}
	}

	return &fileOutput{
		path:       p.OutputPath,
		sampleRate: sampleRate,
		start:      time.Now(),
	}, nil
}

type fileSource struct {
	frames   chan []float32
	stop     chan struct{}
	stopOnce sync.Once
}

func (s *fileSource) Frames() <-chan []float32 { return s.frames }

func (s *fileSource) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *fileSource) stream(samples []float32, frameSize, sampleRate int, realtime bool) {
	defer close(s.frames)

	interval := time.Duration(frameSize) * time.Second / time.Duration(sampleRate)
	for off := 0; off < len(samples); off += frameSize {
		end := off + frameSize
		if end > len(samples) {
			end = len(samples)
		}

		// Pad the tail so every frame is full-size
		frame := make([]float32, frameSize)
		copy(frame, samples[off:end])

		select {
		case s.frames <- frame:
		case <-s.stop:
			return
		}

		if realtime {
			select {
			case <-time.After(interval):
			case <-s.stop:
				return
			}
		}
	}
}

// fileOutput mixes scheduled buffers onto an int16 timeline and writes it as
// a WAV file on close. The device clock is the wall clock since open.
type fileOutput struct {
	path       string
	sampleRate int
	start      time.Time

	mu       sync.Mutex
	closed   bool
	timeline []int16
}

func (o *fileOutput) Now() time.Duration {
	return time.Since(o.start)
}

func (o *fileOutput) PlayAt(buf *audio.Buffer, at time.Duration) (playback.Handle, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, audio.ErrDeviceClosed
	}

	offset := int(at.Seconds() * float64(o.sampleRate))
	pcm := audio.FrameToPCM16(buf.Data[0])
	if need := offset + len(pcm); need > len(o.timeline) {
		grown := make([]int16, need)
		copy(grown, o.timeline)
		o.timeline = grown
	}
	copy(o.timeline[offset:], pcm)
	o.mu.Unlock()

	h := &fileHandle{done: make(chan struct{})}
	go h.finish(at + buf.Duration() - o.Now())
	return h, nil
}

func (o *fileOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	if len(o.timeline) == 0 {
		return nil
	}

	data, err := audio.EncodeWAV(o.timeline, o.sampleRate)
	if err != nil {
		return fmt.Errorf("encode playback output: %w", err)
	}
	if err := os.WriteFile(o.path, data, 0644); err != nil {
		return fmt.Errorf("write playback output: %w", err)
	}

	log.Info().
		Str("path", o.path).
		Int("samples", len(o.timeline)).
		Msg("Wrote playback output")
	return nil
}

type fileHandle struct {
	done chan struct{}
	once sync.Once
}

func (h *fileHandle) Done() <-chan struct{} { return h.done }

func (h *fileHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *fileHandle) finish(after time.Duration) {
	if after > 0 {
		timer := time.NewTimer(after)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-h.done:
			return
		}
	}
	h.Stop()
}
