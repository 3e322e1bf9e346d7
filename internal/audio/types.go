package audio

import (
	"fmt"
	"time"
)

const (
	// CaptureRate is the microphone sample rate sent to the live API.
	CaptureRate = 16000
	// PlaybackRate is the sample rate of model audio received from the live API.
	PlaybackRate = 24000
	Channels     = 1    // Mono
	FrameSize    = 4096 // samples per capture frame (~256ms at 16kHz)
)

// Packet is one encoded audio frame ready for transport: base64 16-bit
// little-endian PCM plus its mime tag.
type Packet struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// MimeType returns the realtime-input mime tag for a PCM stream.
func MimeType(sampleRate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", sampleRate)
}

// Buffer holds decoded floating-point samples, de-interleaved per channel.
type Buffer struct {
	Data       [][]float32 // one slice per channel
	SampleRate int
}

// Samples returns the per-channel sample count.
func (b *Buffer) Samples() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the playback time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Samples()) * time.Second / time.Duration(b.SampleRate)
}

// VAD interface for Voice Activity Detection
type VAD interface {
	IsSpeech(pcm []int16, sampleRate int) bool
	Close() error
}
