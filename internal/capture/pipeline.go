package capture

import (
	"sync"
	"sync/atomic"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/audio"
	"github.com/rs/zerolog/log"
)

// Source is the microphone-side device contract: a stream of fixed-size mono
// frames. The channel closes when the device is stopped.
type Source interface {
	Frames() <-chan []float32
	Close() error
}

// Sink receives encoded realtime packets, typically the live API session.
type Sink interface {
	SendRealtimeInput(pkt audio.Packet) error
}

// Pipeline pulls frames from a capture source, encodes them as PCM packets
// and forwards them to the sink. Sends are best-effort: a failure usually
// means the remote session is already closing, so the frame is dropped and
// the error swallowed. Mute is checked per frame, so it takes effect within
// one frame's latency.
type Pipeline struct {
	source     Source
	sink       Sink
	vad        audio.VAD // optional voice gate
	sampleRate int

	encode func(frame []float32, sampleRate int) audio.Packet

	muted   atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
	stopped bool
	mutex   sync.Mutex
}

// NewPipeline creates a capture pipeline. vad may be nil to forward every
// unmuted frame.
func NewPipeline(source Source, sink Sink, vad audio.VAD, sampleRate int) *Pipeline {
	return &Pipeline{
		source:     source,
		sink:       sink,
		vad:        vad,
		sampleRate: sampleRate,
		encode:     audio.EncodePacket,
		done:       make(chan struct{}),
	}
}

// Start begins forwarding frames until the source closes or Stop is called.
func (p *Pipeline) Start() {
	p.wg.Add(1)
	go p.run()
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	defer log.Debug().Msg("Capture pipeline stopped")

	for {
		select {
		case frame, ok := <-p.source.Frames():
			if !ok {
				return
			}
			p.handleFrame(frame)
		case <-p.done:
			return
		}
	}
}

func (p *Pipeline) handleFrame(frame []float32) {
	if p.muted.Load() {
		return
	}

	if p.vad != nil && !p.vad.IsSpeech(audio.FrameToPCM16(frame), p.sampleRate) {
		log.Debug().Int("samples", len(frame)).Msg("VAD detected silence, dropping frame")
		return
	}

	pkt := p.encode(frame, p.sampleRate)

	// Fire-and-forget: the session may already be tearing down
	if err := p.sink.SendRealtimeInput(pkt); err != nil {
		log.Debug().Err(err).Msg("Dropped capture frame, send failed")
	}
}

// SetMuted toggles the mute flag. Muted frames are discarded before encoding.
func (p *Pipeline) SetMuted(muted bool) {
	p.muted.Store(muted)
	log.Info().Bool("muted", muted).Msg("Capture mute changed")
}

// Muted reports the current mute state.
func (p *Pipeline) Muted() bool {
	return p.muted.Load()
}

// Stop halts the pipeline and closes the capture source. Safe to call twice.
func (p *Pipeline) Stop() {
	p.mutex.Lock()
	if p.stopped {
		p.mutex.Unlock()
		return
	}
	p.stopped = true
	close(p.done)
	p.mutex.Unlock()

	if err := p.source.Close(); err != nil {
		log.Debug().Err(err).Msg("Capture source close failed")
	}
	p.wg.Wait()
}
