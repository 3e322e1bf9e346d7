package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/audio"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/capture"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/genlive"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/playback"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// State is the conversation lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Live is the narrow contract of the external streaming session.
type Live interface {
	SendRealtimeInput(pkt audio.Packet) error
	Close() error
}

// DialFunc opens a live session and delivers its events through the handler.
type DialFunc func(ctx context.Context, cfg genlive.SessionConfig, h genlive.Handler) (Live, error)

// Devices opens the host audio contexts. Opening happens before any network
// connection so permission prompts stay tied to the user's start action.
// Refused access is reported as audio.ErrPermissionDenied.
type Devices interface {
	OpenCapture(sampleRate, frameSize int) (capture.Source, error)
	OpenPlayback(sampleRate int) (playback.Output, error)
}

// Config parameterises one conversation.
type Config struct {
	Live genlive.SessionConfig
	VAD  audio.VAD // optional capture voice gate, may be nil
}

// Session orchestrates one voice conversation: device contexts, capture
// pipeline, playback scheduler and the live API session. It owns all shared
// mutable state; collaborators only see the narrow interfaces above.
type Session struct {
	ID string

	devices Devices
	dial    DialFunc
	cfg     Config

	state    atomic.Int32
	stopped  atomic.Bool
	speaking atomic.Bool

	errMutex sync.Mutex
	lastErr  error

	source     capture.Source
	output     playback.Output
	pipeline   *capture.Pipeline
	scheduler  *playback.Scheduler
	live       Live
	transcript *Transcript

	msgChan    chan genlive.ServerMessage
	loopCtx    context.Context
	loopCancel context.CancelFunc
	group      *errgroup.Group
}

func New(devices Devices, dial DialFunc, cfg Config) *Session {
	return &Session{
		ID:         uuid.New().String(),
		devices:    devices,
		dial:       dial,
		cfg:        cfg,
		transcript: NewTranscript(),
		msgChan:    make(chan genlive.ServerMessage, 64),
	}
}

// Start acquires the audio devices, dials the live API and begins streaming.
// Device failures surface audio.ErrPermissionDenied, connection failures
// genlive.ErrConnectionFailure; neither is retried here.
func (s *Session) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return fmt.Errorf("session already started (state %s)", s.State())
	}

	log.Info().Str("session_id", s.ID).Msg("Starting conversation session")

	// Devices first: permission prompts must be synchronous with the user
	// action, before any network round trip.
	source, err := s.devices.OpenCapture(audio.CaptureRate, audio.FrameSize)
	if err != nil {
		return s.failStart(fmt.Errorf("open capture device: %w", err))
	}
	s.source = source

	output, err := s.devices.OpenPlayback(audio.PlaybackRate)
	if err != nil {
		_ = source.Close()
		return s.failStart(fmt.Errorf("open playback device: %w", err))
	}
	s.output = output

	s.scheduler = playback.NewScheduler(output, func() { s.speaking.Store(false) })
	s.loopCtx, s.loopCancel = context.WithCancel(context.Background())
	s.group, _ = errgroup.WithContext(s.loopCtx)

	handler := genlive.Handler{
		OnOpen: func() {
			log.Info().Str("session_id", s.ID).Msg("Live session open")
		},
		OnMessage: s.deliver,
		OnClose:   s.handleRemoteClose,
		OnError:   s.handleTransportError,
	}

	live, err := s.dial(ctx, s.cfg.Live, handler)
	if err != nil {
		_ = source.Close()
		_ = output.Close()
		return s.failStart(err)
	}
	s.live = live

	s.pipeline = capture.NewPipeline(source, live, s.cfg.VAD, audio.CaptureRate)
	s.pipeline.Start()
	s.group.Go(s.messageLoop)

	s.state.Store(int32(StateConnected))
	log.Info().Str("session_id", s.ID).Msg("Session connected")
	return nil
}

func (s *Session) failStart(err error) error {
	s.setError(err)
	return err
}

// deliver runs on the live client's read goroutine; it must not block on a
// slow decode, so messages are queued for the session's own loop.
func (s *Session) deliver(msg genlive.ServerMessage) {
	if s.stopped.Load() {
		return
	}
	select {
	case s.msgChan <- msg:
	case <-s.loopCtx.Done():
	default:
		log.Warn().Str("session_id", s.ID).Msg("Message queue full, dropping server message")
	}
}

func (s *Session) messageLoop() error {
	defer log.Debug().Str("session_id", s.ID).Msg("Message loop stopped")

	for {
		select {
		case msg := <-s.msgChan:
			s.handleMessage(msg)
		case <-s.loopCtx.Done():
			return nil
		}
	}
}

func (s *Session) handleMessage(msg genlive.ServerMessage) {
	// Callbacks racing teardown become no-ops rather than acting on
	// disposed components.
	if s.stopped.Load() {
		return
	}

	if msg.AudioData != "" {
		s.handleModelAudio(msg.AudioData)
	}
	if msg.InputTranscript != "" {
		s.transcript.Append(RoleUser, msg.InputTranscript)
	}
	if msg.OutputTranscript != "" {
		s.transcript.Append(RoleModel, msg.OutputTranscript)
	}
	if msg.TurnComplete {
		s.speaking.Store(false)
	}
}

// handleModelAudio decodes and schedules one inbound audio payload. A corrupt
// frame is dropped; it must not end an otherwise healthy session.
func (s *Session) handleModelAudio(data string) {
	raw, err := audio.DecodeBase64(data)
	if err != nil {
		log.Warn().Str("session_id", s.ID).Err(err).Msg("Dropping model audio, bad encoding")
		return
	}

	buf, err := audio.Decode(raw, audio.PlaybackRate, audio.Channels)
	if err != nil {
		log.Warn().Str("session_id", s.ID).Err(err).Msg("Dropping model audio, malformed packet")
		return
	}

	s.speaking.Store(true)
	if err := s.scheduler.Enqueue(buf); err != nil {
		log.Warn().Str("session_id", s.ID).Err(err).Msg("Failed to schedule model audio")
	}
}

func (s *Session) handleRemoteClose() {
	if s.stopped.Load() {
		return
	}
	log.Info().Str("session_id", s.ID).Msg("Remote session closed")
	_ = s.Teardown()
}

func (s *Session) handleTransportError(err error) {
	if s.stopped.Load() {
		return
	}
	log.Error().Str("session_id", s.ID).Err(err).Msg("Live session transport error")
	s.setError(err)
	if s.pipeline != nil {
		s.pipeline.Stop()
	}
	if s.scheduler != nil {
		s.scheduler.CancelAll()
	}
}

// Teardown releases everything: capture stream, live session, device
// contexts, active playback. Every step runs even if earlier ones failed,
// and the whole sequence is idempotent; double closes during shutdown races
// are expected and swallowed.
func (s *Session) Teardown() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}

	s.state.Store(int32(StateClosing))
	log.Info().Str("session_id", s.ID).Msg("Tearing down session")

	if s.loopCancel != nil {
		s.loopCancel()
	}

	if s.pipeline != nil {
		s.pipeline.Stop()
	} else if s.source != nil {
		if err := s.source.Close(); err != nil {
			log.Debug().Str("session_id", s.ID).Err(err).Msg("Capture close failed")
		}
	}

	if s.live != nil {
		if err := s.live.Close(); err != nil {
			log.Debug().Str("session_id", s.ID).Err(err).Msg("Live session close failed")
		}
	}

	if s.output != nil {
		if err := s.output.Close(); err != nil {
			log.Debug().Str("session_id", s.ID).Err(err).Msg("Playback device close failed")
		}
	}

	if s.scheduler != nil {
		s.scheduler.CancelAll()
	}
	s.speaking.Store(false)

	if s.group != nil {
		_ = s.group.Wait()
	}

	s.state.Store(int32(StateIdle))
	log.Info().
		Str("session_id", s.ID).
		Int("transcript_turns", s.transcript.Len()).
		Msg("Session torn down")
	return nil
}

func (s *Session) setError(err error) {
	s.errMutex.Lock()
	s.lastErr = err
	s.errMutex.Unlock()
	s.state.Store(int32(StateError))
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Err returns the error that moved the session to the error state, if any.
func (s *Session) Err() error {
	s.errMutex.Lock()
	defer s.errMutex.Unlock()
	return s.lastErr
}

// SetMuted toggles microphone capture without ending the session.
func (s *Session) SetMuted(muted bool) {
	if s.pipeline != nil {
		s.pipeline.SetMuted(muted)
	}
}

// Muted reports the capture mute state.
func (s *Session) Muted() bool {
	return s.pipeline != nil && s.pipeline.Muted()
}

// Speaking reports whether model audio is playing or pending.
func (s *Session) Speaking() bool {
	return s.speaking.Load()
}

// Transcript returns a snapshot of the conversation so far.
func (s *Session) Transcript() []Entry {
	return s.transcript.Entries()
}

// ActivePlayback returns the number of scheduled model-audio buffers.
func (s *Session) ActivePlayback() int {
	if s.scheduler == nil {
		return 0
	}
	return s.scheduler.Active()
}
