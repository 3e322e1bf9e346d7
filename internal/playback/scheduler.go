package playback

import (
	"errors"
	"sync"
	"time"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/audio"
	"github.com/rs/zerolog/log"
)

// Output is the speaker-side device contract. Now reports the device clock,
// PlayAt schedules a buffer at an absolute device time. A torn-down device
// returns audio.ErrDeviceClosed from PlayAt.
type Output interface {
	Now() time.Duration
	PlayAt(buf *audio.Buffer, at time.Duration) (Handle, error)
	Close() error
}

// Handle tracks one scheduled buffer. Done is closed when playback finishes
// or the handle is stopped; Stop must be safe to call after completion.
type Handle interface {
	Done() <-chan struct{}
	Stop()
}

// Scheduler chains asynchronously arriving buffers back-to-back on a single
// output device. A monotonic cursor guarantees enqueue-order playback with no
// gaps when buffers arrive faster than real time, and no overlaps.
type Scheduler struct {
	out    Output
	onIdle func()

	mutex  sync.Mutex
	cursor time.Duration
	active map[uint64]Handle
	nextID uint64
}

// NewScheduler creates a scheduler over the given output. onIdle is invoked
// whenever the last active buffer completes; it may be nil.
func NewScheduler(out Output, onIdle func()) *Scheduler {
	return &Scheduler{
		out:    out,
		onIdle: onIdle,
		active: make(map[uint64]Handle),
	}
}

// Enqueue schedules a buffer at max(cursor, device now) and advances the
// cursor by the buffer's duration. Enqueueing after the device has been
// closed is a no-op: teardown races against in-flight decodes are expected.
func (s *Scheduler) Enqueue(buf *audio.Buffer) error {
	s.mutex.Lock()

	start := s.cursor
	if now := s.out.Now(); now > start {
		start = now
	}

	handle, err := s.out.PlayAt(buf, start)
	if err != nil {
		s.mutex.Unlock()
		if errors.Is(err, audio.ErrDeviceClosed) {
			log.Debug().Msg("Playback device closed, dropping buffer")
			return nil
		}
		return err
	}

	s.cursor = start + buf.Duration()
	id := s.nextID
	s.nextID++
	s.active[id] = handle
	s.mutex.Unlock()

	log.Debug().
		Uint64("handle", id).
		Dur("start", start).
		Dur("duration", buf.Duration()).
		Msg("Scheduled playback buffer")

	go s.watch(id, handle)
	return nil
}

func (s *Scheduler) watch(id uint64, handle Handle) {
	<-handle.Done()

	s.mutex.Lock()
	_, ok := s.active[id]
	if ok {
		delete(s.active, id)
	}
	idle := ok && len(s.active) == 0
	s.mutex.Unlock()

	if idle && s.onIdle != nil {
		s.onIdle()
	}
}

// CancelAll stops every active handle and clears the set. Safe to call when
// handles have already completed, and safe to call repeatedly.
func (s *Scheduler) CancelAll() {
	s.mutex.Lock()
	handles := make([]Handle, 0, len(s.active))
	for _, h := range s.active {
		handles = append(handles, h)
	}
	s.active = make(map[uint64]Handle)
	s.mutex.Unlock()

	for _, h := range handles {
		h.Stop()
	}

	if len(handles) > 0 {
		log.Debug().Int("cancelled", len(handles)).Msg("Cancelled active playback")
	}
}

// Active returns the number of buffers currently scheduled or playing.
func (s *Scheduler) Active() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.active)
}

// Cursor returns the next available start time.
func (s *Scheduler) Cursor() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cursor
}
