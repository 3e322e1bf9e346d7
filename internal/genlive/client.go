package genlive

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/audio"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// DefaultEndpoint is the bidirectional streaming endpoint of the Gemini
// generative language API.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/" +
	"google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// ErrConnectionFailure reports a handshake or mid-session transport error.
// It is surfaced to the caller for display; the client never retries.
var ErrConnectionFailure = errors.New("live session connection failure")

// SessionConfig is the device/session contract passed once at open time and
// immutable for the session's lifetime.
type SessionConfig struct {
	Model               string
	Voice               string // prebuilt voice identity, e.g. "Aoede"
	SystemInstruction   string // free-text tutor persona
	InputTranscription  bool
	OutputTranscription bool
}

// Handler receives session events. Callbacks run on the client's read
// goroutine; they must not block.
type Handler struct {
	OnOpen    func()
	OnMessage func(ServerMessage)
	OnClose   func()
	OnError   func(err error)
}

// Dialer opens live sessions against one API endpoint.
type Dialer struct {
	Endpoint string // DefaultEndpoint when empty
	APIKey   string
}

// Client is one open live session over a websocket.
type Client struct {
	conn    *websocket.Conn
	handler Handler

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// Dial opens the websocket, sends the session setup and waits for the
// server's setup acknowledgement before returning. Handler.OnOpen fires
// exactly once, right before the read loop starts.
func (d *Dialer) Dial(ctx context.Context, cfg SessionConfig, handler Handler) (*Client, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	target := endpoint + "?key=" + url.QueryEscape(d.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrConnectionFailure, err)
	}

	c := &Client{conn: conn, handler: handler}

	if err := c.writeJSON(clientMessage{Setup: buildSetup(cfg)}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: setup: %v", ErrConnectionFailure, err)
	}

	// The first server frame must acknowledge the setup
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: awaiting setup ack: %v", ErrConnectionFailure, err)
	}
	if _, ok, err := parseServerMessage(data); err != nil || !ok {
		conn.Close()
		return nil, fmt.Errorf("%w: unexpected setup response", ErrConnectionFailure)
	}

	log.Info().Str("model", cfg.Model).Str("voice", cfg.Voice).Msg("Live session open")

	if handler.OnOpen != nil {
		handler.OnOpen()
	}
	go c.readLoop()

	return c, nil
}

func buildSetup(cfg SessionConfig) *setupPayload {
	setup := &setupPayload{
		Model: cfg.Model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if cfg.Voice != "" {
		setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: &voiceConfig{
				PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.SystemInstruction != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		setup.InputAudioTranscription = &transcriptionConfig{}
	}
	if cfg.OutputTranscription {
		setup.OutputAudioTranscription = &transcriptionConfig{}
	}
	return setup
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if c.handler.OnClose != nil {
					c.handler.OnClose()
				}
				return
			}
			if c.handler.OnError != nil {
				c.handler.OnError(fmt.Errorf("%w: read: %v", ErrConnectionFailure, err))
			}
			return
		}

		msg, setupComplete, err := parseServerMessage(data)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping unparseable server message")
			continue
		}
		if setupComplete || msg.Empty() {
			continue
		}
		if c.handler.OnMessage != nil {
			c.handler.OnMessage(msg)
		}
	}
}

// SendRealtimeInput streams one encoded capture frame. Callers treat this as
// fire-and-forget; errors mean the session is unusable or closing.
func (c *Client) SendRealtimeInput(pkt audio.Packet) error {
	if c.closed.Load() {
		return fmt.Errorf("%w: session closed", ErrConnectionFailure)
	}
	return c.writeJSON(clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []inlineData{{MimeType: pkt.MimeType, Data: pkt.Data}},
		},
	})
}

func (c *Client) writeJSON(msg clientMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Close ends the session. Safe to call more than once and concurrently with
// the read loop.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = c.conn.Close()
		log.Info().Msg("Live session closed")
	})
	return nil
}
