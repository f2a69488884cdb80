// Package channel maintains the live event-channel connection for a voice
// session: subscribe/unsubscribe control, pushed message and session events,
// and the rehydrate handshake on connect and session switch.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/strato-space/voicesync/internal/api"
	"github.com/strato-space/voicesync/internal/logging"
	"github.com/strato-space/voicesync/internal/models"
	"github.com/strato-space/voicesync/internal/syncer"
)

// State is the connection lifecycle state of a channel client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Rehydrator fetches the authoritative session snapshot. The api client
// satisfies it.
type Rehydrator interface {
	GetSession(ctx context.Context, sessionID string) (*api.SessionSnapshot, error)
}

// Config wires a channel client.
type Config struct {
	Dialer     Dialer
	Syncer     *syncer.Syncer
	Rehydrator Rehydrator

	// Token authenticates subscribe requests. Optional.
	Token string

	// OnTickets receives tickets_prepared payloads unparsed.
	OnTickets func(sessionID string, payload json.RawMessage)

	Logger *zerolog.Logger
}

// Client is one event-channel handle. It holds at most one live connection
// and at most one subscribed session.
type Client struct {
	dialer     Dialer
	syncer     *syncer.Syncer
	rehydrator Rehydrator
	token      string
	onTickets  func(string, json.RawMessage)
	logger     zerolog.Logger

	mu     sync.Mutex
	state  State
	conn   Conn
	active string
	done   chan struct{}
}

var errNotConnected = errors.New("channel: not connected")

// NewClient builds a disconnected channel client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Dialer == nil {
		return nil, errors.New("channel: dialer is required")
	}
	if cfg.Syncer == nil {
		return nil, errors.New("channel: syncer is required")
	}
	if cfg.Rehydrator == nil {
		return nil, errors.New("channel: rehydrator is required")
	}
	logger := logging.Component("channel")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Client{
		dialer:     cfg.Dialer,
		syncer:     cfg.Syncer,
		rehydrator: cfg.Rehydrator,
		token:      cfg.Token,
		onTickets:  cfg.OnTickets,
		logger:     logger,
	}, nil
}

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveSession reports the currently subscribed session id, or "".
func (c *Client) ActiveSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Connect dials the channel, subscribes the syncer's session and rehydrates
// it. A client that is already connected returns an error; Disconnect first.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return errors.New("channel: already connected")
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	sessionID := c.syncer.SessionID()
	if sessionID != "" {
		if err := c.writeControl(conn, "subscribe", sessionID); err != nil {
			conn.Close()
			c.mu.Lock()
			c.state = StateDisconnected
			c.mu.Unlock()
			return err
		}
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.active = sessionID
	c.done = done
	c.mu.Unlock()

	go c.readLoop(conn, done)

	if sessionID != "" {
		if err := c.rehydrate(ctx, sessionID); err != nil {
			c.Disconnect()
			return fmt.Errorf("initial rehydrate of session %s failed: %w", sessionID, err)
		}
	}
	return nil
}

// Disconnect closes the connection and resets the handle. Safe to call when
// already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.done = nil
	c.state = StateDisconnected
	c.active = ""
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

// SwitchSession unsubscribes the current session, subscribes the new one and
// rehydrates it. The syncer must already be pointed at the new session via
// ReplaceAll before events for it are applied; the rehydrate does that.
func (c *Client) SwitchSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return errNotConnected
	}
	conn := c.conn
	previous := c.active
	c.active = sessionID
	c.mu.Unlock()

	if previous != "" && previous != sessionID {
		if err := c.writeControl(conn, "unsubscribe", previous); err != nil {
			c.logger.Warn().Err(err).Str("session_id", previous).Msg("unsubscribe failed")
		}
	}
	if sessionID == "" {
		return nil
	}
	if err := c.writeControl(conn, "subscribe", sessionID); err != nil {
		return err
	}
	return c.rehydrate(ctx, sessionID)
}

// Rehydrate refetches the active session and commits it wholesale.
func (c *Client) Rehydrate(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.active
	c.mu.Unlock()
	if sessionID == "" {
		return errNotConnected
	}
	return c.rehydrate(ctx, sessionID)
}

func (c *Client) rehydrate(ctx context.Context, sessionID string) error {
	snapshot, err := c.rehydrator.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	// A switch may have landed while the fetch was in flight; a stale
	// snapshot must never overwrite the newer session.
	c.mu.Lock()
	stale := c.active != sessionID
	c.mu.Unlock()
	if stale {
		c.logger.Debug().Str("session_id", sessionID).Msg("dropping stale rehydrate")
		return nil
	}

	c.syncer.ReplaceAll(snapshot.Session, snapshot.Messages)
	c.logger.Info().
		Str("session_id", sessionID).
		Int("messages", len(snapshot.Messages)).
		Msg("session rehydrated")
	return nil
}

func (c *Client) writeControl(conn Conn, cmd, sessionID string) error {
	c.logger.Debug().
		Str("cmd", cmd).
		Str("session_id", sessionID).
		Str("token", logging.RedactToken(c.token)).
		Msg("sending control request")
	return conn.WriteLine(controlRequest{
		Cmd:       cmd,
		SessionID: sessionID,
		Token:     c.token,
		ReqID:     uuid.NewString(),
	})
}

func (c *Client) readLoop(conn Conn, done chan struct{}) {
	defer close(done)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			c.mu.Lock()
			closed := c.conn != conn
			if !closed {
				c.conn = nil
				c.done = nil
				c.state = StateDisconnected
				c.active = ""
			}
			c.mu.Unlock()
			if !closed {
				c.logger.Warn().Err(err).Msg("event channel closed")
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed event line")
			continue
		}
		if env.OK != nil {
			// Ack of a control request.
			if !*env.OK && env.Error != nil {
				c.logger.Warn().
					Str("req_id", env.ReqID).
					Str("code", env.Error.Code).
					Msg(env.Error.Message)
			} else {
				c.logger.Debug().Str("req_id", env.ReqID).Msg("control acknowledged")
			}
			continue
		}
		c.handleEvent(env)
	}
}

func (c *Client) handleEvent(env envelope) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	logger := c.logger.With().Str("event", env.Event).Str("session_id", env.SessionID).Logger()

	switch env.Event {
	case eventMessageUpdate, eventNewMessage:
		if env.SessionID != "" && env.SessionID != active {
			logger.Debug().Msg("dropping event for inactive session")
			return
		}
		patch, err := models.DecodeMessagePatch(env.Message)
		if err != nil {
			logger.Warn().Err(err).Msg("dropping malformed message event")
			return
		}
		if env.Event == eventNewMessage && c.syncer.HasMessage(patch) {
			logger.Debug().Str("message_id", patch.Identity()).Msg("dropping duplicate new message")
			return
		}
		c.syncer.ApplyDelta(patch)

	case eventSessionUpdate:
		if env.SessionID != "" && env.SessionID != active {
			logger.Debug().Msg("dropping event for inactive session")
			return
		}
		patch, err := models.DecodeSessionPatch(env.Session)
		if err != nil {
			logger.Warn().Err(err).Msg("dropping malformed session event")
			return
		}
		c.syncer.ApplySessionPatch(patch)

	case eventSessionStatus:
		if env.SessionID != active {
			logger.Debug().Msg("ignoring status for inactive session")
			return
		}
		timestamp := float64(time.Now().Unix())
		if env.Timestamp != nil {
			timestamp = *env.Timestamp
		}
		c.syncer.MarkStatus(env.Status, timestamp)

	case eventTicketsPrepared:
		if c.onTickets != nil {
			c.onTickets(env.SessionID, env.Payload)
		}

	default:
		logger.Debug().Msg("ignoring unknown event")
	}
}
