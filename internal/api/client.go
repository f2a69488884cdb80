// Package api implements the request/response collaborator contract of the
// session backend: session fetch (initial load and rehydrate), segment
// edit/delete, session-event rollback/resend/retry, session activation and
// ticket preparation. Requests are JSON lines over a short-lived connection;
// mutations never touch local state, callers rehydrate afterward.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/strato-space/voicesync/internal/logging"
	"github.com/strato-space/voicesync/internal/models"
)

const (
	defaultDialTimeout = 2 * time.Second

	// activateAttempts bounds retries of the idempotent session activation;
	// activateBackoff grows linearly per attempt.
	activateAttempts = 3
	activateBackoff  = 500 * time.Millisecond

	maxLineBytes = 4 << 20
)

// DialFunc opens the backend connection. Overridable in tests.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Config configures a Client.
type Config struct {
	Addr        string
	DialTimeout time.Duration
	Dial        DialFunc

	// ActivateBackoff overrides the base activation retry backoff.
	ActivateBackoff time.Duration
}

// Client talks to the session backend.
type Client struct {
	addr            string
	dialTimeout     time.Duration
	dial            DialFunc
	activateBackoff time.Duration
	logger          zerolog.Logger
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" && cfg.Dial == nil {
		return nil, fmt.Errorf("backend address required")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	dial := cfg.Dial
	if dial == nil {
		dial = func(ctx context.Context, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: dialTimeout}
			return d.DialContext(ctx, "tcp", addr)
		}
	}
	backoff := cfg.ActivateBackoff
	if backoff <= 0 {
		backoff = activateBackoff
	}
	return &Client{
		addr:            addr,
		dialTimeout:     dialTimeout,
		dial:            dial,
		activateBackoff: backoff,
		logger:          logging.Component("api"),
	}, nil
}

// SessionSnapshot is the canonical session state returned by GetSession.
type SessionSnapshot struct {
	Session      models.Session
	Messages     []models.MessagePatch
	Attachments  []models.Attachment
	ChannelToken string
	ChannelPort  int
}

// TicketRow is one row of a ticket-preparation request.
type TicketRow struct {
	Entity      string `json:"entity"`
	Performer   string `json:"performer"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type request struct {
	Cmd       string      `json:"cmd"`
	ReqID     string      `json:"req_id"`
	SessionID string      `json:"session_id,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
	SegmentID string      `json:"segment_id,omitempty"`
	EventID   string      `json:"event_id,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Text      string      `json:"text,omitempty"`
	Rows      []TicketRow `json:"rows,omitempty"`
}

type response struct {
	OK           bool                  `json:"ok"`
	Error        *Error                `json:"error,omitempty"`
	Session      json.RawMessage       `json:"session,omitempty"`
	Messages     []json.RawMessage     `json:"messages,omitempty"`
	Attachments  []json.RawMessage     `json:"attachments,omitempty"`
	ChannelToken string                `json:"channel_token,omitempty"`
	ChannelPort  int                   `json:"channel_port,omitempty"`
	RowErrors    []models.TaskRowError `json:"row_errors,omitempty"`
	ReqID        string                `json:"req_id,omitempty"`
}

// GetSession fetches the canonical state of a session: session record, raw
// messages, attachments and the event-channel credentials. Used for the
// initial load and for every rehydrate.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	resp, err := c.do(ctx, request{Cmd: "get_session", SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	snap := &SessionSnapshot{
		ChannelToken: resp.ChannelToken,
		ChannelPort:  resp.ChannelPort,
	}
	if resp.Session != nil {
		session, err := models.DecodeSession(resp.Session)
		if err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		snap.Session = session
	}
	for _, raw := range resp.Messages {
		patch, err := models.DecodeMessagePatch(raw)
		if err != nil {
			c.logger.Warn().Err(err).Str("session_id", sessionID).Msg("dropping malformed message record")
			continue
		}
		snap.Messages = append(snap.Messages, patch)
	}
	for _, raw := range resp.Attachments {
		patch, err := models.DecodeMessagePatch(raw)
		if err != nil {
			continue
		}
		snap.Attachments = append(snap.Attachments, patch.Attachments...)
	}
	return snap, nil
}

// EditSegment updates the text of an editable transcript segment. The
// canonical list is not touched; the caller rehydrates afterward.
func (c *Client) EditSegment(ctx context.Context, sessionID, messageID, segmentID, text string) error {
	if !strings.HasPrefix(segmentID, models.SegmentChunkPrefix) {
		return ErrSegmentNotEditable
	}
	_, err := c.do(ctx, request{
		Cmd: "edit_segment", SessionID: sessionID, MessageID: messageID, SegmentID: segmentID, Text: text,
	})
	return err
}

// DeleteSegment removes an editable transcript segment.
func (c *Client) DeleteSegment(ctx context.Context, sessionID, messageID, segmentID string) error {
	if !strings.HasPrefix(segmentID, models.SegmentChunkPrefix) {
		return ErrSegmentNotEditable
	}
	_, err := c.do(ctx, request{
		Cmd: "delete_segment", SessionID: sessionID, MessageID: messageID, SegmentID: segmentID,
	})
	return err
}

// RollbackEvent rolls back a session event with an optional reason.
func (c *Client) RollbackEvent(ctx context.Context, sessionID, eventID, reason string) error {
	_, err := c.do(ctx, request{Cmd: "rollback_event", SessionID: sessionID, EventID: eventID, Reason: reason})
	return err
}

// ResendEvent re-sends a session event.
func (c *Client) ResendEvent(ctx context.Context, sessionID, eventID string) error {
	_, err := c.do(ctx, request{Cmd: "resend_event", SessionID: sessionID, EventID: eventID})
	return err
}

// RetryEvent retries a failed session event.
func (c *Client) RetryEvent(ctx context.Context, sessionID, eventID string) error {
	_, err := c.do(ctx, request{Cmd: "retry_event", SessionID: sessionID, EventID: eventID})
	return err
}

// ActivateSession activates a session, retrying transient failures with a
// linearly increasing backoff. When retries are exhausted and the requested
// session is the one already open, the failure is swallowed: the session is
// treated as active.
func (c *Client) ActivateSession(ctx context.Context, sessionID, openSessionID string) error {
	var lastErr error
	for attempt := 1; attempt <= activateAttempts; attempt++ {
		_, err := c.do(ctx, request{Cmd: "activate_session", SessionID: sessionID})
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
		if attempt < activateAttempts {
			if err := sleepWithContext(ctx, time.Duration(attempt)*c.activateBackoff); err != nil {
				return lastErr
			}
		}
	}
	if sessionID != "" && sessionID == openSessionID {
		c.logger.Warn().Err(lastErr).Str("session_id", sessionID).
			Msg("activation retries exhausted, treating open session as active")
		return nil
	}
	return lastErr
}

// PrepareTickets submits task rows for ticket creation and returns the
// row-level validation errors, normalized with default messages.
func (c *Client) PrepareTickets(ctx context.Context, sessionID string, rows []TicketRow) ([]models.TaskRowError, error) {
	resp, err := c.do(ctx, request{Cmd: "prepare_tickets", SessionID: sessionID, Rows: rows})
	if err != nil {
		return nil, err
	}
	return models.NormalizeTaskRowErrors(resp.RowErrors), nil
}

// do sends one request over a fresh connection and decodes the response.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	req.ReqID = uuid.New().String()

	conn, err := c.dial(ctx, c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial backend: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	reader := bufio.NewReaderSize(conn, 64<<10)
	line, err := readLine(reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !resp.OK {
		if resp.Error != nil {
			return nil, resp.Error
		}
		return nil, fmt.Errorf("backend rejected %s request", req.Cmd)
	}
	return &resp, nil
}

func readLine(reader *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
		if len(buf) > maxLineBytes {
			return nil, fmt.Errorf("response line exceeds %d bytes", maxLineBytes)
		}
		if !isPrefix {
			return buf, nil
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
