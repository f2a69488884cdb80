package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

const (
	defaultDialTimeout = 2 * time.Second
	maxLineBytes       = 4 << 20
)

// Conn is one live event-channel connection carrying JSON lines.
type Conn interface {
	// ReadLine blocks until the next line arrives.
	ReadLine() ([]byte, error)

	// WriteLine marshals v and writes it as one line.
	WriteLine(v any) error

	Close() error
}

// Dialer opens event-channel connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// TCPDialer dials the backend event channel over TCP.
type TCPDialer struct {
	Addr    string
	Timeout time.Duration
}

// Dial opens a TCP connection to the channel endpoint.
func (d *TCPDialer) Dial(ctx context.Context) (Conn, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, err
	}
	return &lineConn{conn: conn, reader: bufio.NewReaderSize(conn, 64 << 10)}, nil
}

type lineConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (c *lineConn) ReadLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := c.reader.ReadLine()
		if err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
		if len(buf) > maxLineBytes {
			return nil, fmt.Errorf("event line exceeds %d bytes", maxLineBytes)
		}
		if !isPrefix {
			return buf, nil
		}
	}
}

func (c *lineConn) WriteLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = c.conn.Write(data)
	return err
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}

// envelope is one line on the event channel: either a pushed event or the
// ack of a control request.
type envelope struct {
	Event     string          `json:"event,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Session   json.RawMessage `json:"session,omitempty"`
	Status    string          `json:"status,omitempty"`
	Timestamp *float64        `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`

	OK    *bool      `json:"ok,omitempty"`
	Error *lineError `json:"error,omitempty"`
	ReqID string     `json:"req_id,omitempty"`
}

type lineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// controlRequest subscribes or unsubscribes one session on the channel.
type controlRequest struct {
	Cmd       string `json:"cmd"`
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
	ReqID     string `json:"req_id"`
}

// Event names pushed by the backend.
const (
	eventMessageUpdate   = "message_update"
	eventNewMessage      = "new_message"
	eventSessionUpdate   = "session_update"
	eventSessionStatus   = "session_status"
	eventTicketsPrepared = "tickets_prepared"
)
