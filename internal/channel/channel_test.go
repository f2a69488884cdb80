package channel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strato-space/voicesync/internal/api"
	"github.com/strato-space/voicesync/internal/models"
	"github.com/strato-space/voicesync/internal/syncer"
)

type fakeConn struct {
	mu     sync.Mutex
	writes []map[string]any
	lines  chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{lines: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) push(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	c.lines <- data
}

func (c *fakeConn) ReadLine() ([]byte, error) {
	select {
	case line := <-c.lines:
		return line, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.mu.Lock()
	c.writes = append(c.writes, m)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.writes))
	for _, w := range c.writes {
		cmd, _ := w["cmd"].(string)
		id, _ := w["session_id"].(string)
		out = append(out, cmd+" "+id)
	}
	return out
}

type fakeDialer struct {
	conn *fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	return d.conn, nil
}

type fakeRehydrator struct {
	mu        sync.Mutex
	snapshots map[string]*api.SessionSnapshot
	gates     map[string]chan struct{}
	started   chan string
}

func (r *fakeRehydrator) GetSession(ctx context.Context, sessionID string) (*api.SessionSnapshot, error) {
	r.mu.Lock()
	gate := r.gates[sessionID]
	snap := r.snapshots[sessionID]
	r.mu.Unlock()
	if r.started != nil {
		select {
		case r.started <- sessionID:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if snap == nil {
		return nil, errors.New("no such session")
	}
	copied := *snap
	return &copied, nil
}

func rawPatch(t *testing.T, data string) json.RawMessage {
	t.Helper()
	return json.RawMessage(data)
}

func newTestClient(t *testing.T, sessionID string, rehydrator *fakeRehydrator) (*Client, *fakeConn, *syncer.Syncer) {
	t.Helper()
	conn := newFakeConn()
	state := syncer.New(models.Session{ID: sessionID, IsActive: true, Source: models.SourceVoice})
	client, err := NewClient(Config{
		Dialer:     &fakeDialer{conn: conn},
		Syncer:     state,
		Rehydrator: rehydrator,
	})
	require.NoError(t, err)
	return client, conn, state
}

func TestConnectSubscribesAndRehydrates(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {
			Session: models.Session{ID: "s1", IsActive: true, Source: models.SourceVoice},
			Messages: []models.MessagePatch{
				{LogicalID: "m1", Timestamp: floatPtr(10)},
				{LogicalID: "m2", Timestamp: floatPtr(20)},
			},
		},
	}}
	client, conn, state := newTestClient(t, "s1", rehydrator)

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.Equal(t, StateConnected, client.State())
	require.Equal(t, "s1", client.ActiveSession())
	require.Equal(t, []string{"subscribe s1"}, conn.commands())
	require.Len(t, state.Messages(), 2)
}

func TestConnectTwiceFails(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1"}},
	}}
	client, _, _ := newTestClient(t, "s1", rehydrator)

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()
	require.Error(t, client.Connect(context.Background()))
}

func TestMessageEventsApplied(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1", IsActive: true}},
	}}
	client, conn, state := newTestClient(t, "s1", rehydrator)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	conn.push(t, envelope{
		Event:     eventNewMessage,
		SessionID: "s1",
		Message:   rawPatch(t, `{"message_id":"m1","timestamp":5,"text":"hello"}`),
	})
	require.Eventually(t, func() bool {
		return len(state.Messages()) == 1
	}, time.Second, time.Millisecond)

	conn.push(t, envelope{
		Event:     eventMessageUpdate,
		SessionID: "s1",
		Message:   rawPatch(t, `{"message_id":"m1","text":"edited"}`),
	})
	require.Eventually(t, func() bool {
		messages := state.Messages()
		return len(messages) == 1 && messages[0].Text == "edited"
	}, time.Second, time.Millisecond)
}

func TestDuplicateNewMessageDropped(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1", IsActive: true}},
	}}
	client, conn, state := newTestClient(t, "s1", rehydrator)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	duplicate := envelope{
		Event:     eventNewMessage,
		SessionID: "s1",
		Message:   rawPatch(t, `{"message_id":"m1","timestamp":5,"text":"hello"}`),
	}
	conn.push(t, duplicate)
	conn.push(t, duplicate)
	conn.push(t, envelope{
		Event:     eventNewMessage,
		SessionID: "s1",
		Message:   rawPatch(t, `{"message_id":"m2","timestamp":6,"text":"world"}`),
	})

	require.Eventually(t, func() bool {
		return len(state.Messages()) == 2
	}, time.Second, time.Millisecond)
	messages := state.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "hello", messages[0].Text)
	require.Equal(t, "world", messages[1].Text)
}

func TestEventForOtherSessionDropped(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1", IsActive: true}},
	}}
	client, conn, state := newTestClient(t, "s1", rehydrator)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	conn.push(t, envelope{
		Event:     eventNewMessage,
		SessionID: "other",
		Message:   rawPatch(t, `{"message_id":"m1","timestamp":5,"text":"hello"}`),
	})
	conn.push(t, envelope{
		Event:     eventNewMessage,
		SessionID: "s1",
		Message:   rawPatch(t, `{"message_id":"m2","timestamp":6,"text":"mine"}`),
	})
	require.Eventually(t, func() bool {
		return len(state.Messages()) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, "mine", state.Messages()[0].Text)
}

func TestSessionStatusAppliedToActiveSessionOnly(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1", IsActive: true}},
	}}
	client, conn, state := newTestClient(t, "s1", rehydrator)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	conn.push(t, envelope{
		Event:     eventSessionStatus,
		SessionID: "other",
		Status:    models.SessionStatusDoneQueued,
		Timestamp: floatPtr(100),
	})
	conn.push(t, envelope{
		Event:     eventSessionStatus,
		SessionID: "s1",
		Status:    models.SessionStatusDoneQueued,
		Timestamp: floatPtr(200),
	})

	require.Eventually(t, func() bool {
		return !state.Session().IsActive
	}, time.Second, time.Millisecond)
	session := state.Session()
	require.True(t, session.ToFinalize)
	require.Equal(t, float64(200), session.DoneAt)
}

func TestTicketsPreparedPassthrough(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1", IsActive: true}},
	}}
	conn := newFakeConn()
	state := syncer.New(models.Session{ID: "s1", IsActive: true})
	got := make(chan string, 1)
	client, err := NewClient(Config{
		Dialer:     &fakeDialer{conn: conn},
		Syncer:     state,
		Rehydrator: rehydrator,
		OnTickets: func(sessionID string, payload json.RawMessage) {
			got <- sessionID + ":" + string(payload)
		},
	})
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	conn.push(t, envelope{
		Event:     eventTicketsPrepared,
		SessionID: "s1",
		Payload:   json.RawMessage(`{"count":3}`),
	})
	select {
	case v := <-got:
		require.Equal(t, `s1:{"count":3}`, v)
	case <-time.After(time.Second):
		t.Fatal("tickets_prepared was not delivered")
	}
}

func TestSwitchSessionResubscribesAndRehydrates(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1", IsActive: true}},
		"s2": {
			Session:  models.Session{ID: "s2", IsActive: true},
			Messages: []models.MessagePatch{{LogicalID: "n1", Timestamp: floatPtr(1)}},
		},
	}}
	client, conn, state := newTestClient(t, "s1", rehydrator)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, client.SwitchSession(context.Background(), "s2"))
	require.Equal(t, "s2", client.ActiveSession())
	require.Equal(t, "s2", state.SessionID())
	require.Len(t, state.Messages(), 1)
	require.Equal(t, []string{"subscribe s1", "unsubscribe s1", "subscribe s2"}, conn.commands())
}

func TestStaleRehydrateNeverOverwritesNewerSession(t *testing.T) {
	gate := make(chan struct{})
	rehydrator := &fakeRehydrator{
		snapshots: map[string]*api.SessionSnapshot{
			"s1": {
				Session:  models.Session{ID: "s1", IsActive: true},
				Messages: []models.MessagePatch{{LogicalID: "stale", Timestamp: floatPtr(1)}},
			},
			"s2": {
				Session:  models.Session{ID: "s2", IsActive: true},
				Messages: []models.MessagePatch{{LogicalID: "fresh", Timestamp: floatPtr(2)}},
			},
		},
		started: make(chan string, 4),
	}
	client, _, state := newTestClient(t, "s1", rehydrator)

	// Gate only the explicit refetch, not the connect-time rehydrate.
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()
	rehydrator.mu.Lock()
	rehydrator.gates = map[string]chan struct{}{"s1": gate}
	rehydrator.mu.Unlock()
	for len(rehydrator.started) > 0 {
		<-rehydrator.started
	}

	done := make(chan error, 1)
	go func() { done <- client.Rehydrate(context.Background()) }()
	require.Equal(t, "s1", <-rehydrator.started)

	require.NoError(t, client.SwitchSession(context.Background(), "s2"))
	require.Equal(t, "s2", state.SessionID())

	close(gate)
	require.NoError(t, <-done)

	require.Equal(t, "s2", state.SessionID())
	messages := state.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, "fresh", messages[0].LogicalID)
}

func TestDisconnectResetsHandle(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{
		"s1": {Session: models.Session{ID: "s1", IsActive: true}},
	}}
	client, _, _ := newTestClient(t, "s1", rehydrator)
	require.NoError(t, client.Connect(context.Background()))

	client.Disconnect()
	require.Equal(t, StateDisconnected, client.State())
	require.Equal(t, "", client.ActiveSession())

	require.NoError(t, client.Connect(context.Background()))
	client.Disconnect()
}

func floatPtr(v float64) *float64 { return &v }

type freshDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
}

func (d *freshDialer) Dial(ctx context.Context) (Conn, error) {
	conn := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func TestConnectFailsWhenInitialRehydrateFails(t *testing.T) {
	rehydrator := &fakeRehydrator{snapshots: map[string]*api.SessionSnapshot{}}
	dialer := &freshDialer{}
	state := syncer.New(models.Session{ID: "s1", IsActive: true})
	client, err := NewClient(Config{
		Dialer:     dialer,
		Syncer:     state,
		Rehydrator: rehydrator,
	})
	require.NoError(t, err)

	err = client.Connect(context.Background())
	require.Error(t, err)
	require.Equal(t, StateDisconnected, client.State())
	require.Equal(t, "", client.ActiveSession())
	require.Empty(t, state.Messages())

	// Once the backend can serve the session, a fresh Connect succeeds.
	rehydrator.mu.Lock()
	rehydrator.snapshots["s1"] = &api.SessionSnapshot{
		Session:  models.Session{ID: "s1", IsActive: true},
		Messages: []models.MessagePatch{{LogicalID: "m1", Timestamp: floatPtr(1)}},
	}
	rehydrator.mu.Unlock()

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()
	require.Equal(t, StateConnected, client.State())
	require.Len(t, state.Messages(), 1)
}
