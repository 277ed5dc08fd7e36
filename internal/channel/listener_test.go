package channel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendeai/clinicbot/internal/dialog"
)

// scriptedConn replays a fixed list of frames, then fails like a dropped
// connection.
type scriptedConn struct {
	mu     sync.Mutex
	frames [][]byte
	idx    int
	closed bool
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.idx >= len(c.frames) {
		return 0, nil, io.EOF
	}
	frame := c.frames[c.idx]
	c.idx++
	return websocket.TextMessage, frame, nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func dequeueInbound(t *testing.T, q *dialog.Queue) dialog.Inbound {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msg, err := q.Dequeue(ctx)
	require.NoError(t, err)
	var in dialog.Inbound
	require.NoError(t, json.Unmarshal(msg.Body, &in))
	return in
}

func TestListenerEnqueuesDirectMessages(t *testing.T) {
	q := dialog.NewQueue(8)
	l := NewListener("ws://gateway.local/stream", "", q, nil)

	l.handleEvent(context.Background(), []byte(`{"type":"message","from":"5511999990000@c.us","body":"oi","push_name":"maria souza"}`))

	in := dequeueInbound(t, q)
	assert.Equal(t, "5511999990000@c.us", in.ContactID)
	assert.Equal(t, "oi", in.Text)
	assert.Equal(t, "maria souza", in.DisplayName)
}

func TestListenerIgnoresGroupsAndOtherEvents(t *testing.T) {
	q := dialog.NewQueue(8)
	l := NewListener("ws://gateway.local/stream", "", q, nil)
	ctx := context.Background()

	l.handleEvent(ctx, []byte(`{"type":"message","from":"123456789@g.us","body":"grupo"}`))
	l.handleEvent(ctx, []byte(`{"type":"ack","from":"5511999990000@c.us"}`))
	l.handleEvent(ctx, []byte(`not json`))

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListenerConsumesStreamUntilDisconnect(t *testing.T) {
	q := dialog.NewQueue(8)
	l := NewListener("ws://gateway.local/stream", "", q, nil)

	conn := &scriptedConn{frames: [][]byte{
		[]byte(`{"type":"message","from":"a@c.us","body":"primeira"}`),
		[]byte(`{"type":"message","from":"b@c.us","body":"segunda"}`),
	}}
	l.consume(context.Background(), conn)

	assert.Equal(t, "primeira", dequeueInbound(t, q).Text)
	assert.Equal(t, "segunda", dequeueInbound(t, q).Text)
	assert.True(t, conn.wasClosed())
}

func TestListenerRunReconnectsAndStopsOnCancel(t *testing.T) {
	q := dialog.NewQueue(8)
	l := NewListener("ws://gateway.local/stream", "", q, nil)

	ctx, cancel := context.WithCancel(context.Background())
	dials := 0
	l.dial = func(context.Context) (wsConn, error) {
		dials++
		if dials == 1 {
			return nil, errors.New("connection refused")
		}
		cancel()
		return &scriptedConn{frames: [][]byte{
			[]byte(`{"type":"message","from":"a@c.us","body":"oi"}`),
		}}, nil
	}

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}
	assert.GreaterOrEqual(t, dials, 2)
}
