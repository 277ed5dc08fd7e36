package channel

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atendeai/clinicbot/internal/dialog"
	"github.com/atendeai/clinicbot/pkg/logging"
)

// directChatSuffix marks person-to-person WhatsApp chats; group and broadcast
// chats carry other suffixes and are never answered.
const directChatSuffix = "@c.us"

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// gatewayEvent is one inbound event on the gateway's websocket stream.
type gatewayEvent struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	Body     string `json:"body"`
	PushName string `json:"push_name"`
}

// Listener consumes the gateway's websocket stream and feeds direct-chat
// messages into the dialog queue.
type Listener struct {
	url    string
	token  string
	queue  *dialog.Queue
	logger *logging.Logger

	// dial is swapped in tests.
	dial func(ctx context.Context) (wsConn, error)
}

// wsConn is the subset of *websocket.Conn the listener uses.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// NewListener creates a listener for the websocket endpoint at url.
func NewListener(url, token string, queue *dialog.Queue, logger *logging.Logger) *Listener {
	if logger == nil {
		logger = logging.Default()
	}
	l := &Listener{
		url:    url,
		token:  token,
		queue:  queue,
		logger: logger,
	}
	l.dial = l.dialGateway
	return l
}

func (l *Listener) dialGateway(ctx context.Context) (wsConn, error) {
	header := map[string][]string{}
	if l.token != "" {
		header["Authorization"] = []string{"Bearer " + l.token}
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Run connects and consumes events until ctx is canceled, reconnecting with
// exponential backoff after any failure.
func (l *Listener) Run(ctx context.Context) {
	backoff := reconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := l.dial(ctx)
		if err != nil {
			l.logger.Error("channel: gateway connect failed", "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, reconnectMax)
			continue
		}

		l.logger.Info("channel: connected to gateway stream", "url", l.url)
		backoff = reconnectMin
		l.consume(ctx, conn)
	}
}

// consume reads events until the connection breaks or ctx is canceled.
func (l *Listener) consume(ctx context.Context, conn wsConn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Warn("channel: gateway stream closed", "error", err)
			}
			conn.Close()
			return
		}
		l.handleEvent(ctx, raw)
	}
}

func (l *Listener) handleEvent(ctx context.Context, raw []byte) {
	var ev gatewayEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		l.logger.Warn("channel: malformed gateway event dropped", "error", err)
		return
	}
	if ev.Type != "" && ev.Type != "message" {
		return
	}
	if !strings.HasSuffix(ev.From, directChatSuffix) {
		return
	}

	body, err := json.Marshal(dialog.Inbound{
		ContactID:   ev.From,
		Text:        ev.Body,
		DisplayName: ev.PushName,
	})
	if err != nil {
		l.logger.Error("channel: marshal inbound failed", "error", err)
		return
	}
	if err := l.queue.Enqueue(ctx, body); err != nil {
		l.logger.Error("channel: enqueue inbound failed", "error", err, "contact", ev.From)
	}
}
