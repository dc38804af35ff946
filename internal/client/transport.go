package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"skillnexus/backend/internal/config"
	"skillnexus/backend/internal/models"
)

var ErrNotConnected = errors.New("not connected")

// Transport is a WebSocket connection to the hub that redials a bounded
// number of times when it drops. It implements session.Transport.
type Transport struct {
	wsURL  string
	token  string
	userID string

	Attempts    int
	Delay       time.Duration
	DialTimeout time.Duration

	// OnEvent receives every decoded server event on the read goroutine.
	OnEvent func(models.Event)
	// OnDisconnect is called when reconnection gave up.
	OnDisconnect func(error)

	log *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewTransport derives the WebSocket URL from the server's base URL.
func NewTransport(baseURL, token, userID string, log *slog.Logger) *Transport {
	if log == nil {
		log = slog.Default()
	}
	ws := strings.TrimRight(baseURL, "/")
	ws = strings.Replace(ws, "http", "ws", 1)
	return &Transport{
		wsURL:       ws + "/ws?token=" + url.QueryEscape(token),
		token:       token,
		userID:      userID,
		Attempts:    config.ReconnectAttempts,
		Delay:       config.ReconnectDelay,
		DialTimeout: config.ConnectTimeout,
		log:         log,
	}
}

// Connect dials the hub, retrying with a fixed delay, and starts reading.
// After every successful dial the transport announces itself with
// user:join.
func (t *Transport) Connect(ctx context.Context) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	go t.readLoop(ctx, conn)
	return nil
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: t.DialTimeout, Proxy: http.ProxyFromEnvironment}
	header := http.Header{"Authorization": []string{"Bearer " + t.token}}

	var lastErr error
	for attempt := 1; attempt <= t.Attempts; attempt++ {
		conn, _, err := dialer.DialContext(ctx, t.wsURL, header)
		if err == nil {
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				conn.Close()
				return nil, ErrNotConnected
			}
			t.conn = conn
			t.mu.Unlock()

			if err := t.Emit(models.EventUserJoin, t.userID); err != nil {
				t.log.Warn("join announcement failed", "error", err)
			}
			return conn, nil
		}

		lastErr = err
		t.log.Warn("websocket dial failed", "attempt", attempt, "max_attempts", t.Attempts, "error", err)
		if attempt == t.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.Delay):
		}
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %w", t.Attempts, lastErr)
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var ev models.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if t.isClosed() {
				return
			}
			t.log.Warn("websocket connection lost", "error", err)
			t.mu.Lock()
			if t.conn == conn {
				t.conn = nil
			}
			t.mu.Unlock()
			conn.Close()

			next, err := t.dial(ctx)
			if err != nil {
				if t.OnDisconnect != nil && !t.isClosed() {
					t.OnDisconnect(err)
				}
				return
			}
			conn = next
			continue
		}
		if t.OnEvent != nil {
			t.OnEvent(ev)
		}
	}
}

// Emit writes one event frame.
func (t *Transport) Emit(event string, data any) error {
	ev, err := models.NewEvent(event, data)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrNotConnected
	}
	t.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return t.conn.WriteJSON(ev)
}

// Close ends the connection and stops reconnecting.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
