package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketCallback receives every message read from the connection.
type WebSocketCallback interface {
	OnMessage(message []byte)
}

type WebSocketConnection struct {
	WebSocketURL string
	Conn         *websocket.Conn
	MaxRetry     int
	RetryCount   int
	Callback     WebSocketCallback
	// OnConnected runs after each successful dial, before any message is read
	OnConnected func()

	// Exponential backoff configuration
	BaseDelay time.Duration // The initial delay, e.g., 1 second
	MaxDelay  time.Duration // The maximum delay, e.g., 1 minute
	Dialer    websocket.Dialer

	mu        sync.Mutex // guards Conn writes and connected
	connected bool
	done      chan struct{}
	doneOnce  sync.Once
}

// NewWebSocketConnection creates a connection with the default backoff.
func NewWebSocketConnection(url string, callback WebSocketCallback) *WebSocketConnection {
	return &WebSocketConnection{
		WebSocketURL: url,
		MaxRetry:     5,
		Callback:     callback,
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		Dialer:       *websocket.DefaultDialer,
		done:         make(chan struct{}),
	}
}

// ConnectWithManager dials until a connection is made, MaxRetry attempts
// fail, or ctx ends. Once connected, messages are read on a background
// goroutine until the connection drops; Done is closed afterwards.
func (w *WebSocketConnection) ConnectWithManager(ctx context.Context) error {
	if w.done == nil {
		w.done = make(chan struct{})
	}
	connected := make(chan error, 1)

	go func() {
		retries := 0
		for {
			err := w.connect(ctx)
			if err == nil {
				w.setConnected(true)
				if w.OnConnected != nil {
					w.OnConnected()
				}
				connected <- nil
				w.handleMessages()
				return
			}
			slog.Error("Connection attempt failed", "error", err)

			retries++
			if retries > w.MaxRetry {
				connected <- fmt.Errorf("maximum number of retries reached (%d): %w", w.MaxRetry, err)
				return
			}

			select {
			case <-time.After(w.getReconnectDelay()):
			case <-ctx.Done():
				connected <- ctx.Err()
				return
			}
		}
	}()

	select {
	case err := <-connected:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WebSocketConnection) connect(ctx context.Context) error {
	conn, _, err := w.Dialer.DialContext(ctx, w.WebSocketURL, nil)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.Conn = conn
	w.mu.Unlock()
	return nil
}

// IsConnected reports whether the read loop is running.
func (w *WebSocketConnection) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *WebSocketConnection) setConnected(v bool) {
	w.mu.Lock()
	w.connected = v
	w.mu.Unlock()
}

// Done is closed when the read loop exits.
func (w *WebSocketConnection) Done() <-chan struct{} {
	return w.done
}

// WriteJSON sends v as a text message.
func (w *WebSocketConnection) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Conn == nil || !w.connected {
		return errors.New("websocket not connected")
	}
	return w.Conn.WriteJSON(v)
}

func (w *WebSocketConnection) Ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Conn == nil {
		return errors.New("websocket not connected")
	}
	return w.Conn.WriteMessage(websocket.PingMessage, nil)
}

// Close sends a close frame and drops the connection.
func (w *WebSocketConnection) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.Conn.Close()
}

func (w *WebSocketConnection) handleMessages() {
	defer func() {
		w.setConnected(false)
		w.Conn.Close()
		w.doneOnce.Do(func() { close(w.done) })
	}()
	for {
		_, message, err := w.Conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("Read error", "error", err)
			}
			return
		}
		if w.Callback != nil {
			w.Callback.OnMessage(message)
		}
	}
}

// exponential backoff calculation
func (w *WebSocketConnection) getReconnectDelay() time.Duration {
	// BaseDelay * 2^(RetryCount), capped at MaxDelay
	delay := w.BaseDelay * time.Duration(math.Pow(2, float64(w.RetryCount)))
	if delay > w.MaxDelay {
		delay = w.MaxDelay
	}
	w.RetryCount++
	return delay
}
