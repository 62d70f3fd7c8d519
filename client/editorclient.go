package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/richinsley/dynport/graphapi"
)

// EditorClient bridges a graph to a remote editor over a websocket. Editor
// messages are applied on the connection's read loop; the replies and the
// port layout changes they cause are written back on the same connection.
type EditorClient struct {
	clientid  string
	session   *Session
	conn      *WebSocketConnection
	callbacks *EditorClientCallbacks
	logger    *slog.Logger
}

// NewEditorClient creates a client for the editor at serverURL. The graph's
// callbacks are replaced by the client's.
func NewEditorClient(serverURL string, graph *graphapi.Graph, callbacks *EditorClientCallbacks) *EditorClient {
	if callbacks == nil {
		callbacks = &EditorClientCallbacks{}
	}
	cid := uuid.New().String()
	retv := &EditorClient{
		clientid:  cid,
		callbacks: callbacks,
		logger:    slog.Default().With("client_id", cid),
	}
	retv.session = NewSession(graph, retv.send, retv.logger)
	retv.conn = NewWebSocketConnection(withClientID(serverURL, cid), retv)
	retv.conn.OnConnected = retv.hello
	return retv
}

func withClientID(serverURL, cid string) string {
	u, err := url.Parse(serverURL)
	if err != nil {
		return serverURL
	}
	q := u.Query()
	q.Set("clientId", cid)
	u.RawQuery = q.Encode()
	return u.String()
}

// ClientID returns the unique id this client announces to the editor.
func (c *EditorClient) ClientID() string {
	return c.clientid
}

func (c *EditorClient) Session() *Session {
	return c.session
}

// Connection returns the underlying websocket, to tune retries before Connect.
func (c *EditorClient) Connection() *WebSocketConnection {
	return c.conn
}

// Connect dials the editor. The first message written on the connection
// announces the client and graph ids.
func (c *EditorClient) Connect(ctx context.Context) error {
	return c.conn.ConnectWithManager(ctx)
}

func (c *EditorClient) hello() {
	c.send(EditorMessage{Type: TypeHello, Data: &HelloData{ClientID: c.clientid, GraphID: c.session.Graph().ID}})
}

// Done is closed when the editor connection ends.
func (c *EditorClient) Done() <-chan struct{} {
	return c.conn.Done()
}

func (c *EditorClient) Close() error {
	return c.conn.Close()
}

// OnMessage implements WebSocketCallback.
func (c *EditorClient) OnMessage(message []byte) {
	msg := &EditorMessage{}
	if err := json.Unmarshal(message, msg); err != nil {
		c.logger.Warn("Unable to decode editor message", "error", err)
		c.send(errorMessage(err))
		return
	}

	if err := c.session.Apply(msg); err != nil {
		c.logger.Warn("Unable to apply editor message", "type", msg.Type, "error", err)
		c.send(errorMessage(err))
		if c.callbacks.MessageFailed != nil {
			c.callbacks.MessageFailed(c, msg, err)
		}
		return
	}
	if c.callbacks.MessageApplied != nil {
		c.callbacks.MessageApplied(c, msg)
	}
}

func (c *EditorClient) send(msg EditorMessage) {
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Warn("Unable to send editor message", "type", msg.Type, "error", err)
	}
	if c.callbacks.MessageSent != nil {
		c.callbacks.MessageSent(c, &msg)
	}
}
