package client

import (
	"log/slog"
)

// EditorClientCallbacks defines optional hooks into an EditorClient's message
// flow. All callbacks run on the connection's read loop.
type EditorClientCallbacks struct {
	// MessageApplied is called after an inbound message changed the graph
	MessageApplied func(*EditorClient, *EditorMessage)

	// MessageFailed is called when an inbound message could not be applied
	MessageFailed func(*EditorClient, *EditorMessage, error)

	// MessageSent is called for every outbound message, written or not
	MessageSent func(*EditorClient, *EditorMessage)
}

// DefaultEditorClientCallbacks logs applied and failed messages.
func DefaultEditorClientCallbacks() *EditorClientCallbacks {
	return &EditorClientCallbacks{
		MessageApplied: func(c *EditorClient, msg *EditorMessage) {
			slog.Info("Applied editor message", "client_id", c.ClientID(), "type", msg.Type)
		},
		MessageFailed: func(c *EditorClient, msg *EditorMessage, err error) {
			slog.Error("Editor message failed", "client_id", c.ClientID(), "type", msg.Type, "error", err)
		},
	}
}

// WithMessageApplied sets the applied handler (builder pattern)
func (h *EditorClientCallbacks) WithMessageApplied(fn func(*EditorClient, *EditorMessage)) *EditorClientCallbacks {
	h.MessageApplied = fn
	return h
}

// WithMessageFailed sets the failure handler (builder pattern)
func (h *EditorClientCallbacks) WithMessageFailed(fn func(*EditorClient, *EditorMessage, error)) *EditorClientCallbacks {
	h.MessageFailed = fn
	return h
}

// WithMessageSent sets the outbound handler (builder pattern)
func (h *EditorClientCallbacks) WithMessageSent(fn func(*EditorClient, *EditorMessage)) *EditorClientCallbacks {
	h.MessageSent = fn
	return h
}
