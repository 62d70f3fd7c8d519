package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/richinsley/dynport/graphapi"
	"github.com/richinsley/dynport/ports"
)

var ErrUnhandledMessage = errors.New("unhandled message type")

// Session applies editor messages to a graph and reports every resulting
// change through send. It holds no connection, so the websocket client and
// offline replays share it. Apply may be called from any goroutine; calls
// are serialized.
type Session struct {
	mu     sync.Mutex
	graph  *graphapi.Graph
	send   func(EditorMessage)
	logger *slog.Logger
}

// NewSession takes over the graph's callbacks.
func NewSession(graph *graphapi.Graph, send func(EditorMessage), logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if send == nil {
		send = func(EditorMessage) {}
	}
	s := &Session{graph: graph, send: send, logger: logger}
	graph.SetCallbacks(&graphapi.GraphCallbacks{
		NodeLayoutChanged: func(_ *graphapi.Graph, n *graphapi.GraphNode) {
			s.send(portsChanged(n))
		},
		NodeDataUpdated: func(_ *graphapi.Graph, n *graphapi.GraphNode, k int) {
			msg := &DataUpdatedData{NodeID: n.ID, Slot: k}
			if out := n.Ports.OutData(k); out != nil {
				msg.Value = out
			}
			s.send(EditorMessage{Type: TypeDataUpdated, Data: msg})
		},
		LinkRemoved: func(_ *graphapi.Graph, l *graphapi.Link) {
			s.send(EditorMessage{Type: TypeLinkDropped, Data: &LinkDroppedData{LinkID: l.ID}})
		},
	})
	return s
}

// Graph returns the session's graph. Callers must not mutate it while
// messages are being applied.
func (s *Session) Graph() *graphapi.Graph {
	return s.graph
}

// Apply handles one inbound message, then drains the work the graph deferred
// while handling it.
func (s *Session) Apply(msg *EditorMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.apply(msg)
	if n := s.graph.Flush(); n > 0 {
		s.logger.Debug("flushed deferred work", "count", n)
	}
	return err
}

func (s *Session) apply(msg *EditorMessage) error {
	switch d := msg.Data.(type) {
	case *NodeAddedData:
		n, err := s.graph.AddNode(d.Type)
		if err != nil {
			return err
		}
		n.Title = d.Title
		for k, v := range d.Properties {
			n.Properties[k] = v
		}
		s.send(EditorMessage{Type: TypeNodeCreated, Data: &NodeCreatedData{NodeID: n.ID, Type: n.Type}})
		s.send(portsChanged(n))
		return nil

	case *NodeRemovedData:
		return s.graph.RemoveNode(d.NodeID)

	case *LinkCreatedData:
		l, outcome, err := s.graph.Connect(d.OriginID, d.OriginSlot, d.TargetID, d.TargetSlot)
		if err != nil {
			return err
		}
		s.send(EditorMessage{Type: TypeLinkAdded, Data: &LinkAddedData{Link: l, Outcome: outcome.String()}})
		if outcome == ports.Rejected {
			s.send(EditorMessage{Type: TypeLinkRejected, Data: &LinkRejectedData{LinkID: l.ID}})
		}
		return nil

	case *LinkRemovedData:
		_, err := s.graph.Disconnect(d.LinkID)
		return err

	case *SaveRequestData:
		data, err := json.Marshal(s.graph)
		if err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
		s.send(EditorMessage{Type: TypeGraphSaved, Data: &GraphSavedData{Graph: data}})
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnhandledMessage, msg.Type)
	}
}

// Snapshot returns the graph in its saved form.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.graph)
}
