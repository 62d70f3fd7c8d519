package client

import (
	"encoding/json"

	"github.com/richinsley/dynport/graphapi"
	"github.com/richinsley/dynport/ports"
	"gopkg.in/yaml.v3"
)

// Message types sent by the editor front end.
const (
	TypeNodeAdded   = "node_added"
	TypeNodeRemoved = "node_removed"
	TypeLinkCreated = "link_created"
	TypeLinkRemoved = "link_removed"
	TypeSaveRequest = "save_request"
)

// Message types sent back to the editor.
const (
	TypeHello        = "hello"
	TypeNodeCreated  = "node_created"
	TypePortsChanged = "ports_changed"
	TypeDataUpdated  = "data_updated"
	TypeLinkAdded    = "link_added"
	TypeLinkRejected = "link_rejected"
	TypeLinkDropped  = "link_dropped"
	TypeGraphSaved   = "graph_saved"
	TypeError        = "error"
)

// EditorMessage is one frame of the editor protocol:
//
//	{"type": "link_created", "data": {"origin_id": 1, "origin_slot": 0, "target_id": 2, "target_slot": 0}}
type EditorMessage struct {
	Type string      `json:"type" yaml:"type"`
	Data interface{} `json:"data,omitempty" yaml:"data,omitempty"`
}

func (sm *EditorMessage) UnmarshalJSON(b []byte) error {
	// anonymous type to avoid infinite recursion
	var temp struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	sm.Type = temp.Type
	sm.Data = newMessageData(sm.Type)
	if sm.Data != nil && len(temp.Data) > 0 {
		if err := json.Unmarshal(temp.Data, sm.Data); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalYAML decodes the same shape from a YAML event log.
func (sm *EditorMessage) UnmarshalYAML(value *yaml.Node) error {
	var temp struct {
		Type string    `yaml:"type"`
		Data yaml.Node `yaml:"data"`
	}
	if err := value.Decode(&temp); err != nil {
		return err
	}

	sm.Type = temp.Type
	sm.Data = newMessageData(sm.Type)
	if sm.Data != nil && temp.Data.Kind != 0 {
		return temp.Data.Decode(sm.Data)
	}
	return nil
}

// newMessageData returns the payload type of an inbound message, or nil for
// types this side does not handle.
func newMessageData(t string) interface{} {
	switch t {
	case TypeNodeAdded:
		return &NodeAddedData{}
	case TypeNodeRemoved:
		return &NodeRemovedData{}
	case TypeLinkCreated:
		return &LinkCreatedData{}
	case TypeLinkRemoved:
		return &LinkRemovedData{}
	case TypeSaveRequest:
		return &SaveRequestData{}
	default:
		return nil
	}
}

type NodeAddedData struct {
	Type       string                 `json:"type" yaml:"type"`
	Title      string                 `json:"title,omitempty" yaml:"title,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

/*
{"type": "node_added", "data": {"type": "Number", "properties": {"value": 2}}}
*/

type NodeRemovedData struct {
	NodeID int `json:"node_id" yaml:"node_id"`
}

type LinkCreatedData struct {
	OriginID   int `json:"origin_id" yaml:"origin_id"`
	OriginSlot int `json:"origin_slot" yaml:"origin_slot"`
	TargetID   int `json:"target_id" yaml:"target_id"`
	TargetSlot int `json:"target_slot" yaml:"target_slot"`
}

type LinkRemovedData struct {
	LinkID int `json:"link_id" yaml:"link_id"`
}

type SaveRequestData struct{}

type HelloData struct {
	ClientID string `json:"client_id"`
	GraphID  string `json:"graph_id"`
}

type NodeCreatedData struct {
	NodeID int    `json:"node_id"`
	Type   string `json:"type"`
}

// PortsChangedData carries a node's input layout after its port controller
// changed shape.
type PortsChangedData struct {
	NodeID           int              `json:"node_id"`
	Order            []int            `json:"order"`
	Ports            []ports.PortView `json:"ports"`
	SpareIndex       int              `json:"spare_index"`
	ActiveInputCount int              `json:"active_input_count"`
}

type DataUpdatedData struct {
	NodeID int         `json:"node_id"`
	Slot   int         `json:"slot"`
	Value  interface{} `json:"value,omitempty"`
}

type LinkAddedData struct {
	Link    *graphapi.Link `json:"link"`
	Outcome string         `json:"outcome"`
}

type LinkRejectedData struct {
	LinkID int `json:"link_id"`
}

// LinkDroppedData reports a link the graph removed, whether the editor asked
// or a port controller refused it.
type LinkDroppedData struct {
	LinkID int `json:"link_id"`
}

type GraphSavedData struct {
	Graph json.RawMessage `json:"graph"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func portsChanged(n *graphapi.GraphNode) EditorMessage {
	return EditorMessage{
		Type: TypePortsChanged,
		Data: &PortsChangedData{
			NodeID:           n.ID,
			Order:            n.Ports.VisualOrder(),
			Ports:            n.Ports.Ports(),
			SpareIndex:       n.Ports.SpareIndex(),
			ActiveInputCount: n.Ports.ActiveInputCount(),
		},
	}
}

func errorMessage(err error) EditorMessage {
	return EditorMessage{Type: TypeError, Data: &ErrorData{Message: err.Error()}}
}
