package ports

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SlotState is the runtime classification of an input slot.
type SlotState int

const (
	StateHidden SlotState = iota
	StateSpare
	StateConnected
	StateDisconnected
	StateStatic
)

var slotStateNames = [...]string{
	StateHidden:       "hidden",
	StateSpare:        "spare",
	StateConnected:    "connected",
	StateDisconnected: "disconnected",
	StateStatic:       "static",
}

func (s SlotState) String() string {
	if s >= 0 && int(s) < len(slotStateNames) {
		return slotStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s SlotState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SlotState) UnmarshalText(b []byte) error {
	for i, name := range slotStateNames {
		if name == string(b) {
			*s = SlotState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown slot state %q", string(b))
}

// State is the persisted form of a controller. It nests inside the saved
// record of the owning node.
type State struct {
	ActiveInputCount   int   `json:"active_input_count" yaml:"active_input_count"`
	SpareInputIndex    int   `json:"spare_input_index" yaml:"spare_input_index"`
	ConnectedInputs    []int `json:"connected_inputs" yaml:"connected_inputs"`
	DisconnectedInputs []int `json:"disconnected_inputs" yaml:"disconnected_inputs"`
}

// DecodeState parses a saved record. Absent fields keep their zero value.
func DecodeState(raw []byte) (State, error) {
	var s State
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("decode port state: %w", err)
	}
	return s, nil
}

// Save captures the slot state. Index lists are sorted ascending.
func (c *Controller) Save() State {
	return State{
		ActiveInputCount:   c.activeInputCount,
		SpareInputIndex:    c.spare,
		ConnectedInputs:    sortedKeys(c.connected),
		DisconnectedInputs: sortedKeys(c.disconnected),
	}
}

// Restore reinstates s verbatim and notifies the host. s is not checked
// against the configuration; restoring a state saved under a different slot
// layout is the caller's responsibility.
func (c *Controller) Restore(s State) {
	c.activeInputCount = s.ActiveInputCount
	c.spare = s.SpareInputIndex
	c.connected = make(map[int]bool, len(s.ConnectedInputs))
	for _, i := range s.ConnectedInputs {
		c.connected[i] = true
	}
	c.disconnected = make(map[int]bool, len(s.DisconnectedInputs))
	for _, i := range s.DisconnectedInputs {
		c.disconnected[i] = true
	}
	c.logger.Debug("port state restored",
		"active", c.activeInputCount,
		"spare", c.spare,
		"connected", s.ConnectedInputs,
		"disconnected", s.DisconnectedInputs,
	)
	c.changed()
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}
