package graphapi

import "github.com/richinsley/dynport/ports"

// Slot is a connection point of a GraphNode as the editor draws it. Input
// slots carry the caption, visibility and row derived by the node's port
// controller; output slots are always visible.
type Slot struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Link      *int             `json:"link,omitempty"`  // link feeding an input slot
	Links     *[]int           `json:"links,omitempty"` // links leaving an output slot
	SlotIndex int              `json:"slot_index"`
	Caption   string           `json:"caption,omitempty"`
	Visible   bool             `json:"visible"`
	Position  int              `json:"position"` // visual row, -1 when hidden
	State     *ports.SlotState `json:"state,omitempty"`
}
