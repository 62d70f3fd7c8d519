package graphapi

import (
	"encoding/json"
	"sort"

	"github.com/richinsley/dynport/ports"
)

// GraphNode is one node of a Graph. Its input slots are owned by a port
// controller; the graph forwards connection events to it.
type GraphNode struct {
	ID          int
	Type        string
	Title       string
	Position    Pos
	Properties  map[string]interface{} // node properties, read by behaviors
	DisplayName string
	Description string
	Object      *NodeObject
	Ports       *ports.Controller
	Graph       *Graph

	inputLinks  map[int]int   // input slot -> link id
	outputLinks map[int][]int // output slot -> link ids
}

// nodeRecord is the saved form of a node. The port controller state nests
// under "dynamic_ports".
type nodeRecord struct {
	ID           int                    `json:"id"`
	Type         string                 `json:"type"`
	Title        string                 `json:"title,omitempty"`
	Position     Pos                    `json:"pos"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
	Inputs       []Slot                 `json:"inputs,omitempty"`
	Outputs      []Slot                 `json:"outputs,omitempty"`
	DynamicPorts json.RawMessage        `json:"dynamic_ports,omitempty"`
}

func (n *GraphNode) MarshalJSON() ([]byte, error) {
	state, err := json.Marshal(n.Ports.Save())
	if err != nil {
		return nil, err
	}
	return json.Marshal(nodeRecord{
		ID:           n.ID,
		Type:         n.Type,
		Title:        n.Title,
		Position:     n.Position,
		Properties:   n.Properties,
		Inputs:       n.Inputs(),
		Outputs:      n.Outputs(),
		DynamicPorts: state,
	})
}

// Inputs returns every input slot in logical order, hidden ones included.
func (n *GraphNode) Inputs() []Slot {
	retv := make([]Slot, len(n.Object.Inputs))
	for i, def := range n.Object.Inputs {
		state := n.Ports.StateOf(i)
		pos, ok := n.Ports.VisualPosition(i)
		if !ok {
			pos = -1
		}
		retv[i] = Slot{
			Name:      def.Name,
			Type:      def.Type,
			SlotIndex: i,
			Caption:   n.Ports.Caption(i),
			Visible:   n.Ports.Visible(i),
			Position:  pos,
			State:     &state,
		}
		if id, ok := n.inputLinks[i]; ok {
			link := id
			retv[i].Link = &link
		}
	}
	return retv
}

// VisibleInputs returns the drawn input slots top to bottom.
func (n *GraphNode) VisibleInputs() []Slot {
	all := n.Inputs()
	retv := make([]Slot, 0, len(all))
	for _, i := range n.Ports.VisualOrder() {
		if i < len(all) {
			retv = append(retv, all[i])
		}
	}
	return retv
}

func (n *GraphNode) Outputs() []Slot {
	retv := make([]Slot, len(n.Object.Outputs))
	for k, def := range n.Object.Outputs {
		retv[k] = Slot{
			Name:      def.Name,
			Type:      def.Type,
			SlotIndex: k,
			Caption:   def.Name,
			Visible:   n.Ports.OutputVisible(k),
			Position:  k,
		}
		if ids := n.outputLinks[k]; len(ids) > 0 {
			links := append([]int{}, ids...)
			retv[k].Links = &links
		}
	}
	return retv
}

// GetLinks returns the ids of links leaving output slot k.
func (n *GraphNode) GetLinks(k int) []int {
	return append([]int{}, n.outputLinks[k]...)
}

func (n *GraphNode) GetInputLink(slotIndex int) *Link {
	id, ok := n.inputLinks[slotIndex]
	if !ok {
		return nil
	}
	return n.Graph.GetLinkById(id)
}

func (n *GraphNode) GetNodeForInput(slotIndex int) *GraphNode {
	l := n.GetInputLink(slotIndex)
	if l == nil {
		return nil
	}
	return n.Graph.GetNodeById(l.OriginID)
}

// downstream returns the nodes fed by any output of n, by id.
func (n *GraphNode) downstream() []*GraphNode {
	seen := make(map[int]bool)
	retv := make([]*GraphNode, 0)
	slots := make([]int, 0, len(n.outputLinks))
	for k := range n.outputLinks {
		slots = append(slots, k)
	}
	sort.Ints(slots)
	for _, k := range slots {
		for _, id := range n.outputLinks[k] {
			l := n.Graph.GetLinkById(id)
			if l == nil || seen[l.TargetID] {
				continue
			}
			if t := n.Graph.GetNodeById(l.TargetID); t != nil {
				seen[t.ID] = true
				retv = append(retv, t)
			}
		}
	}
	return retv
}

func (n *GraphNode) addOutputLink(k, id int) {
	n.outputLinks[k] = append(n.outputLinks[k], id)
}

func (n *GraphNode) removeOutputLink(k, id int) {
	ids := n.outputLinks[k]
	for i, v := range ids {
		if v == id {
			n.outputLinks[k] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(n.outputLinks[k]) == 0 {
		delete(n.outputLinks, k)
	}
}
