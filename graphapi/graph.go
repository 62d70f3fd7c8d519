package graphapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/richinsley/dynport/ports"
)

var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrLinkNotFound   = errors.New("link not found")
	ErrSlotOutOfRange = errors.New("slot out of range")
	ErrSlotOccupied   = errors.New("input slot already connected")
	ErrCycle          = errors.New("connection would create a cycle")
)

// GraphCallbacks let a host follow what the graph's port controllers do. All
// callbacks are optional.
type GraphCallbacks struct {
	NodeLayoutChanged func(*Graph, *GraphNode)
	NodeDataUpdated   func(*Graph, *GraphNode, int)
	LinkRemoved       func(*Graph, *Link)
}

// Graph is the editor-side model: nodes, the links between them, and the
// queue of work deferred to the next turn of the event loop. A Graph is
// driven from a single goroutine.
type Graph struct {
	ID         string
	Nodes      []*GraphNode
	Links      []*Link
	LastNodeID int
	LastLinkID int
	Version    float32
	NodesByID  map[int]*GraphNode
	LinksByID  map[int]*Link

	objects   *NodeObjects
	behaviors map[string]BehaviorFactory
	callbacks *GraphCallbacks
	logger    *slog.Logger
	pending   []func()
	restoring bool
}

type GraphOption func(*Graph)

func WithGraphCallbacks(cb *GraphCallbacks) GraphOption {
	return func(t *Graph) {
		t.callbacks = cb
	}
}

func WithGraphLogger(logger *slog.Logger) GraphOption {
	return func(t *Graph) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithBehaviors replaces the compute behaviors available to node types.
func WithBehaviors(b map[string]BehaviorFactory) GraphOption {
	return func(t *Graph) {
		t.behaviors = b
	}
}

// NewGraph creates an empty graph able to instantiate the given node types.
func NewGraph(objects *NodeObjects, opts ...GraphOption) *Graph {
	t := &Graph{
		ID:        uuid.New().String(),
		Nodes:     make([]*GraphNode, 0),
		Links:     make([]*Link, 0),
		Version:   1,
		NodesByID: make(map[int]*GraphNode),
		LinksByID: make(map[int]*Link),
		objects:   objects,
		behaviors: DefaultBehaviors(),
		callbacks: &GraphCallbacks{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetCallbacks replaces the host callbacks of a graph already built.
func (t *Graph) SetCallbacks(cb *GraphCallbacks) {
	t.callbacks = cb
}

// Post schedules fn for the next Flush.
func (t *Graph) Post(fn func()) {
	t.pending = append(t.pending, fn)
}

// Flush runs the work posted before the call and returns how many functions
// ran. Work posted while flushing waits for the next Flush.
func (t *Graph) Flush() int {
	pending := t.pending
	t.pending = nil
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Pending reports how many functions wait for the next Flush.
func (t *Graph) Pending() int {
	return len(t.pending)
}

// AddNode instantiates a node of the given type.
func (t *Graph) AddNode(nodeType string) (*GraphNode, error) {
	n, err := t.addNode(t.LastNodeID+1, nodeType)
	if err != nil {
		return nil, err
	}
	t.LastNodeID = n.ID
	return n, nil
}

func (t *Graph) addNode(id int, nodeType string) (*GraphNode, error) {
	if _, exists := t.NodesByID[id]; exists {
		return nil, fmt.Errorf("duplicate node id %d", id)
	}
	obj := t.objects.GetNodeObjectByName(nodeType)
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}
	cfg, err := obj.PortConfig()
	if err != nil {
		return nil, err
	}

	n := &GraphNode{
		ID:          id,
		Type:        nodeType,
		Properties:  make(map[string]interface{}),
		DisplayName: obj.DisplayName,
		Description: obj.Description,
		Object:      obj,
		Graph:       t,
		inputLinks:  make(map[int]int),
		outputLinks: make(map[int][]int),
	}

	opts := []ports.Option{
		ports.WithLogger(t.logger.With("node", id, "type", nodeType)),
		ports.WithCallbacks(t.portCallbacks(n)),
	}
	if obj.Behavior != "" {
		factory, ok := t.behaviors[obj.Behavior]
		if !ok {
			return nil, fmt.Errorf("node type %s: unknown behavior %q", nodeType, obj.Behavior)
		}
		computer := factory(n)
		opts = append(opts, ports.WithOutputComputer(computer))
		if p, ok := computer.(ports.InputProcessor); ok {
			opts = append(opts, ports.WithInputProcessor(p))
		}
	}
	n.Ports = ports.New(cfg, opts...)

	t.Nodes = append(t.Nodes, n)
	t.NodesByID[id] = n
	return n, nil
}

func (t *Graph) portCallbacks(n *GraphNode) ports.Callbacks {
	return ports.Callbacks{
		SizeChanged: func(*ports.Controller) {
			if t.callbacks != nil && t.callbacks.NodeLayoutChanged != nil {
				t.callbacks.NodeLayoutChanged(t, n)
			}
		},
		DataUpdated: func(_ *ports.Controller, k int) {
			t.propagate(n)
			if t.callbacks != nil && t.callbacks.NodeDataUpdated != nil {
				t.callbacks.NodeDataUpdated(t, n, k)
			}
		},
		RemoveConnection: func(c ports.Connection) {
			l, ok := c.(*Link)
			if !ok {
				return
			}
			t.removeRejected(l)
		},
		Post: t.Post,
	}
}

// RemoveNode disconnects every link of the node and drops it.
func (t *Graph) RemoveNode(id int) error {
	n := t.GetNodeById(id)
	if n == nil {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	for _, l := range append([]*Link{}, t.Links...) {
		if l.OriginID == id || l.TargetID == id {
			if _, err := t.Disconnect(l.ID); err != nil {
				return err
			}
		}
	}
	delete(t.NodesByID, id)
	for i, v := range t.Nodes {
		if v == n {
			t.Nodes = append(t.Nodes[:i], t.Nodes[i+1:]...)
			break
		}
	}
	return nil
}

// Connect links output originSlot of one node to input targetSlot of another
// and hands the new link to the target's port controller. A link the
// controller refuses stays in the graph until the next Flush removes it.
func (t *Graph) Connect(originID, originSlot, targetID, targetSlot int) (*Link, ports.Outcome, error) {
	origin := t.GetNodeById(originID)
	if origin == nil {
		return nil, ports.NoChange, fmt.Errorf("%w: %d", ErrNodeNotFound, originID)
	}
	target := t.GetNodeById(targetID)
	if target == nil {
		return nil, ports.NoChange, fmt.Errorf("%w: %d", ErrNodeNotFound, targetID)
	}
	if originSlot < 0 || originSlot >= len(origin.Object.Outputs) {
		return nil, ports.NoChange, fmt.Errorf("%w: output %d of node %d", ErrSlotOutOfRange, originSlot, originID)
	}
	if targetSlot < 0 || targetSlot >= len(target.Object.Inputs) {
		return nil, ports.NoChange, fmt.Errorf("%w: input %d of node %d", ErrSlotOutOfRange, targetSlot, targetID)
	}
	if id, busy := target.inputLinks[targetSlot]; busy {
		return nil, ports.NoChange, fmt.Errorf("%w: input %d of node %d has link %d", ErrSlotOccupied, targetSlot, targetID, id)
	}
	if originID == targetID || t.reaches(target, origin) {
		return nil, ports.NoChange, ErrCycle
	}

	t.LastLinkID++
	l := &Link{
		ID:         t.LastLinkID,
		OriginID:   originID,
		OriginSlot: originSlot,
		TargetID:   targetID,
		TargetSlot: targetSlot,
		Type:       origin.Object.Outputs[originSlot].Type,
	}
	t.addLink(l)

	outcome := target.Ports.ConnectionCreated(l)
	t.logger.Debug("link created", "link", l.ID, "outcome", outcome.String())
	if outcome != ports.Rejected {
		t.deliver(l)
	}
	return l, outcome, nil
}

// Disconnect removes a link and tells the target's port controller.
func (t *Graph) Disconnect(linkID int) (ports.Outcome, error) {
	l := t.GetLinkById(linkID)
	if l == nil {
		return ports.NoChange, fmt.Errorf("%w: %d", ErrLinkNotFound, linkID)
	}
	t.removeLink(l)

	outcome := ports.NoChange
	if target := t.GetNodeById(l.TargetID); target != nil {
		outcome = target.Ports.ConnectionDeleted(l)
		target.Ports.SetInData(nil, l.TargetSlot)
		t.propagate(target)
	}
	t.logger.Debug("link removed", "link", l.ID, "outcome", outcome.String())
	if t.callbacks != nil && t.callbacks.LinkRemoved != nil {
		t.callbacks.LinkRemoved(t, l)
	}
	return outcome, nil
}

// removeRejected drops a link its target controller refused. The controller
// never took the link, so it is not told about the removal. A link already
// removed is ignored.
func (t *Graph) removeRejected(l *Link) {
	if _, ok := t.LinksByID[l.ID]; !ok {
		t.logger.Debug("rejected link already gone", "link", l.ID)
		return
	}
	t.removeLink(l)
	t.logger.Debug("rejected link removed", "link", l.ID)
	if t.callbacks != nil && t.callbacks.LinkRemoved != nil {
		t.callbacks.LinkRemoved(t, l)
	}
}

func (t *Graph) addLink(l *Link) {
	t.Links = append(t.Links, l)
	t.LinksByID[l.ID] = l
	if origin := t.GetNodeById(l.OriginID); origin != nil {
		origin.addOutputLink(l.OriginSlot, l.ID)
	}
	if target := t.GetNodeById(l.TargetID); target != nil {
		target.inputLinks[l.TargetSlot] = l.ID
	}
}

func (t *Graph) removeLink(l *Link) {
	delete(t.LinksByID, l.ID)
	for i, v := range t.Links {
		if v.ID == l.ID {
			t.Links = append(t.Links[:i], t.Links[i+1:]...)
			break
		}
	}
	if origin := t.GetNodeById(l.OriginID); origin != nil {
		origin.removeOutputLink(l.OriginSlot, l.ID)
	}
	if target := t.GetNodeById(l.TargetID); target != nil {
		if id, ok := target.inputLinks[l.TargetSlot]; ok && id == l.ID {
			delete(target.inputLinks, l.TargetSlot)
		}
	}
}

// reaches reports whether to is downstream of from.
func (t *Graph) reaches(from, to *GraphNode) bool {
	seen := make(map[int]bool)
	stack := []*GraphNode{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == to.ID {
			return true
		}
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		stack = append(stack, n.downstream()...)
	}
	return false
}

// deliver pushes the origin's output value into the link's target input.
func (t *Graph) deliver(l *Link) {
	origin := t.GetNodeById(l.OriginID)
	target := t.GetNodeById(l.TargetID)
	if origin == nil || target == nil {
		return
	}
	target.Ports.SetInData(origin.Ports.OutData(l.OriginSlot), l.TargetSlot)
	t.propagate(target)
}

// propagate re-delivers every output link of n.
func (t *Graph) propagate(n *GraphNode) {
	if t.restoring {
		return
	}
	slots := make([]int, 0, len(n.outputLinks))
	for k := range n.outputLinks {
		slots = append(slots, k)
	}
	sort.Ints(slots)
	for _, k := range slots {
		for _, id := range append([]int{}, n.outputLinks[k]...) {
			if l := t.GetLinkById(id); l != nil {
				t.deliver(l)
			}
		}
	}
}

func (t *Graph) GetLinkById(id int) *Link {
	val, ok := t.LinksByID[id]
	if ok {
		return val
	}
	return nil
}

func (t *Graph) GetNodeById(id int) *GraphNode {
	val, ok := t.NodesByID[id]
	if ok {
		return val
	}
	return nil
}

// GetNodesWithType returns the nodes of the given type in creation order.
func (t *Graph) GetNodesWithType(nodeType string) []*GraphNode {
	retv := make([]*GraphNode, 0)
	for _, n := range t.Nodes {
		if n.Type == nodeType {
			retv = append(retv, n)
		}
	}
	return retv
}

type graphRecord struct {
	ID         string       `json:"id"`
	Nodes      []*GraphNode `json:"nodes"`
	Links      []*Link      `json:"links"`
	LastNodeID int          `json:"last_node_id"`
	LastLinkID int          `json:"last_link_id"`
	Version    float32      `json:"version"`
}

// graphInput mirrors graphRecord with nodes kept in their saved form.
type graphInput struct {
	ID         string       `json:"id"`
	Nodes      []nodeRecord `json:"nodes"`
	Links      []*Link      `json:"links"`
	LastNodeID int          `json:"last_node_id"`
	LastLinkID int          `json:"last_link_id"`
	Version    float32      `json:"version"`
}

func (t *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphRecord{
		ID:         t.ID,
		Nodes:      t.Nodes,
		Links:      t.Links,
		LastNodeID: t.LastNodeID,
		LastLinkID: t.LastLinkID,
		Version:    t.Version,
	})
}

// NewGraphFromJsonReader rebuilds a saved graph. Port controller state is
// restored from each node's record and links are re-attached without
// replaying connection events.
//
// Returns:
//   - the graph
//   - node types present in the data but missing from objects, if any
//   - an error when the data cannot be decoded or types are missing
func NewGraphFromJsonReader(r io.Reader, objects *NodeObjects, opts ...GraphOption) (*Graph, *[]string, error) {
	in := graphInput{}
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, nil, err
	}

	t := NewGraph(objects, opts...)
	if in.ID != "" {
		t.ID = in.ID
	}
	if in.Version != 0 {
		t.Version = in.Version
	}

	var missing *[]string
	t.restoring = true
	for _, rec := range in.Nodes {
		n, err := t.addNode(rec.ID, rec.Type)
		if errors.Is(err, ErrUnknownNodeType) {
			t.logger.Error("Could not get node object for", "node type", rec.Type)
			if missing == nil {
				m := make([]string, 0)
				missing = &m
			}
			if !containsString(missing, rec.Type) {
				*missing = append(*missing, rec.Type)
			}
			continue
		}
		if err != nil {
			t.restoring = false
			return nil, nil, err
		}
		n.Title = rec.Title
		n.Position = rec.Position
		if rec.Properties != nil {
			n.Properties = rec.Properties
		}

		// a node saved without a port record keeps its fresh layout
		if len(rec.DynamicPorts) > 0 {
			state, err := ports.DecodeState(rec.DynamicPorts)
			if err != nil {
				t.restoring = false
				return nil, nil, fmt.Errorf("node %d: %w", rec.ID, err)
			}
			n.Ports.Restore(state)
		}
		if rec.ID > t.LastNodeID {
			t.LastNodeID = rec.ID
		}
	}

	for _, l := range in.Links {
		if err := t.checkSavedLink(l); err != nil {
			t.logger.Warn("Skipping saved link", "link", l.ID, "error", err)
			continue
		}
		t.addLink(l)
		if l.ID > t.LastLinkID {
			t.LastLinkID = l.ID
		}
	}
	if in.LastNodeID > t.LastNodeID {
		t.LastNodeID = in.LastNodeID
	}
	if in.LastLinkID > t.LastLinkID {
		t.LastLinkID = in.LastLinkID
	}
	t.restoring = false

	for _, l := range t.Links {
		t.deliver(l)
	}

	var err error
	if missing != nil && len(*missing) != 0 {
		err = errors.New("missing node types")
	}
	return t, missing, err
}

func (t *Graph) checkSavedLink(l *Link) error {
	if _, dup := t.LinksByID[l.ID]; dup {
		return fmt.Errorf("duplicate link id %d", l.ID)
	}
	origin := t.GetNodeById(l.OriginID)
	target := t.GetNodeById(l.TargetID)
	if origin == nil || target == nil {
		return ErrNodeNotFound
	}
	if l.OriginSlot < 0 || l.OriginSlot >= len(origin.Object.Outputs) ||
		l.TargetSlot < 0 || l.TargetSlot >= len(target.Object.Inputs) {
		return ErrSlotOutOfRange
	}
	if _, busy := target.inputLinks[l.TargetSlot]; busy {
		return ErrSlotOccupied
	}
	return nil
}

func containsString(slice *[]string, target string) bool {
	for _, item := range *slice {
		if item == target {
			return true
		}
	}
	return false
}

func NewGraphFromJsonFile(path string, objects *NodeObjects, opts ...GraphOption) (*Graph, *[]string, error) {
	freader, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer freader.Close()

	return NewGraphFromJsonReader(freader, objects, opts...)
}

func NewGraphFromJsonString(data string, objects *NodeObjects, opts ...GraphOption) (*Graph, *[]string, error) {
	return NewGraphFromJsonReader(strings.NewReader(data), objects, opts...)
}

func (t *Graph) GraphToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *Graph) SaveGraphToFile(path string) error {
	data, err := t.GraphToJSON()
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(data)
	return err
}
