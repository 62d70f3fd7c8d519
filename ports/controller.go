package ports

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/richinsley/dynport/internal/logging"
)

const (
	// NoSpare is the spare index when every dynamic slot is connected or disconnected.
	NoSpare = -1
	// SpareCaption labels the one open dynamic slot.
	SpareCaption = "Connect here"
)

// Connection is the part of a host connection object the controller needs.
type Connection interface {
	InputIndex() int
}

// Callbacks are the notifications a Controller emits to its host. All of them
// are optional.
type Callbacks struct {
	// SizeChanged fires after any transition that changes the visible port set.
	SizeChanged func(*Controller)
	// DataUpdated fires with the output slot whose data may have changed.
	DataUpdated func(*Controller, int)
	// RemoveConnection tears down a connection the controller refused.
	RemoveConnection func(Connection)
	// Post schedules fn on the next turn of the host event loop. When nil,
	// RemoveConnection is called inline.
	Post func(fn func())
}

// InputProcessor receives every value stored through SetInData.
type InputProcessor interface {
	ProcessInput(data NodeData, index int)
}

// OutputComputer produces the value of output slot 0.
type OutputComputer interface {
	Compute() NodeData
}

// Outcome reports what a connection event did to the controller.
type Outcome int

const (
	NoChange Outcome = iota
	PassThrough
	Rejected
	Activated
	Reactivated
	Released
	Disconnected
)

var outcomeNames = map[Outcome]string{
	NoChange:     "no_change",
	PassThrough:  "pass_through",
	Rejected:     "rejected",
	Activated:    "activated",
	Reactivated:  "reactivated",
	Released:     "released",
	Disconnected: "disconnected",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Changed reports whether the outcome altered slot state.
func (o Outcome) Changed() bool {
	return o == Activated || o == Reactivated || o == Released || o == Disconnected
}

type portDisplay struct {
	caption        string
	captionVisible bool
	visible        bool
}

// Controller owns the input slots of one node. Static slots behave like plain
// inputs. Dynamic slots open one at a time: exactly one of them, the spare, is
// shown for the next connection, and slots that lose their connection stay
// visible as disconnected.
//
// A Controller is not safe for concurrent use; hosts drive it from a single
// event loop.
type Controller struct {
	cfg Config

	activeInputCount int
	spare            int
	connected        map[int]bool
	disconnected     map[int]bool

	inputData       map[int]NodeData
	originalCaption []string
	display         []portDisplay

	callbacks Callbacks
	processor InputProcessor
	computer  OutputComputer
	logger    *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithCallbacks installs host notifications.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Controller) {
		c.callbacks = cb
	}
}

// WithLogger sets the logger used for transition tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInputProcessor installs the hook that receives input data.
func WithInputProcessor(p InputProcessor) Option {
	return func(c *Controller) {
		c.processor = p
	}
}

// WithOutputComputer installs the hook that produces output slot 0.
func WithOutputComputer(oc OutputComputer) Option {
	return func(c *Controller) {
		c.computer = oc
	}
}

// New creates a controller for cfg. Original captions are captured here,
// before any spare caption is written.
func New(cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:             cfg.clone(),
		spare:           NoSpare,
		connected:       make(map[int]bool),
		disconnected:    make(map[int]bool),
		inputData:       make(map[int]NodeData),
		originalCaption: make([]string, cfg.MaxInputs),
		display:         make([]portDisplay, cfg.MaxInputs),
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := 0; i < c.cfg.MaxInputs; i++ {
		c.originalCaption[i] = c.captionSource(i)
	}
	if len(c.cfg.Dynamic) > 0 {
		c.spare = c.cfg.Dynamic[0]
	}
	c.updateDisplay()
	return c
}

func (c *Controller) captionSource(i int) string {
	if dt, ok := c.cfg.InputTypes[i]; ok && dt.Name != "" {
		return dt.Name
	}
	if caption, ok := c.cfg.Captions[i]; ok && caption != "" {
		return caption
	}
	return fmt.Sprintf("Input %d", i+1)
}

// Config returns a copy of the controller's configuration.
func (c *Controller) Config() Config {
	return c.cfg.clone()
}

// ConnectionCreated applies a new connection ending at conn.InputIndex().
func (c *Controller) ConnectionCreated(conn Connection) Outcome {
	i := conn.InputIndex()

	switch {
	case c.IsStatic(i), !c.IsDynamic(i):
		return PassThrough

	case !c.Connectable(i):
		c.reject(conn)
		return Rejected

	case c.disconnected[i]:
		delete(c.disconnected, i)
		c.connected[i] = true
		c.logger.Debug("input reactivated", "slot", i, "spare", c.spare)
		c.changed()
		return Reactivated

	case i == c.spare:
		c.connected[i] = true
		c.activeInputCount++
		c.spare = c.nextSpare()
		c.logger.Debug("spare activated", "slot", i, "spare", c.spare, "active", c.activeInputCount)
		c.changed()
		return Activated
	}

	return NoChange
}

// ConnectionDeleted applies the removal of a connection ending at conn.InputIndex().
//
// Disconnecting the most recently activated slot releases it and the spare is
// re-assigned, so the slot opens again as the spare. Any other connected slot
// is kept as disconnected and the active count is left alone.
func (c *Controller) ConnectionDeleted(conn Connection) Outcome {
	i := conn.InputIndex()

	switch {
	case c.IsStatic(i), !c.IsDynamic(i):
		return PassThrough

	case c.connected[i]:
		delete(c.connected, i)
		if c.isTail(i) {
			c.activeInputCount--
			c.spare = c.nextSpare()
			c.logger.Debug("tail input released", "slot", i, "spare", c.spare, "active", c.activeInputCount)
			c.changed()
			return Released
		}
		c.disconnected[i] = true
		c.logger.Debug("input disconnected", "slot", i, "spare", c.spare, "active", c.activeInputCount)
		c.changed()
		return Disconnected

	case i == c.spare:
		c.disconnected[i] = true
		c.spare = c.nextSpare()
		c.logger.Debug("spare disconnected", "slot", i, "spare", c.spare)
		c.changed()
		return Disconnected
	}

	return NoChange
}

// isTail reports whether slot i holds position activeInputCount-1 among the
// dynamic slots. With the default all-dynamic layout the position equals the
// slot index, so this is the check i == activeInputCount-1.
func (c *Controller) isTail(i int) bool {
	return sort.SearchInts(c.cfg.Dynamic, i) == c.activeInputCount-1
}

// nextSpare scans dynamic slots in ascending order for the first one that is
// neither connected nor disconnected.
func (c *Controller) nextSpare() int {
	for _, i := range c.cfg.Dynamic {
		if !c.connected[i] && !c.disconnected[i] {
			return i
		}
	}
	return NoSpare
}

func (c *Controller) reject(conn Connection) {
	c.logger.Warn("connection to hidden input rejected", "slot", conn.InputIndex(), "spare", c.spare)
	remove := c.callbacks.RemoveConnection
	if remove == nil {
		return
	}
	if c.callbacks.Post != nil {
		c.callbacks.Post(func() { remove(conn) })
		return
	}
	remove(conn)
}

func (c *Controller) changed() {
	c.updateDisplay()
	if c.callbacks.SizeChanged != nil {
		c.callbacks.SizeChanged(c)
	}
	if c.callbacks.DataUpdated != nil {
		c.callbacks.DataUpdated(c, 0)
	}
}

func (c *Controller) updateDisplay() {
	for i := range c.display {
		d := &c.display[i]
		switch {
		case c.IsStatic(i):
			*d = portDisplay{caption: c.originalCaption[i], captionVisible: true, visible: true}
		case !c.IsDynamic(i):
			*d = portDisplay{}
		case c.spare != NoSpare && i == c.spare:
			*d = portDisplay{caption: SpareCaption, captionVisible: true, visible: true}
		case c.connected[i], c.disconnected[i]:
			*d = portDisplay{caption: c.originalCaption[i], captionVisible: true, visible: true}
		default:
			*d = portDisplay{}
		}
	}
}

func (c *Controller) IsStatic(i int) bool {
	return containsIndex(c.cfg.Static, i)
}

func (c *Controller) IsDynamic(i int) bool {
	return containsIndex(c.cfg.Dynamic, i)
}

func (c *Controller) IsSpare(i int) bool {
	return c.spare != NoSpare && i == c.spare
}

func (c *Controller) IsConnected(i int) bool {
	return c.connected[i]
}

func (c *Controller) IsDisconnected(i int) bool {
	return c.disconnected[i]
}

// ActiveInputCount is the activation counter. It is not recomputed from the
// connected set, so it can exceed the number of connected slots after a
// non-tail disconnect.
func (c *Controller) ActiveInputCount() int {
	return c.activeInputCount
}

// SpareIndex returns the spare slot or NoSpare.
func (c *Controller) SpareIndex() int {
	return c.spare
}

// StateOf classifies slot i.
func (c *Controller) StateOf(i int) SlotState {
	switch {
	case c.IsStatic(i):
		return StateStatic
	case !c.IsDynamic(i):
		return StateHidden
	case c.IsSpare(i):
		return StateSpare
	case c.connected[i]:
		return StateConnected
	case c.disconnected[i]:
		return StateDisconnected
	}
	return StateHidden
}

// Visible reports whether input slot i is drawn.
func (c *Controller) Visible(i int) bool {
	if i < 0 || i >= len(c.display) {
		return false
	}
	return c.display[i].visible
}

// Connectable reports whether a new connection may end at slot i.
func (c *Controller) Connectable(i int) bool {
	return c.Visible(i)
}

func (c *Controller) Caption(i int) string {
	if i < 0 || i >= len(c.display) {
		return ""
	}
	return c.display[i].caption
}

func (c *Controller) CaptionVisible(i int) bool {
	if i < 0 || i >= len(c.display) {
		return false
	}
	return c.display[i].captionVisible
}

// OriginalCaption is the label captured at construction for slot i.
func (c *Controller) OriginalCaption(i int) string {
	if i < 0 || i >= len(c.originalCaption) {
		return ""
	}
	return c.originalCaption[i]
}

// OutputVisible reports whether output slot k exists. Outputs are always shown.
func (c *Controller) OutputVisible(k int) bool {
	return k >= 0 && k < c.cfg.MaxOutputs
}

// VisiblePortCount is the number of input slots currently drawn.
func (c *Controller) VisiblePortCount() int {
	n := 0
	for _, d := range c.display {
		if d.visible {
			n++
		}
	}
	return n
}
