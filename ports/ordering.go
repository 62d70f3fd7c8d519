package ports

// VisualOrder lists the visible input slots top to bottom: static slots, then
// connected dynamic slots, then the spare, then disconnected dynamic slots.
// Each group is ascending. Slots outside the static and dynamic sets never
// appear.
func (c *Controller) VisualOrder() []int {
	order := make([]int, 0, len(c.cfg.Static)+len(c.cfg.Dynamic))
	order = append(order, c.cfg.Static...)

	spareListed := false
	for _, i := range c.cfg.Dynamic {
		if c.connected[i] {
			order = append(order, i)
			spareListed = spareListed || i == c.spare
		}
	}
	if c.spare != NoSpare && !spareListed && !c.disconnected[c.spare] && c.IsDynamic(c.spare) {
		order = append(order, c.spare)
	}
	for _, i := range c.cfg.Dynamic {
		if c.disconnected[i] && !c.connected[i] {
			order = append(order, i)
		}
	}
	return order
}

// VisualPosition returns the row of logical slot i, or false when the slot is
// not part of the visual order.
func (c *Controller) VisualPosition(i int) (int, bool) {
	for pos, idx := range c.VisualOrder() {
		if idx == i {
			return pos, true
		}
	}
	return -1, false
}

// LogicalIndex maps a visual row back to its slot index.
func (c *Controller) LogicalIndex(pos int) (int, bool) {
	order := c.VisualOrder()
	if pos < 0 || pos >= len(order) {
		return -1, false
	}
	return order[pos], true
}

// PortView is a render-ready snapshot of one input slot.
type PortView struct {
	Index          int       `json:"index"`
	State          SlotState `json:"state"`
	Caption        string    `json:"caption"`
	CaptionVisible bool      `json:"caption_visible"`
	Visible        bool      `json:"visible"`
	// Position is the visual row, -1 for hidden slots.
	Position int `json:"position"`
}

// Ports returns the visible input slots in visual order.
func (c *Controller) Ports() []PortView {
	order := c.VisualOrder()
	views := make([]PortView, 0, len(order))
	for pos, i := range order {
		views = append(views, PortView{
			Index:          i,
			State:          c.StateOf(i),
			Caption:        c.Caption(i),
			CaptionVisible: c.CaptionVisible(i),
			Visible:        c.Visible(i),
			Position:       pos,
		})
	}
	return views
}
