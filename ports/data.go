package ports

import "sort"

// IndexedData pairs an input slot with the value it last received.
type IndexedData struct {
	Index int
	Data  NodeData
}

// SetInData stores data for slot i, or forgets it when data is nil, and hands
// it to the input processor.
func (c *Controller) SetInData(data NodeData, i int) {
	if data != nil {
		c.inputData[i] = data
	} else {
		delete(c.inputData, i)
	}

	if c.processor != nil {
		c.processor.ProcessInput(data, i)
	}
}

// OutData returns the value of output slot k. Only slot 0 is computed.
func (c *Controller) OutData(k int) NodeData {
	if k != 0 || c.computer == nil {
		return nil
	}
	return c.computer.Compute()
}

// InputData returns the value last stored for slot i, or nil.
func (c *Controller) InputData(i int) NodeData {
	return c.inputData[i]
}

// AllInputData returns every stored value ordered by slot index.
func (c *Controller) AllInputData() []IndexedData {
	out := make([]IndexedData, 0, len(c.inputData))
	for i, d := range c.inputData {
		if d != nil {
			out = append(out, IndexedData{Index: i, Data: d})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

// ActiveInputData returns the values of slots [0, ActiveInputCount()), with
// nil for slots holding nothing. A negative restored count yields no slots.
func (c *Controller) ActiveInputData() []NodeData {
	n := c.activeInputCount
	if n < 0 {
		n = 0
	}
	out := make([]NodeData, n)
	for i := range out {
		out[i] = c.inputData[i]
	}
	return out
}
