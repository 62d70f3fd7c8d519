package ports

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestVisualOrderGroups(t *testing.T) {
	c := newController(t, 4, []int{0}, []int{1, 2, 3})
	c.Restore(State{
		ActiveInputCount:   1,
		SpareInputIndex:    2,
		ConnectedInputs:    []int{1},
		DisconnectedInputs: []int{3},
	})

	if diff := cmp.Diff([]int{0, 1, 2, 3}, c.VisualOrder()); diff != "" {
		t.Errorf("VisualOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestVisualOrderPutsDisconnectedLast(t *testing.T) {
	c := newController(t, 4, nil, nil)
	c.ConnectionCreated(conn(0))
	c.ConnectionCreated(conn(1))
	c.ConnectionCreated(conn(2))
	c.ConnectionDeleted(conn(0))

	want := []int{1, 2, 3, 0}
	if diff := cmp.Diff(want, c.VisualOrder()); diff != "" {
		t.Errorf("VisualOrder mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, c.VisiblePortCount())

	pos, ok := c.VisualPosition(0)
	assert.True(t, ok)
	assert.Equal(t, 3, pos)

	idx, ok := c.LogicalIndex(2)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestVisualLookupsReportMissing(t *testing.T) {
	c := newController(t, 5, []int{4}, []int{0, 1, 2})

	_, ok := c.VisualPosition(2)
	assert.False(t, ok, "hidden dynamic slot")
	_, ok = c.VisualPosition(3)
	assert.False(t, ok, "unassigned slot")

	for _, pos := range []int{-1, 2, 100} {
		_, ok = c.LogicalIndex(pos)
		assert.False(t, ok, "position %d", pos)
	}

	idx, ok := c.LogicalIndex(0)
	assert.True(t, ok)
	assert.Equal(t, 4, idx)
}

func TestVisualOrderWithoutSpare(t *testing.T) {
	c := newController(t, 3, []int{2}, []int{0, 1})
	c.ConnectionCreated(conn(0))
	c.ConnectionCreated(conn(1))

	if diff := cmp.Diff([]int{2, 0, 1}, c.VisualOrder()); diff != "" {
		t.Errorf("VisualOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestPortsSnapshot(t *testing.T) {
	c := newController(t, 4, []int{0}, []int{1, 2, 3})
	c.ConnectionCreated(conn(1))

	want := []PortView{
		{Index: 0, State: StateStatic, Caption: "Input 1", CaptionVisible: true, Visible: true, Position: 0},
		{Index: 1, State: StateConnected, Caption: "Input 2", CaptionVisible: true, Visible: true, Position: 1},
		{Index: 2, State: StateSpare, Caption: SpareCaption, CaptionVisible: true, Visible: true, Position: 2},
	}
	if diff := cmp.Diff(want, c.Ports()); diff != "" {
		t.Errorf("Ports mismatch (-want +got):\n%s", diff)
	}
}
