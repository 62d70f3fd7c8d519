package ports

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialSpareIsSmallestDynamicSlot(t *testing.T) {
	c := newController(t, 8, nil, []int{5, 3, 7, 4, 6})

	assert.Equal(t, 3, c.SpareIndex())
	assert.Equal(t, SpareCaption, c.Caption(3))
	assert.True(t, c.Visible(3))
	assert.False(t, c.Visible(4))
	assert.Equal(t, "", c.Caption(4))
	assert.Equal(t, 0, c.ActiveInputCount())
	// slots 0-2 are in neither set
	assert.False(t, c.Visible(0))

	empty := newController(t, 3, []int{0, 1, 2}, nil)
	assert.Equal(t, NoSpare, empty.SpareIndex())
}

func TestConnectSpareAdvancesSpare(t *testing.T) {
	c := newController(t, 8, nil, []int{3, 4, 5, 6, 7})

	out := c.ConnectionCreated(conn(3))

	assert.Equal(t, Activated, out)
	assert.True(t, c.IsConnected(3))
	assert.Equal(t, 4, c.SpareIndex())
	assert.Equal(t, 1, c.ActiveInputCount())
	assert.Equal(t, "Input 4", c.Caption(3))
	assert.Equal(t, SpareCaption, c.Caption(4))
	assert.Equal(t, StateConnected, c.StateOf(3))
	assert.Equal(t, StateSpare, c.StateOf(4))
	assert.Equal(t, StateHidden, c.StateOf(5))
}

func TestSingleDynamicSlotConnectDisconnect(t *testing.T) {
	for _, slot := range []int{0, 5} {
		c := newController(t, slot+1, nil, []int{slot})

		require.Equal(t, Activated, c.ConnectionCreated(conn(slot)))
		assert.Equal(t, NoSpare, c.SpareIndex())
		assert.Equal(t, 1, c.ActiveInputCount())

		assert.Equal(t, Released, c.ConnectionDeleted(conn(slot)))
		assert.Equal(t, slot, c.SpareIndex())
		assert.Equal(t, SpareCaption, c.Caption(slot))
		assert.Equal(t, 0, c.ActiveInputCount())
		assert.False(t, c.IsDisconnected(slot))
		assert.False(t, c.IsConnected(slot))
	}
}

func TestNonTailDisconnectKeepsCounter(t *testing.T) {
	c := newController(t, 3, nil, []int{0, 1, 2})
	c.ConnectionCreated(conn(0))
	c.ConnectionCreated(conn(1))
	require.Equal(t, 2, c.SpareIndex())

	out := c.ConnectionDeleted(conn(0))

	assert.Equal(t, Disconnected, out)
	assert.True(t, c.IsDisconnected(0))
	assert.Equal(t, 2, c.ActiveInputCount())
	assert.Equal(t, 2, c.SpareIndex())
	assert.True(t, c.Visible(0))
	assert.Equal(t, "Input 1", c.Caption(0))

	// reconnecting a disconnected slot leaves the spare alone
	assert.Equal(t, Reactivated, c.ConnectionCreated(conn(0)))
	assert.True(t, c.IsConnected(0))
	assert.False(t, c.IsDisconnected(0))
	assert.Equal(t, 2, c.SpareIndex())
	assert.Equal(t, 2, c.ActiveInputCount())
}

func TestTailDisconnectReopensSlot(t *testing.T) {
	c := newController(t, 3, nil, []int{0, 1, 2})
	c.ConnectionCreated(conn(0))
	c.ConnectionCreated(conn(1))

	assert.Equal(t, Released, c.ConnectionDeleted(conn(1)))
	assert.Equal(t, 1, c.ActiveInputCount())
	assert.Equal(t, 1, c.SpareIndex())
	assert.False(t, c.Visible(2))
	assert.Equal(t, SpareCaption, c.Caption(1))
}

func TestPoolExhaustion(t *testing.T) {
	c := newController(t, 3, nil, []int{0, 1, 2})
	for i := 0; i < 3; i++ {
		require.Equal(t, Activated, c.ConnectionCreated(conn(i)))
	}
	assert.Equal(t, NoSpare, c.SpareIndex())
	assert.Equal(t, 3, c.VisiblePortCount())
	for i := 0; i < 3; i++ {
		assert.False(t, c.IsSpare(i))
	}

	assert.Equal(t, Disconnected, c.ConnectionDeleted(conn(0)))
	assert.Equal(t, NoSpare, c.SpareIndex())

	// the tail re-opens as spare
	assert.Equal(t, Released, c.ConnectionDeleted(conn(2)))
	assert.Equal(t, 2, c.SpareIndex())
}

func TestConnectToHiddenSlotIsRejectedOnNextTurn(t *testing.T) {
	rec := &recorder{}
	c := newController(t, 4, nil, []int{0, 1, 2, 3}, WithCallbacks(rec.callbacks()))
	before := c.Save()

	out := c.ConnectionCreated(conn(2))

	assert.Equal(t, Rejected, out)
	assert.Equal(t, before, c.Save())
	assert.Empty(t, rec.removed, "removal must not happen inside the creation callback")
	assert.Zero(t, rec.sizeChanged)
	require.Len(t, rec.posted, 1)

	rec.runPosted()
	assert.Equal(t, []int{2}, rec.removed)
}

func TestRejectWithoutEventLoopRemovesInline(t *testing.T) {
	var removed []int
	c := newController(t, 3, nil, nil, WithCallbacks(Callbacks{
		RemoveConnection: func(conn Connection) { removed = append(removed, conn.InputIndex()) },
	}))

	assert.Equal(t, Rejected, c.ConnectionCreated(conn(1)))
	assert.Equal(t, []int{1}, removed)

	// no remover at all is tolerated
	bare := newController(t, 3, nil, nil)
	assert.Equal(t, Rejected, bare.ConnectionCreated(conn(2)))
}

func TestStaticSlotsPassThrough(t *testing.T) {
	rec := &recorder{}
	c := newController(t, 4, []int{0}, []int{1, 2}, WithCallbacks(rec.callbacks()))

	assert.Equal(t, PassThrough, c.ConnectionCreated(conn(0)))
	assert.Equal(t, PassThrough, c.ConnectionDeleted(conn(0)))
	assert.Equal(t, PassThrough, c.ConnectionCreated(conn(3)), "unassigned slot")
	assert.Equal(t, PassThrough, c.ConnectionDeleted(conn(3)))

	assert.True(t, c.Visible(0))
	assert.Equal(t, "Input 1", c.Caption(0))
	assert.False(t, c.Visible(3))
	assert.Equal(t, 1, c.SpareIndex())
	assert.Zero(t, rec.sizeChanged)
	assert.Empty(t, rec.dataUpdated)
}

func TestDisconnectSpareEdgeCase(t *testing.T) {
	c := newController(t, 3, nil, nil)

	assert.Equal(t, Disconnected, c.ConnectionDeleted(conn(0)))
	assert.True(t, c.IsDisconnected(0))
	assert.Equal(t, 1, c.SpareIndex())
	assert.Equal(t, 0, c.ActiveInputCount())
	assert.Equal(t, "Input 1", c.Caption(0))
}

func TestRepeatedEventsAreNoOps(t *testing.T) {
	rec := &recorder{}
	c := newController(t, 3, nil, nil, WithCallbacks(rec.callbacks()))
	c.ConnectionCreated(conn(0))
	require.Equal(t, 1, rec.sizeChanged)

	assert.Equal(t, NoChange, c.ConnectionCreated(conn(0)))
	assert.Equal(t, 1, c.ActiveInputCount())

	c.ConnectionCreated(conn(1))
	c.ConnectionDeleted(conn(0))
	assert.Equal(t, NoChange, c.ConnectionDeleted(conn(0)))
	assert.Equal(t, 3, rec.sizeChanged)
	assert.Equal(t, []int{0, 0, 0}, rec.dataUpdated)
}

func TestCaptionSources(t *testing.T) {
	cfg, err := NewConfig(3, 1, []int{0}, []int{1, 2})
	require.NoError(t, err)
	cfg = cfg.WithInputType(1, DataType{ID: "decimal", Name: "Decimal"}).
		WithCaption(1, "ignored").
		WithCaption(0, "Base")

	c := New(cfg)

	assert.Equal(t, "Base", c.OriginalCaption(0))
	assert.Equal(t, "Decimal", c.OriginalCaption(1))
	assert.Equal(t, "Input 3", c.OriginalCaption(2))
	// the spare label never leaks into the captured caption
	assert.Equal(t, SpareCaption, c.Caption(1))
	c.ConnectionCreated(conn(1))
	assert.Equal(t, "Decimal", c.Caption(1))
	assert.Equal(t, SpareCaption, c.Caption(2))
}

func TestOutputsAlwaysVisible(t *testing.T) {
	cfg, err := NewConfig(2, 3, nil, nil)
	require.NoError(t, err)
	c := New(cfg)

	for k := 0; k < 3; k++ {
		assert.True(t, c.OutputVisible(k))
	}
	assert.False(t, c.OutputVisible(3))
}

func TestInstancesDoNotShareState(t *testing.T) {
	cfg, err := NewConfig(3, 1, nil, nil)
	require.NoError(t, err)
	a, b := New(cfg), New(cfg)

	a.ConnectionCreated(conn(0))

	assert.True(t, a.IsConnected(0))
	assert.False(t, b.IsConnected(0))
	assert.Equal(t, SpareCaption, b.Caption(0))
}

func TestRandomEventsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := newController(t, 8, []int{0}, []int{1, 2, 3, 4, 5, 6})

	for step := 0; step < 2000; step++ {
		slot := rng.Intn(8)
		if rng.Intn(2) == 0 {
			c.ConnectionCreated(conn(slot))
		} else {
			c.ConnectionDeleted(conn(slot))
		}

		spares := 0
		for _, i := range c.Config().Dynamic {
			states := 0
			if c.IsSpare(i) {
				spares++
				states++
			}
			if c.IsConnected(i) {
				states++
			}
			if c.IsDisconnected(i) {
				states++
			}
			require.LessOrEqual(t, states, 1, "slot %d at step %d", i, step)
		}
		require.LessOrEqual(t, spares, 1)
		require.GreaterOrEqual(t, c.ActiveInputCount(), 0)

		require.True(t, c.Visible(0))
		require.Equal(t, "Input 1", c.Caption(0))
		require.False(t, c.Visible(7))

		order := c.VisualOrder()
		require.Len(t, order, c.VisiblePortCount())
		seen := map[int]bool{}
		for _, i := range order {
			require.False(t, seen[i], "duplicate %d in %v", i, order)
			seen[i] = true
			require.True(t, c.Visible(i))
		}
	}
}
