package ports

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRestoreRoundTrip(t *testing.T) {
	src := newController(t, 6, []int{0}, []int{1, 2, 3, 4, 5})
	for _, i := range []int{1, 2, 3} {
		src.ConnectionCreated(conn(i))
	}
	src.ConnectionDeleted(conn(1))

	raw, err := json.Marshal(src.Save())
	require.NoError(t, err)

	state, err := DecodeState(raw)
	require.NoError(t, err)

	rec := &recorder{}
	dst := newController(t, 6, []int{0}, []int{1, 2, 3, 4, 5}, WithCallbacks(rec.callbacks()))
	dst.Restore(state)

	assert.Equal(t, src.Save(), dst.Save())
	if diff := cmp.Diff(src.VisualOrder(), dst.VisualOrder()); diff != "" {
		t.Errorf("VisualOrder mismatch (-src +dst):\n%s", diff)
	}
	if diff := cmp.Diff(src.Ports(), dst.Ports()); diff != "" {
		t.Errorf("Ports mismatch (-src +dst):\n%s", diff)
	}
	assert.Equal(t, 1, rec.sizeChanged)
	assert.Equal(t, []int{0}, rec.dataUpdated)
}

func TestStateWireFormat(t *testing.T) {
	c := newController(t, 2, nil, nil)
	c.ConnectionCreated(conn(0))
	c.ConnectionCreated(conn(1))

	raw, err := json.Marshal(c.Save())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"active_input_count": 2,
		"spare_input_index": -1,
		"connected_inputs": [0, 1],
		"disconnected_inputs": []
	}`, string(raw))
}

func TestDecodeStateDefaultsMissingFields(t *testing.T) {
	s, err := DecodeState([]byte(`{"connected_inputs": [2]}`))
	require.NoError(t, err)
	assert.Equal(t, State{ConnectedInputs: []int{2}}, s)

	s, err = DecodeState(nil)
	require.NoError(t, err)
	assert.Equal(t, State{}, s)

	_, err = DecodeState([]byte(`{"active_input_count": "x"}`))
	assert.Error(t, err)
}

func TestSlotStateText(t *testing.T) {
	raw, err := json.Marshal(map[string]SlotState{"a": StateDisconnected})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"disconnected"}`, string(raw))

	var s SlotState
	require.NoError(t, s.UnmarshalText([]byte("spare")))
	assert.Equal(t, StateSpare, s)
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}
