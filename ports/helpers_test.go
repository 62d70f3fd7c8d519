package ports

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type conn int

func (c conn) InputIndex() int { return int(c) }

type decimal float64

func (decimal) Type() DataType { return DataType{ID: "decimal", Name: "Decimal"} }

func newController(t *testing.T, maxInputs int, static, dynamic []int, opts ...Option) *Controller {
	t.Helper()
	cfg, err := NewConfig(maxInputs, 1, static, dynamic)
	require.NoError(t, err)
	return New(cfg, opts...)
}

// recorder counts host notifications and queues deferred work.
type recorder struct {
	sizeChanged int
	dataUpdated []int
	removed     []int
	posted      []func()
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		SizeChanged:      func(*Controller) { r.sizeChanged++ },
		DataUpdated:      func(_ *Controller, k int) { r.dataUpdated = append(r.dataUpdated, k) },
		RemoveConnection: func(c Connection) { r.removed = append(r.removed, c.InputIndex()) },
		Post:             func(fn func()) { r.posted = append(r.posted, fn) },
	}
}

func (r *recorder) runPosted() {
	posted := r.posted
	r.posted = nil
	for _, fn := range posted {
		fn()
	}
}
