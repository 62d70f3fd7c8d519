package ports

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidConfig = errors.New("invalid port configuration")

// DataType identifies the kind of data a slot carries. Name doubles as the
// human readable label shown next to a connected input.
type DataType struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// NodeData is a value travelling along a connection.
type NodeData interface {
	Type() DataType
}

// Config is the fixed slot layout of a controller. Build it with NewConfig;
// the controller keeps its own copy and never mutates it.
type Config struct {
	MaxInputs  int
	MaxOutputs int
	// Static and Dynamic are sorted, duplicate free and disjoint.
	Static  []int
	Dynamic []int
	// Captions holds optional per-slot labels used when no data type name exists.
	Captions   map[int]string
	InputTypes map[int]DataType
}

// NewConfig applies the slot partition defaults:
//   - static == nil && dynamic == nil: every input is dynamic
//   - only one of them set: the other one is empty
//
// Indices not in either set stay hidden for the lifetime of the node.
func NewConfig(maxInputs, maxOutputs int, static, dynamic []int) (Config, error) {
	if maxInputs < 0 || maxOutputs < 0 {
		return Config{}, fmt.Errorf("%w: negative slot count (inputs=%d outputs=%d)", ErrInvalidConfig, maxInputs, maxOutputs)
	}

	cfg := Config{
		MaxInputs:  maxInputs,
		MaxOutputs: maxOutputs,
		Captions:   make(map[int]string),
		InputTypes: make(map[int]DataType),
	}

	if static == nil && dynamic == nil {
		cfg.Static = []int{}
		cfg.Dynamic = make([]int, maxInputs)
		for i := range cfg.Dynamic {
			cfg.Dynamic[i] = i
		}
		return cfg, nil
	}

	var err error
	if cfg.Static, err = normalizeSet(static, maxInputs); err != nil {
		return Config{}, err
	}
	if cfg.Dynamic, err = normalizeSet(dynamic, maxInputs); err != nil {
		return Config{}, err
	}

	for _, s := range cfg.Static {
		if containsIndex(cfg.Dynamic, s) {
			return Config{}, fmt.Errorf("%w: slot %d is both static and dynamic", ErrInvalidConfig, s)
		}
	}
	return cfg, nil
}

// WithCaption returns a copy of the config with a fallback caption for slot i.
func (c Config) WithCaption(i int, caption string) Config {
	out := c.clone()
	out.Captions[i] = caption
	return out
}

// WithInputType returns a copy of the config declaring the data type of slot i.
func (c Config) WithInputType(i int, dt DataType) Config {
	out := c.clone()
	out.InputTypes[i] = dt
	return out
}

func (c Config) clone() Config {
	out := Config{
		MaxInputs:  c.MaxInputs,
		MaxOutputs: c.MaxOutputs,
		Static:     append([]int{}, c.Static...),
		Dynamic:    append([]int{}, c.Dynamic...),
		Captions:   make(map[int]string, len(c.Captions)),
		InputTypes: make(map[int]DataType, len(c.InputTypes)),
	}
	for k, v := range c.Captions {
		out.Captions[k] = v
	}
	for k, v := range c.InputTypes {
		out.InputTypes[k] = v
	}
	return out
}

func normalizeSet(in []int, max int) ([]int, error) {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, i := range in {
		if i < 0 || i >= max {
			return nil, fmt.Errorf("%w: slot %d outside [0,%d)", ErrInvalidConfig, i, max)
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// containsIndex reports whether i is in the sorted slice set.
func containsIndex(set []int, i int) bool {
	n := sort.SearchInts(set, i)
	return n < len(set) && set[n] == i
}
