package graphapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/richinsley/dynport/ports"
	"gopkg.in/yaml.v3"
)

var ErrUnknownNodeType = errors.New("unknown node type")

// NodeObjects is the catalogue of node types a graph can instantiate.
type NodeObjects struct {
	Objects map[string]*NodeObject `json:"nodes" yaml:"nodes"`
}

// SlotDefinition declares one input or output slot of a node type.
type SlotDefinition struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	TypeName string `json:"type_name,omitempty" yaml:"type_name,omitempty"`
}

// NodeObject describes how to build an instance of a node. StaticInputs and
// DynamicInputs follow the controller defaults: both absent makes every input
// dynamic, one absent makes that set empty.
type NodeObject struct {
	Name          string           `json:"name" yaml:"name"`
	DisplayName   string           `json:"display_name" yaml:"display_name"`
	Description   string           `json:"description" yaml:"description"`
	Category      string           `json:"category" yaml:"category"`
	Inputs        []SlotDefinition `json:"inputs" yaml:"inputs"`
	Outputs       []SlotDefinition `json:"outputs" yaml:"outputs"`
	StaticInputs  *[]int           `json:"static_inputs,omitempty" yaml:"static_inputs,omitempty"`
	DynamicInputs *[]int           `json:"dynamic_inputs,omitempty" yaml:"dynamic_inputs,omitempty"`
	Behavior      string           `json:"behavior,omitempty" yaml:"behavior,omitempty"`
}

// PortConfig builds the controller configuration for this node type.
func (n *NodeObject) PortConfig() (ports.Config, error) {
	var static, dynamic []int
	if n.StaticInputs != nil {
		static = append([]int{}, *n.StaticInputs...)
	}
	if n.DynamicInputs != nil {
		dynamic = append([]int{}, *n.DynamicInputs...)
	}

	cfg, err := ports.NewConfig(len(n.Inputs), len(n.Outputs), static, dynamic)
	if err != nil {
		return ports.Config{}, fmt.Errorf("node type %s: %w", n.Name, err)
	}
	for i, in := range n.Inputs {
		if in.Name != "" {
			cfg = cfg.WithCaption(i, in.Name)
		}
		if in.TypeName != "" {
			cfg = cfg.WithInputType(i, ports.DataType{ID: in.Type, Name: in.TypeName})
		}
	}
	return cfg, nil
}

func (n *NodeObjects) GetNodeObjectByName(name string) *NodeObject {
	val, ok := n.Objects[name]
	if ok {
		return val
	}
	return nil
}

// Names returns the registered node types, sorted.
func (n *NodeObjects) Names() []string {
	names := make([]string, 0, len(n.Objects))
	for k := range n.Objects {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every node type yields a usable port configuration.
func (n *NodeObjects) Validate() error {
	var errs []error
	for _, name := range n.Names() {
		if _, err := n.Objects[name].PortConfig(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *NodeObjects) fillNames() {
	for k, o := range n.Objects {
		if o.Name == "" {
			o.Name = k
		}
		if o.DisplayName == "" {
			o.DisplayName = o.Name
		}
	}
}

func NewNodeObjectsFromJsonReader(r io.Reader) (*NodeObjects, error) {
	objects := &NodeObjects{}
	if err := json.NewDecoder(r).Decode(objects); err != nil {
		return nil, fmt.Errorf("decode node objects: %w", err)
	}
	return finishNodeObjects(objects)
}

func NewNodeObjectsFromYamlReader(r io.Reader) (*NodeObjects, error) {
	objects := &NodeObjects{}
	if err := yaml.NewDecoder(r).Decode(objects); err != nil {
		return nil, fmt.Errorf("decode node objects: %w", err)
	}
	return finishNodeObjects(objects)
}

// NewNodeObjectsFromFile loads YAML for .yaml/.yml files and JSON otherwise.
func NewNodeObjectsFromFile(path string) (*NodeObjects, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewNodeObjectsFromYamlReader(f)
	}
	return NewNodeObjectsFromJsonReader(f)
}

func finishNodeObjects(objects *NodeObjects) (*NodeObjects, error) {
	if objects.Objects == nil {
		objects.Objects = make(map[string]*NodeObject)
	}
	objects.fillNames()
	if err := objects.Validate(); err != nil {
		return nil, err
	}
	return objects, nil
}
