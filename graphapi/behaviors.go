package graphapi

import (
	"github.com/richinsley/dynport/ports"
)

// DecimalType is the data type of Decimal values.
var DecimalType = ports.DataType{ID: "decimal", Name: "Decimal"}

// Decimal is the numeric value flowing between the built-in behaviors.
type Decimal float64

func (Decimal) Type() ports.DataType { return DecimalType }

// BehaviorFactory builds the compute hook of a node. When the returned value
// also implements ports.InputProcessor it receives the node's input data.
type BehaviorFactory func(n *GraphNode) ports.OutputComputer

// DefaultBehaviors returns the built-in behaviors keyed by NodeObject.Behavior.
func DefaultBehaviors() map[string]BehaviorFactory {
	return map[string]BehaviorFactory{
		"sum":      func(n *GraphNode) ports.OutputComputer { return &sumBehavior{node: n} },
		"constant": func(n *GraphNode) ports.OutputComputer { return &constantBehavior{node: n} },
	}
}

// sumBehavior adds every Decimal on its inputs.
type sumBehavior struct {
	node *GraphNode
}

func (s *sumBehavior) Compute() ports.NodeData {
	inputs := s.node.Ports.AllInputData()
	if len(inputs) == 0 {
		return nil
	}
	var total Decimal
	for _, in := range inputs {
		v, ok := in.Data.(Decimal)
		if !ok {
			s.node.Graph.logger.Warn("sum: ignoring non decimal input", "node", s.node.ID, "slot", in.Index, "type", in.Data.Type().ID)
			continue
		}
		total += v
	}
	return total
}

// constantBehavior emits the node's "value" property.
type constantBehavior struct {
	node *GraphNode
}

func (c *constantBehavior) Compute() ports.NodeData {
	switch v := c.node.Properties["value"].(type) {
	case float64:
		return Decimal(v)
	case int:
		return Decimal(v)
	}
	return nil
}
