package graphapi

import (
	"encoding/json"
	"fmt"
)

// Pos is a node's canvas position. Editors store it as a two element array.
type Pos struct {
	X float64
	Y float64
}

func (p *Pos) UnmarshalJSON(b []byte) error {
	var tmp []float64
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	if len(tmp) != 2 {
		return fmt.Errorf("pos: expected 2 values, got %d", len(tmp))
	}
	p.X, p.Y = tmp[0], tmp[1]
	return nil
}

func (p Pos) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{p.X, p.Y})
}
