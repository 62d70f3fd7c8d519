package graphapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Link is a connection from an output slot of one node to an input slot of
// another.
type Link struct {
	ID         int
	OriginID   int
	OriginSlot int
	TargetID   int
	TargetSlot int
	Type       string
	// object format is written back the way it was read; tuples are the default
	isObjectFormat bool
}

// InputIndex is the input slot the link ends at.
func (l *Link) InputIndex() int {
	return l.TargetSlot
}

func (l *Link) String() string {
	return fmt.Sprintf("link %d (%d:%d -> %d:%d)", l.ID, l.OriginID, l.OriginSlot, l.TargetID, l.TargetSlot)
}

type linkObject struct {
	ID         int    `json:"id"`
	OriginID   int    `json:"origin_id"`
	OriginSlot int    `json:"origin_slot"`
	TargetID   int    `json:"target_id"`
	TargetSlot int    `json:"target_slot"`
	Type       string `json:"type"`
}

func (l *Link) UnmarshalJSON(b []byte) error {
	// tuple format: [id, origin_id, origin_slot, target_id, target_slot, type]
	var tmp []interface{}
	if err := json.Unmarshal(b, &tmp); err == nil {
		if len(tmp) != 6 {
			return errors.New("wrong number of fields in JSON array")
		}
		ints := make([]int, 5)
		for i := range ints {
			f, ok := tmp[i].(float64)
			if !ok {
				return fmt.Errorf("link field %d is not a number", i)
			}
			ints[i] = int(f)
		}
		l.ID, l.OriginID, l.OriginSlot, l.TargetID, l.TargetSlot = ints[0], ints[1], ints[2], ints[3], ints[4]
		l.Type, _ = tmp[5].(string)
		l.isObjectFormat = false
		return nil
	}

	var obj linkObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	l.ID = obj.ID
	l.OriginID = obj.OriginID
	l.OriginSlot = obj.OriginSlot
	l.TargetID = obj.TargetID
	l.TargetSlot = obj.TargetSlot
	l.Type = obj.Type
	l.isObjectFormat = true
	return nil
}

func (l *Link) MarshalJSON() ([]byte, error) {
	if l.isObjectFormat {
		return json.Marshal(linkObject{
			ID:         l.ID,
			OriginID:   l.OriginID,
			OriginSlot: l.OriginSlot,
			TargetID:   l.TargetID,
			TargetSlot: l.TargetSlot,
			Type:       l.Type,
		})
	}
	return json.Marshal([]interface{}{l.ID, l.OriginID, l.OriginSlot, l.TargetID, l.TargetSlot, l.Type})
}
